package handlers

import (
	"net/http"

	"github.com/amos-netizen/MotoTrack/internal/auth"
	"github.com/amos-netizen/MotoTrack/internal/gate"
	"github.com/amos-netizen/MotoTrack/internal/httpx"
	"github.com/amos-netizen/MotoTrack/internal/services"
)

type BillingHandler struct {
	billing        *services.BillingService
	defaultTaxRate float64
}

func NewBillingHandler(billing *services.BillingService, defaultTaxRate float64) *BillingHandler {
	return &BillingHandler{billing: billing, defaultTaxRate: defaultTaxRate}
}

type createInvoiceRequest struct {
	Items   []services.InvoiceItemInput `json:"items"`
	TaxRate *float64                    `json:"tax_rate"`
}

type autoInvoiceRequest struct {
	TaxRate *float64 `json:"tax_rate"`
}

// CreateInvoice generates an invoice for a job that reached billing from
// line items supplied in the request body.
func (h *BillingHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	if err := gate.Authorize(ident.Role, gate.InvoiceCreate); err != nil {
		httpx.Err(w, err)
		return
	}
	jobID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Err(w, err)
		return
	}
	var req createInvoiceRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Err(w, err)
		return
	}
	inv, err := h.billing.CreateInvoice(r.Context(), ident, jobID, services.CreateInvoiceInput{
		Items:   req.Items,
		TaxRate: h.taxRate(req.TaxRate),
	})
	if err != nil {
		httpx.Err(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

// AutoInvoice derives line items from the job's completed tasks and
// issued parts. The body is optional and may override the tax rate.
func (h *BillingHandler) AutoInvoice(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	if err := gate.Authorize(ident.Role, gate.InvoiceCreate); err != nil {
		httpx.Err(w, err)
		return
	}
	jobID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Err(w, err)
		return
	}
	var req autoInvoiceRequest
	if r.ContentLength > 0 {
		if err := httpx.Decode(r, &req); err != nil {
			httpx.Err(w, err)
			return
		}
	}
	inv, err := h.billing.AutoInvoice(r.Context(), ident, jobID, h.taxRate(req.TaxRate))
	if err != nil {
		httpx.Err(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *BillingHandler) taxRate(override *float64) float64 {
	if override != nil {
		return *override
	}
	return h.defaultTaxRate
}

func (h *BillingHandler) List(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	invs, err := h.billing.List(r.Context(), ident)
	if err != nil {
		httpx.Err(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invs)
}

func (h *BillingHandler) Get(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Err(w, err)
		return
	}
	inv, err := h.billing.Get(r.Context(), ident, id)
	if err != nil {
		httpx.Err(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *BillingHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	if err := gate.Authorize(ident.Role, gate.InvoiceMarkPaid); err != nil {
		httpx.Err(w, err)
		return
	}
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Err(w, err)
		return
	}
	inv, err := h.billing.MarkPaid(r.Context(), ident, id)
	if err != nil {
		httpx.Err(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}
