package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/amos-netizen/MotoTrack/internal/apperr"
	"github.com/amos-netizen/MotoTrack/internal/auth"
	"github.com/amos-netizen/MotoTrack/internal/models"
	"github.com/amos-netizen/MotoTrack/internal/validation"
)

// BillingService materializes invoices for jobs that reached billing
// status. An invoice and its items persist atomically with the job's
// transition to invoiced; a job can acquire at most one invoice.
type BillingService struct {
	db *gorm.DB
}

func NewBillingService(db *gorm.DB) *BillingService { return &BillingService{db: db} }

type InvoiceItemInput struct {
	WarehouseItemID *uint   `json:"warehouse_item_id"`
	Description     string  `json:"description"`
	Quantity        int     `json:"quantity"`
	UnitPrice       float64 `json:"unit_price"`
	ItemType        string  `json:"item_type"`
}

type CreateInvoiceInput struct {
	Items   []InvoiceItemInput `json:"items"`
	TaxRate float64            `json:"tax_rate"` // percentage, 10 means 10%
}

const invoiceNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// generateInvoiceNumber returns a date-stamped token with a random
// suffix. Uniqueness beyond the DB constraint is not guaranteed; the
// collision probability is accepted as negligible.
func generateInvoiceNumber() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is effectively unreachable; fall back to a
		// time-derived suffix rather than panic.
		return fmt.Sprintf("INV-%s-%06d", time.Now().UTC().Format("20060102"), time.Now().UnixNano()%1000000)
	}
	for i, b := range buf {
		buf[i] = invoiceNumberAlphabet[int(b)%len(invoiceNumberAlphabet)]
	}
	return fmt.Sprintf("INV-%s-%s", time.Now().UTC().Format("20060102"), buf)
}

// billableJob loads the job and enforces the billing-status and
// single-invoice preconditions.
func billableJob(tx *gorm.DB, jobID, garageID uint) (*models.Job, error) {
	job, err := scopedJob(tx, jobID, garageID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.JobBilling {
		return nil, apperr.Conflict("job_not_in_billing", "job %d is %s", jobID, job.Status)
	}
	if job.InvoiceID != nil {
		return nil, apperr.Conflict("invoice_exists", "job %d already has invoice %d", jobID, *job.InvoiceID)
	}
	return job, nil
}

// CreateInvoice records an invoice from caller-supplied line items.
func (s *BillingService) CreateInvoice(ctx context.Context, ident auth.Identity, jobID uint, in CreateInvoiceInput) (*models.Invoice, error) {
	if len(in.Items) == 0 {
		return nil, apperr.Validation("empty_invoice", "at least one line item is required")
	}
	v := make(validation.Violations)
	validation.NonNegativeFloat("tax_rate", in.TaxRate, v)
	for i, it := range in.Items {
		prefix := fmt.Sprintf("items[%d].", i)
		validation.Required(prefix+"description", it.Description, v)
		validation.PositiveInt(prefix+"quantity", it.Quantity, v)
		validation.NonNegativeFloat(prefix+"unit_price", it.UnitPrice, v)
		validation.OneOf(prefix+"item_type", it.ItemType, models.ItemTypes, v)
	}
	if !v.Empty() {
		return nil, apperr.Validation("invalid_input", "%s", v.String())
	}

	var inv *models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := billableJob(tx, jobID, ident.GarageID)
		if err != nil {
			return err
		}
		for _, it := range in.Items {
			if it.WarehouseItemID == nil {
				continue
			}
			var count int64
			if err := tx.Model(&models.WarehouseItem{}).Where("id = ?", *it.WarehouseItemID).Count(&count).Error; err != nil {
				return apperr.Internal(err)
			}
			if count == 0 {
				return apperr.NotFound("warehouse_item_not_found", "warehouse item %d not found", *it.WarehouseItemID)
			}
		}

		var subtotal float64
		items := make([]models.InvoiceItem, 0, len(in.Items))
		for _, it := range in.Items {
			lineTotal := float64(it.Quantity) * it.UnitPrice
			subtotal += lineTotal
			items = append(items, models.InvoiceItem{
				WarehouseItemID: it.WarehouseItemID,
				Description:     it.Description,
				Quantity:        it.Quantity,
				UnitPrice:       it.UnitPrice,
				Total:           lineTotal,
				ItemType:        it.ItemType,
			})
		}
		tax := subtotal * (in.TaxRate / 100)
		inv = &models.Invoice{
			JobID:         jobID,
			InvoiceNumber: generateInvoiceNumber(),
			Subtotal:      subtotal,
			Tax:           tax,
			Total:         subtotal + tax,
		}
		if err := tx.Create(inv).Error; err != nil {
			return apperr.Internal(err)
		}
		for i := range items {
			items[i].InvoiceID = inv.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return apperr.Internal(err)
		}
		inv.Items = items

		job.InvoiceID = &inv.ID
		job.Status = models.JobInvoiced
		if err := tx.Save(job).Error; err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// AutoInvoice derives line items from the job itself: labor from completed
// task actions (actual cost, falling back to the catalog default) and
// parts from completed spare part requests at the warehouse price current
// at invoicing time.
func (s *BillingService) AutoInvoice(ctx context.Context, ident auth.Identity, jobID uint, taxRate float64) (*models.Invoice, error) {
	if taxRate < 0 {
		return nil, apperr.Validation("invalid_tax_rate", "tax_rate must not be negative")
	}
	var inv *models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := billableJob(tx, jobID, ident.GarageID)
		if err != nil {
			return err
		}

		var tasks []models.JobTaskAction
		if err := tx.Preload("TaskAction").
			Where("job_id = ? AND completed = ?", jobID, true).Find(&tasks).Error; err != nil {
			return apperr.Internal(err)
		}
		var reqs []models.SparePartRequest
		if err := tx.Preload("WarehouseItem").
			Where("job_id = ? AND status = ?", jobID, models.RequestCompleted).Find(&reqs).Error; err != nil {
			return apperr.Internal(err)
		}

		var subtotal float64
		var items []models.InvoiceItem
		for _, t := range tasks {
			cost := t.LaborCost
			if cost == 0 && t.TaskAction != nil {
				cost = t.TaskAction.DefaultLaborCost
			}
			if cost <= 0 {
				continue
			}
			name := ""
			if t.TaskAction != nil {
				name = t.TaskAction.Name
			}
			subtotal += cost
			items = append(items, models.InvoiceItem{
				Description: "Labor: " + name,
				Quantity:    1,
				UnitPrice:   cost,
				Total:       cost,
				ItemType:    models.ItemTypeLabor,
			})
		}
		for _, r := range reqs {
			if r.WarehouseItem == nil {
				continue
			}
			lineTotal := float64(r.Quantity) * r.WarehouseItem.UnitPrice
			subtotal += lineTotal
			itemID := r.WarehouseItemID
			items = append(items, models.InvoiceItem{
				WarehouseItemID: &itemID,
				Description:     r.WarehouseItem.Name,
				Quantity:        r.Quantity,
				UnitPrice:       r.WarehouseItem.UnitPrice,
				Total:           lineTotal,
				ItemType:        models.ItemTypePart,
			})
		}
		if len(items) == 0 {
			return apperr.Conflict("nothing_to_invoice", "job %d has no billable items", jobID)
		}

		tax := subtotal * (taxRate / 100)
		inv = &models.Invoice{
			JobID:         jobID,
			InvoiceNumber: generateInvoiceNumber(),
			Subtotal:      subtotal,
			Tax:           tax,
			Total:         subtotal + tax,
		}
		if err := tx.Create(inv).Error; err != nil {
			return apperr.Internal(err)
		}
		for i := range items {
			items[i].InvoiceID = inv.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return apperr.Internal(err)
		}
		inv.Items = items

		job.InvoiceID = &inv.ID
		job.Status = models.JobInvoiced
		if err := tx.Save(job).Error; err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// Get loads one invoice with its items, garage-scoped via the job.
func (s *BillingService) Get(ctx context.Context, ident auth.Identity, invoiceID uint) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.WithContext(ctx).Preload("Items").
		Joins("JOIN jobs ON jobs.id = invoices.job_id").
		Where("invoices.id = ? AND jobs.garage_id = ?", invoiceID, ident.GarageID).
		First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("invoice_not_found", "invoice %d not found", invoiceID)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &inv, nil
}

// List returns the garage's invoices, newest first.
func (s *BillingService) List(ctx context.Context, ident auth.Identity) ([]models.Invoice, error) {
	var invs []models.Invoice
	err := s.db.WithContext(ctx).Preload("Items").
		Joins("JOIN jobs ON jobs.id = invoices.job_id").
		Where("jobs.garage_id = ?", ident.GarageID).
		Order("invoices.created_at desc").Find(&invs).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return invs, nil
}

// MarkPaid flips the one-way paid flag.
func (s *BillingService) MarkPaid(ctx context.Context, ident auth.Identity, invoiceID uint) (*models.Invoice, error) {
	inv, err := s.Get(ctx, ident, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Paid {
		return inv, nil
	}
	now := time.Now().UTC()
	inv.Paid = true
	inv.PaidAt = &now
	if err := s.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("id = ?", inv.ID).
		Updates(map[string]any{"paid": true, "paid_at": now}).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return inv, nil
}
