// Package server assembles the HTTP surface: handlers, the token
// middleware and the request logging wrapper.
package server

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/amos-netizen/MotoTrack/internal/auth"
	"github.com/amos-netizen/MotoTrack/internal/config"
	"github.com/amos-netizen/MotoTrack/internal/handlers"
	"github.com/amos-netizen/MotoTrack/internal/notify"
	"github.com/amos-netizen/MotoTrack/internal/services"
)

// App is the root HTTP handler with all routes configured.
type App struct {
	mux     *http.ServeMux
	db      *gorm.DB
	log     *logrus.Logger
	tokens  *auth.Service
	verify  auth.Verifier
	handler http.Handler
}

func NewApp(db *gorm.DB, cfg config.Config, log *logrus.Logger) *App {
	tokens := auth.NewService(cfg.JWTSecret, cfg.TokenTTL)

	jobs := services.NewJobService(db)
	parts := services.NewPartsService(db)
	tasks := services.NewTaskService(db)
	billing := services.NewBillingService(db)
	appointments := services.NewAppointmentService(db)

	ah := handlers.NewAuthHandler(db, tokens)
	jh := handlers.NewJobHandler(jobs)
	ph := handlers.NewPartsHandler(parts)
	th := handlers.NewTaskActionHandler(tasks)
	bh := handlers.NewBillingHandler(billing, cfg.DefaultTaxRate)
	wh := handlers.NewWarehouseHandler(db)
	gh := handlers.NewGarageHandler(db)
	aph := handlers.NewAppointmentHandler(appointments)

	app := &App{
		mux:    http.NewServeMux(),
		db:     db,
		log:    log,
		tokens: tokens,
		verify: ah.Verifier(),
	}
	app.setupRoutes(ah, jh, ph, th, bh, wh, gh, aph)
	app.handler = app.logRequests(app.recoverPanics(tokens.Middleware(app.verify)(app.mux)))
	return app
}

// Reminders builds the sweep task wired to the log notifier.
func (a *App) Reminders() *services.ReminderService {
	return services.NewReminderService(a.db, notify.NewLogNotifier(a.log))
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

func (a *App) setupRoutes(
	ah *handlers.AuthHandler,
	jh *handlers.JobHandler,
	ph *handlers.PartsHandler,
	th *handlers.TaskActionHandler,
	bh *handlers.BillingHandler,
	wh *handlers.WarehouseHandler,
	gh *handlers.GarageHandler,
	aph *handlers.AppointmentHandler,
) {
	// Public routes.
	a.mux.HandleFunc("GET /health", a.health)
	a.mux.HandleFunc("GET /healthz", a.health)
	a.mux.HandleFunc("POST /auth/signup", ah.Signup)
	a.mux.HandleFunc("POST /auth/login", ah.Login)

	requireAuth := func(h http.HandlerFunc) http.Handler {
		return auth.RequireAuth(h)
	}

	a.mux.Handle("GET /auth/me", requireAuth(ah.Me))
	a.mux.Handle("GET /users", requireAuth(ah.ListUsers))
	a.mux.Handle("POST /users", requireAuth(ah.CreateStaff))

	a.mux.Handle("POST /garages", requireAuth(gh.Create))
	a.mux.Handle("GET /garages", requireAuth(gh.List))
	a.mux.Handle("GET /garages/{id}", requireAuth(gh.Get))

	// Job lifecycle.
	a.mux.Handle("POST /jobs", requireAuth(jh.Create))
	a.mux.Handle("GET /jobs", requireAuth(jh.List))
	a.mux.Handle("GET /jobs/{id}", requireAuth(jh.Get))
	a.mux.Handle("PATCH /jobs/{id}", requireAuth(jh.Update))
	a.mux.Handle("POST /jobs/{id}/assign", requireAuth(jh.Assign))
	a.mux.Handle("POST /jobs/{id}/complete", requireAuth(jh.Complete))
	a.mux.Handle("POST /jobs/{id}/manager-review", requireAuth(jh.ManagerReview))
	a.mux.Handle("POST /jobs/{id}/move-to-billing", requireAuth(jh.MoveToBilling))
	a.mux.Handle("POST /jobs/{id}/cancel", requireAuth(jh.Cancel))

	// Task actions on jobs.
	a.mux.Handle("POST /jobs/{id}/tasks", requireAuth(th.AddToJob))
	a.mux.Handle("GET /jobs/{id}/tasks", requireAuth(th.ListForJob))
	a.mux.Handle("POST /jobs/{id}/tasks/{task_id}/complete", requireAuth(th.CompleteOnJob))

	// Task action catalog.
	a.mux.Handle("POST /task-actions", requireAuth(th.Create))
	a.mux.Handle("GET /task-actions", requireAuth(th.List))
	a.mux.Handle("PATCH /task-actions/{id}", requireAuth(th.Update))

	// Spare part requisitions.
	a.mux.Handle("POST /spare-parts/jobs/{id}/request", requireAuth(ph.CreateRequest))
	a.mux.Handle("GET /spare-parts/jobs/{id}", requireAuth(ph.ListForJob))
	a.mux.Handle("GET /spare-parts/pending", requireAuth(ph.ListPending))
	a.mux.Handle("POST /spare-parts/requests/{id}/approve", requireAuth(ph.Approve))
	a.mux.Handle("POST /spare-parts/requests/{id}/reject", requireAuth(ph.Reject))
	a.mux.Handle("POST /spare-parts/requests/{id}/issue", requireAuth(ph.Issue))
	a.mux.Handle("POST /spare-parts/requests/{id}/complete", requireAuth(ph.Complete))

	// Warehouse catalog.
	a.mux.Handle("POST /warehouse/items", requireAuth(wh.Create))
	a.mux.Handle("GET /warehouse/items", requireAuth(wh.List))
	a.mux.Handle("GET /warehouse/items/low-stock", requireAuth(wh.LowStock))
	a.mux.Handle("GET /warehouse/items/{id}", requireAuth(wh.Get))
	a.mux.Handle("PATCH /warehouse/items/{id}", requireAuth(wh.Update))

	// Billing.
	a.mux.Handle("POST /billing/jobs/{id}/invoice", requireAuth(bh.CreateInvoice))
	a.mux.Handle("POST /billing/jobs/{id}/auto-invoice", requireAuth(bh.AutoInvoice))
	a.mux.Handle("GET /billing/invoices", requireAuth(bh.List))
	a.mux.Handle("GET /billing/invoices/{id}", requireAuth(bh.Get))
	a.mux.Handle("POST /billing/invoices/{id}/mark-paid", requireAuth(bh.MarkPaid))

	// Appointments and reminders.
	a.mux.Handle("POST /appointments", requireAuth(aph.Create))
	a.mux.Handle("GET /appointments", requireAuth(aph.List))
	a.mux.Handle("GET /appointments/{id}", requireAuth(aph.Get))
	a.mux.Handle("PATCH /appointments/{id}", requireAuth(aph.Update))
	a.mux.Handle("GET /vehicles/{id}/next-service", requireAuth(aph.Recommend))
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := a.db.DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"degraded"}`))
		return
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (a *App) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		a.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Info("request")
	})
}

func (a *App) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				a.log.WithField("panic", rec).Error("handler panic")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"internal_error"}`))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
