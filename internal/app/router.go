package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/daftar-erp/daftar/internal/attendance"
	"github.com/daftar-erp/daftar/internal/installments"
	"github.com/daftar-erp/daftar/internal/ledger"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	LedgerHandler      *ledger.Handler
	InstallmentHandler *installments.Handler
	AttendanceHandler  *attendance.Handler
}

// NewRouter constructs the chi.Router with Daftar defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.LedgerHandler != nil {
		r.Route("/api/ledger", params.LedgerHandler.MountRoutes)
	}
	if params.InstallmentHandler != nil {
		r.Route("/api/contracts", params.InstallmentHandler.MountRoutes)
	}
	if params.AttendanceHandler != nil {
		r.Route("/api", params.AttendanceHandler.MountRoutes)
	}

	return r
}
