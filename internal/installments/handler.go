package installments

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"

	"github.com/daftar-erp/daftar/internal/platform/httpx"
	"github.com/daftar-erp/daftar/jobs"
)

// OverdueEnqueuer submits an overdue sweep to the job queue.
type OverdueEnqueuer interface {
	EnqueueOverdueScan(ctx context.Context, payload jobs.OverdueScanPayload) (*asynq.TaskInfo, error)
}

// Handler wires HTTP endpoints for installment contracts.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	queue     OverdueEnqueuer
	validator *validator.Validate
}

// NewHandler constructs a Handler instance. queue may be nil, in which
// case the overdue-scan trigger endpoint responds 503.
func NewHandler(logger *slog.Logger, service *Service, queue OverdueEnqueuer) *Handler {
	return &Handler{logger: logger, service: service, queue: queue, validator: validator.New()}
}

// MountRoutes registers contract routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Get("/{id}/schedule", h.schedule)
	r.Post("/{id}/payments", h.recordPayment)
	r.Post("/{id}/schedule/regenerate", h.regenerate)
	r.Post("/overdue-scan", h.triggerOverdueScan)
}

type contractRequest struct {
	CustomerName  string  `json:"customer_name" validate:"required"`
	TotalAmount   float64 `json:"total_amount" validate:"gt=0"`
	DownPayment   float64 `json:"down_payment" validate:"gte=0"`
	AnnualRatePct float64 `json:"annual_rate_pct" validate:"gte=0"`
	Installments  int     `json:"installments" validate:"gt=0"`
	StartDate     string  `json:"start_date" validate:"required"`
	Actor         string  `json:"actor" validate:"required"`
}

type actorRequest struct {
	Actor string `json:"actor" validate:"required"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	contracts, err := h.service.ListContracts(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"contracts": contracts})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req contractRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "start_date must be YYYY-MM-DD")
		return
	}
	contract, err := h.service.CreateContract(r.Context(), CreateContractInput{
		CustomerName:  req.CustomerName,
		TotalAmount:   req.TotalAmount,
		DownPayment:   req.DownPayment,
		AnnualRatePct: req.AnnualRatePct,
		Installments:  req.Installments,
		StartDate:     start,
		CreatedBy:     req.Actor,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, contract)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	contract, err := h.service.GetContract(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, contract)
}

func (h *Handler) schedule(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	contract, err := h.service.GetContract(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	next, hasNext := NextDue(contract.Schedule)
	payload := map[string]any{
		"schedule":      contract.Schedule,
		"has_overdue":   HasOverdue(contract.Schedule),
		"overdue":       Overdue(contract.Schedule),
		"total_overdue": TotalOverdue(contract.Schedule),
	}
	if hasNext {
		payload["next_due"] = next
	}
	httpx.JSON(w, http.StatusOK, payload)
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req actorRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	contract, err := h.service.RecordPayment(r.Context(), id, req.Actor)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, contract)
}

func (h *Handler) regenerate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req actorRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	contract, err := h.service.RegenerateSchedule(r.Context(), id, req.Actor)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, contract)
}

type overdueScanRequest struct {
	Cutoff string `json:"cutoff"`
}

func (h *Handler) triggerOverdueScan(w http.ResponseWriter, r *http.Request) {
	if h.queue == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Queue Unavailable", "background queue is not configured")
		return
	}
	var req overdueScanRequest
	if err := httpx.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	payload := jobs.OverdueScanPayload{}
	if req.Cutoff != "" {
		cutoff, err := time.Parse("2006-01-02", req.Cutoff)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "cutoff must be YYYY-MM-DD")
			return
		}
		payload.Cutoff = cutoff
	}
	info, err := h.queue.EnqueueOverdueScan(r.Context(), payload)
	if err != nil {
		h.logger.Error("enqueue overdue scan", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{"task_id": info.ID, "queue": info.Queue})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "id must be an integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrContractNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrNoInstallments), errors.Is(err, ErrNegativeFinanced):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Contract", err.Error())
	case errors.Is(err, ErrNothingDue), errors.Is(err, ErrContractClosed):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error("installments request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
