package ledger

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/daftar-erp/daftar/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the ledger module.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	reports   *ReportService
	formatter *AmountFormatter
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, reports *ReportService, formatter *AmountFormatter) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		reports:   reports,
		formatter: formatter,
		validator: validator.New(),
	}
}

// MountRoutes registers ledger routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/accounts", h.listAccounts)
	r.Post("/accounts", h.createAccount)
	r.Delete("/accounts/{id}", h.deleteAccount)
	r.Get("/journals", h.listEntries)
	r.Post("/journals", h.createEntry)
	r.Get("/journals/{id}", h.getEntry)
	r.Put("/journals/{id}/lines", h.replaceLines)
	r.Post("/journals/{id}/approve", h.approveEntry)
	r.Post("/journals/{id}/post", h.postEntry)
	r.Post("/journals/{id}/cancel", h.cancelEntry)
	r.Get("/reports/trial-balance", h.trialBalance)
}

type accountRequest struct {
	Code     string `json:"code" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Type     string `json:"type" validate:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	Nature   string `json:"nature" validate:"omitempty,oneof=DEBIT CREDIT"`
	Postable bool   `json:"postable"`
	ParentID *int64 `json:"parent_id"`
}

type lineRequest struct {
	AccountID   int64   `json:"account_id" validate:"required"`
	Debit       float64 `json:"debit" validate:"gte=0"`
	Credit      float64 `json:"credit" validate:"gte=0"`
	Memo        string  `json:"memo"`
	CheckNumber string  `json:"check_number"`
	BankRef     string  `json:"bank_ref"`
}

type entryRequest struct {
	Date         string        `json:"date" validate:"required"`
	Description  string        `json:"description"`
	Currency     string        `json:"currency"`
	ExchangeRate float64       `json:"exchange_rate"`
	Actor        string        `json:"actor" validate:"required"`
	Lines        []lineRequest `json:"lines" validate:"required,min=2,dive"`
}

type actorRequest struct {
	Actor string `json:"actor" validate:"required"`
}

type linesRequest struct {
	Actor string        `json:"actor" validate:"required"`
	Lines []lineRequest `json:"lines" validate:"required,min=2,dive"`
}

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.ListAccounts(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	account, err := h.service.CreateAccount(r.Context(), AccountInput{
		Code:     req.Code,
		Name:     req.Name,
		Type:     AccountType(req.Type),
		Nature:   AccountNature(req.Nature),
		Postable: req.Postable,
		ParentID: req.ParentID,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, account)
}

func (h *Handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteAccount(r.Context(), id, r.Header.Get("X-Actor")); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListEntries(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"journal_entries": entries})
}

func (h *Handler) getEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	entry, err := h.service.GetEntry(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) createEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "date must be YYYY-MM-DD")
		return
	}
	entry, err := h.service.CreateEntry(r.Context(), CreateEntryInput{
		Date:         date,
		Description:  req.Description,
		Currency:     req.Currency,
		ExchangeRate: req.ExchangeRate,
		CreatedBy:    req.Actor,
		Lines:        toLineInputs(req.Lines),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) replaceLines(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req linesRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	entry, err := h.service.ReplaceLines(r.Context(), id, toLineInputs(req.Lines), req.Actor)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) approveEntry(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.ApproveEntry)
}

func (h *Handler) postEntry(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, id int64, actor string) (JournalEntry, error) {
		entry, err := h.service.PostEntry(ctx, id, actor)
		if err == nil && h.reports != nil {
			h.reports.Invalidate(ctx)
		}
		return entry, err
	})
}

func (h *Handler) cancelEntry(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.CancelEntry)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, int64, string) (JournalEntry, error)) {
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
	entry, err := fn(r.Context(), id, req.Actor)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) trialBalance(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.TrialBalance(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	type displayRow struct {
		TrialBalanceRow
		DebitDisplay   string `json:"debit_display"`
		CreditDisplay  string `json:"credit_display"`
		BalanceDisplay string `json:"balance_display"`
	}
	rows := make([]displayRow, 0, len(report.Rows))
	for _, row := range report.Rows {
		rows = append(rows, displayRow{
			TrialBalanceRow: row,
			DebitDisplay:    h.formatter.Format(row.TotalDebit),
			CreditDisplay:   h.formatter.Format(row.TotalCredit),
			BalanceDisplay:  h.formatter.Format(row.Balance),
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"as_of":        report.AsOf,
		"rows":         rows,
		"total_debit":  report.TotalDebit,
		"total_credit": report.TotalCredit,
	})
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
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		httpx.JSON(w, http.StatusUnprocessableEntity, map[string]any{
			"title":      "Validation Failed",
			"status":     http.StatusUnprocessableEntity,
			"violations": validationErr.Violations,
		})
	case IsNotFound(err):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrEntryPosted),
		errors.Is(err, ErrAccountHasChildren), errors.Is(err, ErrAccountHasPostings):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrDuplicateCode):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrAccountNotPostable):
		httpx.Problem(w, http.StatusBadRequest, "Not Postable", err.Error())
	default:
		h.logger.Error("ledger request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func toLineInputs(reqs []lineRequest) []LineInput {
	lines := make([]LineInput, 0, len(reqs))
	for _, l := range reqs {
		lines = append(lines, LineInput{
			AccountID:   l.AccountID,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Memo:        l.Memo,
			CheckNumber: l.CheckNumber,
			BankRef:     l.BankRef,
		})
	}
	return lines
}
