package budget

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fintrack/internal/budget"
	"github.com/MrJamesThe3rd/fintrack/internal/errs"
	"github.com/MrJamesThe3rd/fintrack/internal/http/middleware"
	"github.com/MrJamesThe3rd/fintrack/internal/http/request"
	"github.com/MrJamesThe3rd/fintrack/internal/http/respond"
)

type Handler struct {
	svc *budget.Service
}

func NewHandler(svc *budget.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
}

type createBudgetRequest struct {
	CategoryID   *int64          `json:"category_id"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	StartDate    request.Date    `json:"start_date"`
	EndDate      request.Date    `json:"end_date"`
	Name         *string         `json:"name"`
}

type budgetResponse struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	CategoryID    *int64          `json:"category_id"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       time.Time       `json:"end_date"`
	Name          *string         `json:"name"`
	IsActive      bool            `json:"is_active"`
}

func toResponse(b *budget.Budget) budgetResponse {
	return budgetResponse{
		ID:            b.ID,
		UserID:        b.UserID,
		CategoryID:    b.CategoryID,
		TargetAmount:  b.TargetAmount,
		CurrentAmount: b.CurrentAmount,
		StartDate:     b.StartDate,
		EndDate:       b.EndDate,
		Name:          b.Name,
		IsActive:      b.IsActive,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createBudgetRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	b, err := h.svc.Create(r.Context(), middleware.UserID(r), budget.CreateParams{
		CategoryID:   req.CategoryID,
		TargetAmount: req.TargetAmount,
		StartDate:    req.StartDate.Time,
		EndDate:      req.EndDate.Time,
		Name:         req.Name,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toResponse(b))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	activeOnly := true

	if s := r.URL.Query().Get("active_only"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			respond.Error(w, r, errs.Invalid("active_only must be a boolean, got %q", s))
			return
		}

		activeOnly = v
	}

	budgets, err := h.svc.List(r.Context(), middleware.UserID(r), activeOnly)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]budgetResponse, len(budgets))
	for i, b := range budgets {
		resp[i] = toResponse(b)
	}

	respond.JSON(w, http.StatusOK, resp)
}
