package transaction

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fintrack/internal/http/middleware"
	"github.com/MrJamesThe3rd/fintrack/internal/http/request"
	"github.com/MrJamesThe3rd/fintrack/internal/http/respond"
	"github.com/MrJamesThe3rd/fintrack/internal/optional"
	"github.com/MrJamesThe3rd/fintrack/internal/transaction"
)

type Handler struct {
	svc *transaction.Service
}

func NewHandler(svc *transaction.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	tx, err := h.svc.Create(r.Context(), middleware.UserID(r), req.Params())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, ToResponse(tx))
}

// ListFilter reads the filter query parameters shared by listing and export.
func ListFilter(r *http.Request) (transaction.ListFilter, error) {
	var filter transaction.ListFilter

	start, err := request.QueryTime(r, "start_date", false)
	if err != nil {
		return filter, err
	}

	end, err := request.QueryTime(r, "end_date", true)
	if err != nil {
		return filter, err
	}

	ids, err := transaction.ParseCategoryIDs(r.URL.Query().Get("category_id"))
	if err != nil {
		return filter, err
	}

	filter.StartDate = start
	filter.EndDate = end
	filter.CategoryIDs = ids

	if s := request.FirstQuery(r, "type_", "type"); s != "" {
		filter.Type = new(transaction.Type(s))
	}

	return filter, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, err := ListFilter(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	txs, err := h.svc.List(r.Context(), middleware.UserID(r), filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, ToResponseList(txs))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := request.IDParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	tx, err := h.svc.Get(r.Context(), middleware.UserID(r), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, ToResponse(tx))
}

type updateTransactionRequest struct {
	Amount            optional.Field[decimal.Decimal] `json:"amount"`
	Description       optional.Field[string]          `json:"description"`
	Date              optional.Field[request.Date]    `json:"date"`
	CategoryID        optional.Field[int64]           `json:"category_id"`
	Type              optional.Field[string]          `json:"type"`
	IsRecurring       optional.Field[bool]            `json:"is_recurring"`
	RecurrencePattern optional.Field[string]          `json:"recurrence_pattern"`
}

func (req updateTransactionRequest) params() transaction.UpdateParams {
	return transaction.UpdateParams{
		Amount:      req.Amount,
		Description: req.Description,
		Date: optional.Map(req.Date, func(d request.Date) time.Time {
			return d.Time
		}),
		CategoryID: req.CategoryID,
		Type: optional.Map(req.Type, func(s string) transaction.Type {
			return transaction.Type(s)
		}),
		IsRecurring:       req.IsRecurring,
		RecurrencePattern: req.RecurrencePattern,
	}
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := request.IDParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req updateTransactionRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	tx, err := h.svc.Update(r.Context(), middleware.UserID(r), id, req.params())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, ToResponse(tx))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.IDParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.svc.Delete(r.Context(), middleware.UserID(r), id); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
