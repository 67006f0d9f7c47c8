package analytics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fintrack/internal/analytics"
	"github.com/MrJamesThe3rd/fintrack/internal/http/middleware"
	"github.com/MrJamesThe3rd/fintrack/internal/http/request"
	"github.com/MrJamesThe3rd/fintrack/internal/http/respond"
	"github.com/MrJamesThe3rd/fintrack/internal/transaction"
)

type Handler struct {
	svc *analytics.Service
}

func NewHandler(svc *analytics.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/summary", h.summary)
}

type periodResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type categoryTotalResponse struct {
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total"`
}

type summaryResponse struct {
	Period             periodResponse          `json:"period"`
	TotalIncome        decimal.Decimal         `json:"total_income"`
	TotalExpenses      decimal.Decimal         `json:"total_expenses"`
	NetBalance         decimal.Decimal         `json:"net_balance"`
	ExpensesByCategory []categoryTotalResponse `json:"expenses_by_category"`
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	start, err := request.QueryTime(r, "start_date", false)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	end, err := request.QueryTime(r, "end_date", true)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	ids, err := transaction.ParseCategoryIDs(r.URL.Query().Get("category_id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	s, err := h.svc.Summarize(r.Context(), middleware.UserID(r), analytics.SummaryParams{
		Start:       start,
		End:         end,
		CategoryIDs: ids,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := summaryResponse{
		Period:             periodResponse{Start: s.Window.Start, End: s.Window.End},
		TotalIncome:        s.TotalIncome,
		TotalExpenses:      s.TotalExpenses,
		NetBalance:         s.NetBalance,
		ExpensesByCategory: make([]categoryTotalResponse, len(s.ExpensesByCategory)),
	}
	for i, c := range s.ExpensesByCategory {
		resp.ExpensesByCategory[i] = categoryTotalResponse{Name: c.Name, Total: c.Total}
	}

	respond.JSON(w, http.StatusOK, resp)
}
