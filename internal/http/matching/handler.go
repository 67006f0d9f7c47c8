package matching

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/fintrack/internal/errs"
	"github.com/MrJamesThe3rd/fintrack/internal/http/middleware"
	"github.com/MrJamesThe3rd/fintrack/internal/http/request"
	"github.com/MrJamesThe3rd/fintrack/internal/http/respond"
	"github.com/MrJamesThe3rd/fintrack/internal/matching"
)

type Handler struct {
	svc *matching.Service
}

func NewHandler(svc *matching.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/suggest", h.suggest)
	r.Post("/", h.learn)
}

type suggestResponse struct {
	Description string `json:"description"`
	CategoryID  *int64 `json:"category_id"`
}

func (h *Handler) suggest(w http.ResponseWriter, r *http.Request) {
	desc := r.URL.Query().Get("description")
	if desc == "" {
		respond.Error(w, r, errs.Invalid("description query parameter is required"))
		return
	}

	categoryID, ok, err := h.svc.Suggest(r.Context(), middleware.UserID(r), desc)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := suggestResponse{Description: desc}
	if ok {
		resp.CategoryID = &categoryID
	}

	respond.JSON(w, http.StatusOK, resp)
}

type learnRequest struct {
	Pattern    string `json:"pattern"`
	CategoryID int64  `json:"category_id"`
}

type ruleResponse struct {
	ID         int64     `json:"id"`
	Pattern    string    `json:"pattern"`
	CategoryID int64     `json:"category_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func (h *Handler) learn(w http.ResponseWriter, r *http.Request) {
	var req learnRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	rule, err := h.svc.Learn(r.Context(), middleware.UserID(r), req.Pattern, req.CategoryID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, ruleResponse{
		ID:         rule.ID,
		Pattern:    rule.Pattern,
		CategoryID: rule.CategoryID,
		CreatedAt:  rule.CreatedAt,
	})
}
