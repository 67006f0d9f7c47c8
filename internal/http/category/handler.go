package category

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/fintrack/internal/category"
	"github.com/MrJamesThe3rd/fintrack/internal/http/middleware"
	"github.com/MrJamesThe3rd/fintrack/internal/http/request"
	"github.com/MrJamesThe3rd/fintrack/internal/http/respond"
)

type Handler struct {
	svc *category.Service
}

func NewHandler(svc *category.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Delete("/{id}", h.delete)
}

type createCategoryRequest struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	IsPredefined bool   `json:"is_predefined"`
}

type categoryResponse struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name"`
	Type         category.Type `json:"type"`
	IsPredefined bool          `json:"is_predefined"`
	UserID       *int64        `json:"user_id"`
}

func toResponse(c *category.Category) categoryResponse {
	return categoryResponse{
		ID:           c.ID,
		Name:         c.Name,
		Type:         c.Type,
		IsPredefined: c.IsPredefined,
		UserID:       c.UserID,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	c, err := h.svc.Create(r.Context(), middleware.UserID(r), category.CreateParams{
		Name:         req.Name,
		Type:         category.Type(req.Type),
		IsPredefined: req.IsPredefined,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toResponse(c))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var typ *category.Type
	if s := request.FirstQuery(r, "type_", "type"); s != "" {
		typ = new(category.Type(s))
	}

	categories, err := h.svc.List(r.Context(), middleware.UserID(r), typ)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]categoryResponse, len(categories))
	for i, c := range categories {
		resp[i] = toResponse(c)
	}

	respond.JSON(w, http.StatusOK, resp)
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
