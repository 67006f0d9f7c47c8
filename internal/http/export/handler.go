package export

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/fintrack/internal/export"
	"github.com/MrJamesThe3rd/fintrack/internal/http/middleware"
	"github.com/MrJamesThe3rd/fintrack/internal/http/respond"
	httptx "github.com/MrJamesThe3rd/fintrack/internal/http/transaction"
)

type Handler struct {
	svc *export.Service
	now func() time.Time
}

func NewHandler(svc *export.Service) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/export", h.download)
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	filter, err := httptx.ListFilter(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	// Buffered so a failed query still gets a proper error status.
	var buf bytes.Buffer
	if err := h.svc.WriteCSV(r.Context(), middleware.UserID(r), filter, &buf); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(h.now())))

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to write export", "error", err)
	}
}
