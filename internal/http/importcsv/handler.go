package importcsv

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/fintrack/internal/errs"
	"github.com/MrJamesThe3rd/fintrack/internal/http/middleware"
	"github.com/MrJamesThe3rd/fintrack/internal/http/request"
	"github.com/MrJamesThe3rd/fintrack/internal/http/respond"
	httptx "github.com/MrJamesThe3rd/fintrack/internal/http/transaction"
	"github.com/MrJamesThe3rd/fintrack/internal/importer"
	"github.com/MrJamesThe3rd/fintrack/internal/matching"
	"github.com/MrJamesThe3rd/fintrack/internal/transaction"
)

const maxUploadBytes = 10 << 20

type Handler struct {
	importSvc *importer.Service
	txSvc     *transaction.Service
	matchSvc  *matching.Service
}

func NewHandler(importSvc *importer.Service, txSvc *transaction.Service, matchSvc *matching.Service) *Handler {
	return &Handler{
		importSvc: importSvc,
		txSvc:     txSvc,
		matchSvc:  matchSvc,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/import", h.importCSV)
	r.Post("/import/confirm", h.confirmImport)
}

type importSuccessResponse struct {
	Imported     int               `json:"imported"`
	Format       importer.Format   `json:"format,omitempty"`
	Charset      string            `json:"charset,omitempty"`
	Transactions []httptx.Response `json:"transactions"`
}

type conflictDTO struct {
	Incoming httptx.CreateRequest `json:"incoming"`
	Existing httptx.Response      `json:"existing"`
}

type importConflictResponse struct {
	New       []httptx.CreateRequest `json:"new"`
	Conflicts []conflictDTO          `json:"conflicts"`
}

type confirmRequest struct {
	Transactions []httptx.CreateRequest `json:"transactions"`
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respond.Error(w, r, errs.Invalid("failed to parse form: %v", err))
		return
	}

	var defaultCategory int64

	if s := r.FormValue("category_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 {
			respond.Error(w, r, errs.Invalid("category_id %q is not a valid id", s))
			return
		}

		defaultCategory = id
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respond.Error(w, r, errs.Invalid("file field is required"))
		return
	}
	defer file.Close()

	result, err := h.importSvc.Import(importer.Format(r.FormValue("format")), file)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	userID := middleware.UserID(r)
	params := result.Rows

	for i, p := range params {
		if p.CategoryID != 0 {
			continue
		}

		if p.Description != nil {
			suggested, ok, err := h.matchSvc.Suggest(r.Context(), userID, *p.Description)
			if err != nil {
				slog.Error("failed to suggest category", "error", err)
			} else if ok {
				params[i].CategoryID = suggested
				continue
			}
		}

		if defaultCategory == 0 {
			respond.Error(w, r, errs.Invalid("row %d has no category and no default category_id was given", i+1))
			return
		}

		params[i].CategoryID = defaultCategory
	}

	batch, err := h.txSvc.ImportBatch(r.Context(), userID, params)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if len(batch.Conflicts) > 0 {
		resp := importConflictResponse{
			New:       make([]httptx.CreateRequest, 0, len(batch.New)),
			Conflicts: make([]conflictDTO, 0, len(batch.Conflicts)),
		}
		for _, p := range batch.New {
			resp.New = append(resp.New, httptx.FromParams(p))
		}

		for _, c := range batch.Conflicts {
			resp.Conflicts = append(resp.Conflicts, conflictDTO{
				Incoming: httptx.FromParams(c.Incoming),
				Existing: httptx.ToResponse(c.Existing),
			})
		}

		respond.JSON(w, http.StatusConflict, resp)

		return
	}

	respond.JSON(w, http.StatusCreated, importSuccessResponse{
		Imported:     len(batch.Imported),
		Format:       result.Format,
		Charset:      result.Charset,
		Transactions: httptx.ToResponseList(batch.Imported),
	})
}

func (h *Handler) confirmImport(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	if len(req.Transactions) == 0 {
		respond.Error(w, r, errs.Invalid("transactions must not be empty"))
		return
	}

	params := make([]transaction.CreateParams, 0, len(req.Transactions))
	for _, p := range req.Transactions {
		params = append(params, p.Params())
	}

	txs, err := h.txSvc.CreateBatch(r.Context(), middleware.UserID(r), params)
	if err != nil {
		respond.Error(w, r, fmt.Errorf("confirm import: %w", err))
		return
	}

	respond.JSON(w, http.StatusCreated, importSuccessResponse{
		Imported:     len(txs),
		Transactions: httptx.ToResponseList(txs),
	})
}
