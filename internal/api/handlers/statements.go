package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/obraflow/ledger-backend/internal/api/dto"
	"github.com/obraflow/ledger-backend/internal/application/service"
	"github.com/obraflow/ledger-backend/internal/infrastructure/storage"
)

// StatementsHandler handles statement import, listing, deletion, and match
// suggestions.
type StatementsHandler struct {
	Base
	repo       storage.StatementRepository
	importer   *service.Importer
	reconciler *service.Reconciler
	deleter    *service.Deleter
}

// NewStatementsHandler creates a new statements handler.
func NewStatementsHandler(repo storage.StatementRepository, importer *service.Importer, reconciler *service.Reconciler, deleter *service.Deleter) *StatementsHandler {
	return &StatementsHandler{repo: repo, importer: importer, reconciler: reconciler, deleter: deleter}
}

// Import handles POST /api/statements/import - multipart upload of one
// statement file.
func (h *StatementsHandler) Import(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("multipart field 'file' is required"))
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("failed to read uploaded file"))
		return
	}

	result, err := h.importer.ImportStatement(r.Context(), data, header.Filename)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

// List handles GET /api/statements.
func (h *StatementsHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := storage.StatementFilters{
		Matched:    ParseBoolParam(r, "matched"),
		SourceFile: r.URL.Query().Get("source_file"),
		Limit:      ParseIntParam(r, "limit", 50),
		Offset:     ParseIntParam(r, "offset", 0),
	}
	if deleted := ParseBoolParam(r, "include_deleted"); deleted != nil {
		filters.IncludeDeleted = *deleted
	}

	lines, err := h.repo.ListStatementLines(r.Context(), filters)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}
	if lines == nil {
		lines = []storage.StatementLine{}
	}

	h.WriteJSON(w, http.StatusOK, lines)
}

// Delete handles DELETE /api/statements/{id} - soft-delete cascade plus
// recalculation, returning the updated summary.
func (h *StatementsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	summary, err := h.deleter.DeleteStatementLine(r.Context(), id)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, summary)
}

// Suggestions handles GET /api/statements/{id}/suggestions.
func (h *StatementsHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	limit := ParseIntParam(r, "limit", 10)

	candidates, err := h.reconciler.Suggestions(r.Context(), id, limit)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, candidates)
}
