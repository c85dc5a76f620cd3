package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/obraflow/ledger-backend/internal/api/dto"
	"github.com/obraflow/ledger-backend/internal/application/service"
	"github.com/obraflow/ledger-backend/internal/infrastructure/storage"
)

// TransactionsHandler handles transaction listing, manual entry, deletion,
// and date re-adjustment.
type TransactionsHandler struct {
	Base
	transactions *service.Transactions
	deleter      *service.Deleter
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(transactions *service.Transactions, deleter *service.Deleter) *TransactionsHandler {
	return &TransactionsHandler{transactions: transactions, deleter: deleter}
}

// List handles GET /api/transactions.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := storage.TransactionFilters{
		VaultID: r.URL.Query().Get("vault_id"),
		Matched: ParseBoolParam(r, "matched"),
		Limit:   ParseIntParam(r, "limit", 50),
		Offset:  ParseIntParam(r, "offset", 0),
	}
	if deleted := ParseBoolParam(r, "include_deleted"); deleted != nil {
		filters.IncludeDeleted = *deleted
	}
	if start, ok := parseDateParam(r, "start"); ok {
		filters.Start = &start
	}
	if end, ok := parseDateParam(r, "end"); ok {
		filters.End = &end
	}

	transactions, err := h.transactions.List(r.Context(), filters)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}
	if transactions == nil {
		transactions = []storage.Transaction{}
	}

	h.WriteJSON(w, http.StatusOK, transactions)
}

// Create handles POST /api/transactions - manual entry.
func (h *TransactionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransactionRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	date, err := time.Parse(dto.DateLayout, req.Date)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("date must be YYYY-MM-DD"))
		return
	}

	tx, summary, err := h.transactions.Create(r.Context(), service.CreateTransactionInput{
		Direction:   storage.Direction(req.Direction),
		VaultID:     req.VaultID,
		Amount:      req.Amount,
		Date:        date,
		Description: req.Description,
		Category:    req.Category,
		PaymentKind: storage.PaymentKind(req.PaymentKind),
	})
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"transaction": tx,
		"summary":     summary,
	})
}

// Delete handles DELETE /api/transactions/{id} - soft-delete cascade plus
// recalculation, returning the updated summary.
func (h *TransactionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	summary, err := h.deleter.DeleteTransaction(r.Context(), id)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, summary)
}

// SetDate handles PUT /api/transactions/{id}/date - re-applies the
// business-day adjustment and persists both dates.
func (h *TransactionsHandler) SetDate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.SetDateRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	date, err := time.Parse(dto.DateLayout, req.Date)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("date must be YYYY-MM-DD"))
		return
	}

	tx, err := h.transactions.SetDate(r.Context(), id, date)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tx)
}

func parseDateParam(r *http.Request, name string) (time.Time, bool) {
	val := r.URL.Query().Get(name)
	if val == "" {
		return time.Time{}, false
	}
	parsed, err := time.Parse(dto.DateLayout, val)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}
