package handlers

import (
	"net/http"
	"time"

	"github.com/obraflow/ledger-backend/internal/api/dto"
	"github.com/obraflow/ledger-backend/internal/application/service"
)

// ReconcileHandler handles the reconcile state machine endpoint.
type ReconcileHandler struct {
	Base
	reconciler *service.Reconciler
}

// NewReconcileHandler creates a new reconcile handler.
func NewReconcileHandler(reconciler *service.Reconciler) *ReconcileHandler {
	return &ReconcileHandler{reconciler: reconciler}
}

// Reconcile handles POST /api/reconcile.
func (h *ReconcileHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req dto.ReconcileRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	svcReq := service.ReconcileRequest{
		StatementLineID: req.StatementLineID,
		Action:          service.Action(req.Action),
		TransactionID:   req.TransactionID,
	}

	if req.NewTransaction != nil {
		input := service.NewTransactionInput{
			VaultID:     req.NewTransaction.VaultID,
			Description: req.NewTransaction.Description,
			Category:    req.NewTransaction.Category,
			Amount:      req.NewTransaction.Amount,
		}
		if req.NewTransaction.Date != "" {
			date, err := time.Parse(dto.DateLayout, req.NewTransaction.Date)
			if err != nil {
				h.WriteError(w, http.StatusBadRequest, dto.ValidationError("new_transaction.date must be YYYY-MM-DD"))
				return
			}
			input.Date = &date
		}
		svcReq.NewTransaction = &input
	}

	result, err := h.reconciler.Reconcile(r.Context(), svcReq)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}
