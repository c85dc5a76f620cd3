package handlers

import (
	"net/http"
	"time"

	"github.com/obraflow/ledger-backend/internal/api/dto"
	"github.com/obraflow/ledger-backend/internal/application/service"
	"github.com/obraflow/ledger-backend/internal/infrastructure/storage"
)

// PayrollHandler exposes the business-day date resolution used for payment
// scheduling.
type PayrollHandler struct {
	Base
	transactions *service.Transactions
}

// NewPayrollHandler creates a new payroll handler.
func NewPayrollHandler(transactions *service.Transactions) *PayrollHandler {
	return &PayrollHandler{transactions: transactions}
}

// ResolveDate handles POST /api/payroll/resolve-date.
func (h *PayrollHandler) ResolveDate(w http.ResponseWriter, r *http.Request) {
	var req dto.ResolveDateRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	nominal, err := time.Parse(dto.DateLayout, req.Date)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("date must be YYYY-MM-DD"))
		return
	}

	kind := storage.PaymentKind(req.PaymentKind)
	if kind == "" {
		kind = storage.PaymentKindGeneral
	}

	resolved, err := h.transactions.ResolvePayrollDate(r.Context(), nominal, kind)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.ResolveDateResponse{
		Nominal:  nominal.Format(dto.DateLayout),
		Resolved: resolved.Format(dto.DateLayout),
		Shifted:  !resolved.Equal(nominal),
	})
}
