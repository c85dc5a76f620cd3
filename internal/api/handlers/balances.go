package handlers

import (
	"net/http"
	"time"

	"github.com/obraflow/ledger-backend/internal/api/dto"
	"github.com/obraflow/ledger-backend/internal/application/service"
)

// BalancesHandler exposes the full-history balance recalculation.
type BalancesHandler struct {
	Base
	ledger *service.Ledger
}

// NewBalancesHandler creates a new balances handler.
func NewBalancesHandler(ledger *service.Ledger) *BalancesHandler {
	return &BalancesHandler{ledger: ledger}
}

// Summary handles GET /api/balances. Optional start/end query params scope
// the summary to a period; scoped runs never persist vault balances.
func (h *BalancesHandler) Summary(w http.ResponseWriter, r *http.Request) {
	var start, end *time.Time
	if s, ok := parseDateParam(r, "start"); ok {
		start = &s
	}
	if e, ok := parseDateParam(r, "end"); ok {
		end = &e
	}
	if start != nil && end != nil && end.Before(*start) {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("end must not precede start"))
		return
	}

	summary, err := h.ledger.RecalculateAll(r.Context(), start, end)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, summary)
}
