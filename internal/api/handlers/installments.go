package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/obraflow/ledger-backend/internal/api/dto"
	"github.com/obraflow/ledger-backend/internal/application/service"
	"github.com/obraflow/ledger-backend/internal/domain/installment"
)

// InstallmentsHandler handles pure schedule generation and the persisted
// receivables flow.
type InstallmentsHandler struct {
	Base
	receivables *service.Receivables
}

// NewInstallmentsHandler creates a new installments handler.
func NewInstallmentsHandler(receivables *service.Receivables) *InstallmentsHandler {
	return &InstallmentsHandler{receivables: receivables}
}

// Generate handles POST /api/installments/generate - schedule generation
// without persistence, for previews and external consumers.
func (h *InstallmentsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req dto.GenerateInstallmentsRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	cfg, ok := h.toConfig(w, req)
	if !ok {
		return
	}

	installments, err := installment.Generate(cfg)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError(err.Error()))
		return
	}

	h.WriteJSON(w, http.StatusOK, installments)
}

// CreateSchedule handles POST /api/receivables - generates and persists a
// schedule.
func (h *InstallmentsHandler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateScheduleRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	cfg, ok := h.toConfig(w, req.GenerateInstallmentsRequest)
	if !ok {
		return
	}

	saved, err := h.receivables.CreateSchedule(r.Context(), service.ScheduleInput{
		ClientName:     req.ClientName,
		Total:          cfg.Total,
		Count:          cfg.Count,
		FirstDueDate:   cfg.FirstDueDate,
		Periodicity:    cfg.Periodicity,
		AdjustWeekends: cfg.AdjustWeekends,
		EndOfMonth:     cfg.EndOfMonth,
	})
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, saved)
}

// ListSchedule handles GET /api/receivables/{scheduleID}.
func (h *InstallmentsHandler) ListSchedule(w http.ResponseWriter, r *http.Request) {
	scheduleID := chi.URLParam(r, "scheduleID")

	installments, err := h.receivables.ListSchedule(r.Context(), scheduleID)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}
	if len(installments) == 0 {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("schedule "+scheduleID))
		return
	}

	h.WriteJSON(w, http.StatusOK, installments)
}

// Receive handles POST /api/receivables/{id}/receive - marks an installment
// received, creating its ledger transaction.
func (h *InstallmentsHandler) Receive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("installment id must be an integer"))
		return
	}

	var req dto.ReceiveInstallmentRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	inst, summary, err := h.receivables.MarkReceived(r.Context(), id, req.VaultID)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"installment": inst,
		"summary":     summary,
	})
}

func (h *InstallmentsHandler) toConfig(w http.ResponseWriter, req dto.GenerateInstallmentsRequest) (installment.Config, bool) {
	firstDue, err := time.Parse(dto.DateLayout, req.FirstDueDate)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("first_due_date must be YYYY-MM-DD"))
		return installment.Config{}, false
	}
	return installment.Config{
		Total:          req.Total,
		Count:          req.Count,
		FirstDueDate:   firstDue,
		Periodicity:    installment.Periodicity(req.Periodicity),
		AdjustWeekends: req.AdjustWeekends,
		EndOfMonth:     req.EndOfMonth,
	}, true
}
