package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/obraflow/ledger-backend/internal/api/dto"
	"github.com/obraflow/ledger-backend/internal/infrastructure/storage"
)

// HolidaysHandler manages the holiday registry backing the business-day
// calendar.
type HolidaysHandler struct {
	Base
	repo storage.HolidayRepository
}

// NewHolidaysHandler creates a new holidays handler.
func NewHolidaysHandler(repo storage.HolidayRepository) *HolidaysHandler {
	return &HolidaysHandler{repo: repo}
}

// List handles GET /api/holidays.
func (h *HolidaysHandler) List(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.repo.ListHolidays(r.Context())
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}
	if holidays == nil {
		holidays = []storage.Holiday{}
	}

	h.WriteJSON(w, http.StatusOK, holidays)
}

// Create handles POST /api/holidays.
func (h *HolidaysHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateHolidayRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	date, err := time.Parse(dto.DateLayout, req.Date)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("date must be YYYY-MM-DD"))
		return
	}

	holiday := &storage.Holiday{
		Date:      date,
		Label:     req.Label,
		Recurring: req.Recurring,
	}
	if err := h.repo.InsertHoliday(r.Context(), holiday); err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusCreated, holiday)
}

// Delete handles DELETE /api/holidays/{id}.
func (h *HolidaysHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("holiday id must be an integer"))
		return
	}

	if err := h.repo.DeleteHoliday(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.WriteError(w, http.StatusNotFound, dto.NotFoundError("holiday not found"))
			return
		}
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "holiday deleted"})
}
