package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"cbrates/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type QueueCalculationRequest struct {
	UserID        int64           `json:"user_id"`
	Currency      string          `json:"currency"`
	Date          string          `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	CommissionPct decimal.Decimal `json:"commission_pct"`
}

type QueueCalculationResponse struct {
	ID         string `json:"id"`
	TargetDate string `json:"target_date"`
}

// QueueCalculation stores a calculation to be delivered once the rate for its
// target date is published.
func (h *Handler) QueueCalculation(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 512)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req QueueCalculationRequest
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	currency, err := domain.ParseCurrency(req.Currency)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID <= 0 {
		writeError(w, http.StatusBadRequest, "user_id must be positive")
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	if !req.Amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}
	if req.CommissionPct.IsNegative() {
		writeError(w, http.StatusBadRequest, "commission_pct must not be negative")
		return
	}

	id, targetDate, err := h.service.QueueCalculation(r.Context(), req.UserID, currency, date, req.Amount, req.CommissionPct)
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "calculation store unavailable, try again later")
			return
		}
		msg := "ups, couldn't queue calculation this time"
		logrus.WithError(err).WithFields(logrus.Fields{"handler": "QueueCalculation", "currency": currency, "user_id": req.UserID}).Error(msg)
		writeError(w, http.StatusInternalServerError, msg)
		return
	}

	writeJSON(w, http.StatusAccepted, QueueCalculationResponse{
		ID:         id.String(),
		TargetDate: targetDate.String(),
	})
}

type CancelCalculationResponse struct {
	Removed bool `json:"removed"`
}

func (h *Handler) CancelCalculation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid calculation ID format")
		return
	}

	removed := h.service.CancelCalculation(r.Context(), id)
	if !removed {
		writeError(w, http.StatusNotFound, "calculation not found")
		return
	}
	writeJSON(w, http.StatusOK, CancelCalculationResponse{Removed: true})
}
