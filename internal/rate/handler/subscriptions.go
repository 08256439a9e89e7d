package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"cbrates/internal/domain"

	"github.com/go-chi/chi/v5"
)

type SubscribeRequest struct {
	Currency string `json:"currency"`
	UserID   int64  `json:"user_id"`
}

type SubscribeResponse struct {
	Currency string `json:"currency"`
	UserID   int64  `json:"user_id"`
	Created  bool   `json:"created"`
}

// Subscribe registers a one-shot notification for the next published rate of
// a currency. Repeating an existing subscription is not an error, it just
// reports created=false.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 256)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req SubscribeRequest
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

	created := h.service.Subscribe(r.Context(), currency, req.UserID)

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, SubscribeResponse{
		Currency: string(currency),
		UserID:   req.UserID,
		Created:  created,
	})
}

type UnsubscribeResponse struct {
	Removed bool `json:"removed"`
}

func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	currency, err := domain.ParseCurrency(chi.URLParam(r, "currency"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	removed := h.service.Unsubscribe(r.Context(), currency, userID)
	if !removed {
		writeError(w, http.StatusNotFound, "subscription not found")
		return
	}
	writeJSON(w, http.StatusOK, UnsubscribeResponse{Removed: true})
}
