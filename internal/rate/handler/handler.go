package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"cbrates/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RateService interface {
	GetRate(ctx context.Context, currency domain.Currency, date time.Time) (decimal.Decimal, domain.BusinessDate, error)
	QueueCalculation(ctx context.Context, userID int64, currency domain.Currency, date time.Time, amount, commissionPct decimal.Decimal) (uuid.UUID, domain.BusinessDate, error)
	CancelCalculation(ctx context.Context, id uuid.UUID) bool
	Subscribe(ctx context.Context, currency domain.Currency, userID int64) bool
	Unsubscribe(ctx context.Context, currency domain.Currency, userID int64) bool
}

type Handler struct {
	service RateService
}

func NewRateHandler(service RateService) *Handler {
	return &Handler{service: service}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, statusCode int, errorMsg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error: errorMsg,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
