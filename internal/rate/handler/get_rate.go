package handler

import (
	"errors"
	"net/http"
	"time"

	"cbrates/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type GetRateResponse struct {
	Currency string          `json:"currency"`
	Date     string          `json:"date"`
	Value    decimal.Decimal `json:"value"`
}

// GetRate returns the per-unit rate for a currency on a date. The date query
// parameter is optional and defaults to today; weekends resolve to the
// preceding Friday, which is the date echoed back.
func (h *Handler) GetRate(w http.ResponseWriter, r *http.Request) {
	currency, err := domain.ParseCurrency(chi.URLParam(r, "currency"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	date := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		date, err = time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
	}

	value, busDate, err := h.service.GetRate(r.Context(), currency, date)
	if err != nil {
		if errors.Is(err, domain.ErrRateNotFound) {
			writeError(w, http.StatusNotFound, "rate not published yet")
			return
		}
		msg := "ups, couldn't get rate this time"
		logrus.WithError(err).WithFields(logrus.Fields{"handler": "GetRate", "currency": currency}).Error(msg)
		writeError(w, http.StatusInternalServerError, msg)
		return
	}

	writeJSON(w, http.StatusOK, GetRateResponse{
		Currency: string(currency),
		Date:     busDate.String(),
		Value:    value,
	})
}

type SupportedCurrenciesResponse struct {
	Currencies []string `json:"currencies"`
}

func (h *Handler) GetSupportedCurrencies(w http.ResponseWriter, _ *http.Request) {
	currencies := make([]string, 0, len(domain.SupportedCurrencies))
	for _, currency := range domain.SupportedCurrencies {
		currencies = append(currencies, string(currency))
	}
	writeJSON(w, http.StatusOK, SupportedCurrenciesResponse{Currencies: currencies})
}
