package api

import (
	"cbrates/internal/rate/handler"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(rateHandler *handler.Handler) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(middleware.Heartbeat("/healthz"))

	router.Get("/api/v1/rates/supported-currencies", rateHandler.GetSupportedCurrencies)
	router.Get("/api/v1/rates/{currency:[A-Za-z]{3}}", rateHandler.GetRate)

	router.Post("/api/v1/subscriptions", rateHandler.Subscribe)
	router.Delete("/api/v1/subscriptions/{currency:[A-Za-z]{3}}/{userID:[0-9]+}", rateHandler.Unsubscribe)

	router.Post("/api/v1/calculations", rateHandler.QueueCalculation)
	router.Delete("/api/v1/calculations/{id}", rateHandler.CancelCalculation)
	return router
}
