package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Portfolio
	api.HandleFunc("/users/{telegram_id}/portfolio", handler.GetPortfolio).Methods("GET")
	api.HandleFunc("/users/{telegram_id}/portfolio", handler.AddPosition).Methods("POST")
	api.HandleFunc("/users/{telegram_id}/portfolio", handler.ClearPortfolio).Methods("DELETE")
	api.HandleFunc("/users/{telegram_id}/portfolio/{symbol}", handler.RemovePosition).Methods("DELETE")

	// Watchlist
	api.HandleFunc("/users/{telegram_id}/watchlist", handler.GetWatchlist).Methods("GET")
	api.HandleFunc("/users/{telegram_id}/watchlist", handler.AddWatch).Methods("POST")
	api.HandleFunc("/users/{telegram_id}/watchlist", handler.ClearWatchlist).Methods("DELETE")
	api.HandleFunc("/users/{telegram_id}/watchlist/{symbol}", handler.RemoveWatch).Methods("DELETE")

	// Interactive removal dialog
	api.HandleFunc("/users/{telegram_id}/removal", handler.BeginRemoval).Methods("POST")
	api.HandleFunc("/users/{telegram_id}/removal/mode", handler.ChooseMode).Methods("POST")
	api.HandleFunc("/users/{telegram_id}/removal/quantity", handler.SubmitQuantity).Methods("POST")
	api.HandleFunc("/users/{telegram_id}/removal/confirm", handler.ConfirmRemoval).Methods("POST")
	api.HandleFunc("/users/{telegram_id}/removal", handler.CancelRemoval).Methods("DELETE")

	// Market data
	api.HandleFunc("/quotes/{symbol}", handler.CheckQuote).Methods("GET")
	api.HandleFunc("/news/{symbol}", handler.GetNews).Methods("GET")

	return r
}
