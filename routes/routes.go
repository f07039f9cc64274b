package routes

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/KMohir/ProyektSXF/middleware"
	"github.com/KMohir/ProyektSXF/telegram"
)

// InitRouter wires the HTTP surface: a health check for container probes and
// the Telegram webhook endpoint.
func InitRouter(bot *telegram.Bot, webhookSecret string) *mux.Router {
	r := mux.NewRouter()

	r.Handle("/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
			"service":   "task-coordinator",
		})
	})).Methods(http.MethodGet)

	r.Use(middleware.RequestLogging)

	limiter := middleware.NewIPRateLimiter(middleware.WebhookRateMax(), time.Minute)

	webhook := r.PathPrefix("/v1/telegram").Subrouter()
	webhook.Use(limiter.Middleware)
	webhook.Use(middleware.WebhookAuth(webhookSecret))
	webhook.HandleFunc("/webhook", bot.WebhookHandler).Methods(http.MethodPost)

	return r
}
