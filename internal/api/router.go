package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/BlueStarAcademy/sudampvp/internal/api/handler"
	"github.com/BlueStarAcademy/sudampvp/internal/api/middleware"
	"github.com/BlueStarAcademy/sudampvp/internal/api/response"
	"github.com/BlueStarAcademy/sudampvp/internal/realtime"
	"github.com/BlueStarAcademy/sudampvp/internal/services/auth"
	"github.com/BlueStarAcademy/sudampvp/internal/services/gameclock"
	"github.com/BlueStarAcademy/sudampvp/internal/services/matchmaking"
	"github.com/BlueStarAcademy/sudampvp/internal/services/session"
	"github.com/BlueStarAcademy/sudampvp/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger            *slog.Logger
	AuthService       *auth.Service
	Records           storage.Records
	SessionController *session.Controller
	Clocks            *gameclock.Service
	Queue             *matchmaking.Queue
	HubManager        *realtime.HubManager
}

// Actions accepted by POST /sessions/{id}/{action}
const actionPattern = "{action:move|pass|resign|ready|bid|color|placement|hidden|slide|scan|roll|toss}"

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.AuthService, cfg.Records)
	queueHandler := handler.NewQueueHandler(cfg.Queue)
	sessionHandler := handler.NewSessionHandler(cfg.SessionController, cfg.Clocks, cfg.HubManager, cfg.Logger)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Health check and guest tokens (no auth)
	api.HandleFunc("/health", healthHandler(cfg.Queue)).Methods(http.MethodGet)
	api.HandleFunc("/players/guest", playerHandler.CreateGuest).Methods(http.MethodPost)

	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware)

	// Player routes
	protected.HandleFunc("/players/me", playerHandler.GetMe).Methods(http.MethodGet)
	protected.HandleFunc("/players/me/games", playerHandler.History).Methods(http.MethodGet)
	protected.HandleFunc("/events", sessionHandler.PlayerEvents).Methods(http.MethodGet)

	// Matchmaking routes
	protected.HandleFunc("/queue", queueHandler.Enqueue).Methods(http.MethodPost)
	protected.HandleFunc("/queue/{mode}", queueHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/queue/{mode}", queueHandler.Dequeue).Methods(http.MethodDelete)
	protected.HandleFunc("/presence", queueHandler.SetPresence).Methods(http.MethodPut)

	// Session routes
	protected.HandleFunc("/sessions", sessionHandler.Create).Methods(http.MethodPost)
	protected.HandleFunc("/sessions/{id}", sessionHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/sessions/{id}/clock", sessionHandler.Clock).Methods(http.MethodGet)
	protected.HandleFunc("/sessions/{id}/events", sessionHandler.Events).Methods(http.MethodGet)
	protected.HandleFunc("/sessions/{id}/ws", sessionHandler.Socket).Methods(http.MethodGet)
	protected.HandleFunc("/sessions/{id}/"+actionPattern, sessionHandler.Action).Methods(http.MethodPost)

	return r
}

type healthResponse struct {
	Status   string `json:"status"`
	Degraded bool   `json:"degraded,omitempty"`
}

func healthHandler(queue *matchmaking.Queue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		if queue != nil && queue.Degraded() {
			resp.Degraded = true
		}
		response.JSON(w, http.StatusOK, resp)
	}
}
