package rest

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/swaggo/swag"

	_ "predictbattle/docs"
	"predictbattle/internal/model"
	"predictbattle/internal/service"
	"predictbattle/internal/transport/rest/apierr"
	"predictbattle/internal/transport/rest/handler"
	"predictbattle/internal/transport/rest/middleware"
	"predictbattle/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService       *service.AuthService
	SessionService    *service.SessionService
	PredictionService *service.PredictionService
	WSHub             *ws.Hub
	Logger            *slog.Logger

	// FrontendURL is the only origin allowed by CORS and the websocket upgrader
	FrontendURL string
	Production  bool
}

var errRouteNotFound = &model.Error{Kind: model.ErrNotFound, Message: "route not found"}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()
	out := apierr.NewWriter(c.Production, c.Logger)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService, out)
	sessionHandler := handler.NewSessionHandler(c.SessionService, out)
	predictionHandler := handler.NewPredictionHandler(c.PredictionService, out)
	wsHandler := ws.NewHandler(c.WSHub, c.SessionService, c.FrontendURL, c.Logger)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService, out)

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(c.Logger))
	r.Use(middleware.Recovery(c.Logger, out))
	r.Use(middleware.CORS(c.FrontendURL))

	// Health check
	r.HandleFunc("/health", handler.Health(out)).Methods("GET")

	// OpenAPI document
	r.HandleFunc("/swagger/doc.json", func(w http.ResponseWriter, req *http.Request) {
		doc, err := swag.ReadDoc()
		if err != nil {
			out.Error(w, req, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(doc)); err != nil {
			c.Logger.Error("write openapi document", slog.Any("error", err))
		}
	}).Methods("GET")

	// Live session feed
	r.HandleFunc("/ws/sessions/{code}", wsHandler.SessionWS).Methods("GET")

	// Browser clients call /api; other clients may use the root paths
	for _, api := range []*mux.Router{r.PathPrefix("/api").Subrouter(), r} {
		api.HandleFunc("/users", authHandler.Register).Methods("POST", "OPTIONS")
		api.HandleFunc("/users/login", authHandler.Login).Methods("POST", "OPTIONS")
		api.HandleFunc("/users/profile", authHandler.Profile).Methods("GET", "OPTIONS")

		api.Handle("/sessions", authMW.OptionalUser(http.HandlerFunc(sessionHandler.Create))).Methods("POST", "OPTIONS")
		api.Handle("/sessions/user/my-sessions", authMW.RequireUser(http.HandlerFunc(sessionHandler.MySessions))).Methods("GET", "OPTIONS")
		api.HandleFunc("/sessions/{code}", sessionHandler.GetByCode).Methods("GET", "OPTIONS")
		api.Handle("/sessions/{id}/complete", authMW.RequireUser(http.HandlerFunc(sessionHandler.Complete))).Methods("PUT", "OPTIONS")

		api.Handle("/predictions", authMW.OptionalUser(http.HandlerFunc(predictionHandler.Add))).Methods("POST", "OPTIONS")
		api.HandleFunc("/predictions/session/{code}", predictionHandler.ListBySession).Methods("GET", "OPTIONS")
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		out.Error(w, req, errRouteNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Allow", "GET, POST, PUT, OPTIONS")
		out.JSON(w, http.StatusMethodNotAllowed, apierr.ErrorResponse{Message: "method not allowed"})
	})

	return r
}
