package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"trivia-frenzy/internal/app"
	"trivia-frenzy/internal/domain"
)

type categoriesResponse struct {
	Categories []domain.Category `json:"categories"`
}

type difficultiesResponse struct {
	Difficulties []string `json:"difficulties"`
}

// NewRouter wires the menu endpoints and the game websocket.
func NewRouter(service *app.GameService, logger *zap.Logger) *mux.Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	wsHandler := NewWSHandler(service, logger)

	router := mux.NewRouter()
	router.Use(requestLogger(logger))

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	router.HandleFunc("/ws", wsHandler.ServeWS)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/categories", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, categoriesResponse{Categories: service.Categories(r.Context())})
	}).Methods(http.MethodGet)
	api.HandleFunc("/difficulties", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, difficultiesResponse{Difficulties: service.Difficulties()})
	}).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorPayload{Message: "not found"})
	})
	return router
}

func requestLogger(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("uri", r.RequestURI),
				zap.String("remote", r.RemoteAddr),
				zap.Duration("took", time.Since(start)))
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
