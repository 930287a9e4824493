package server

import (
	"log/slog"
	"net/http"

	"superstore-dashboard/internal/handlers"
	"superstore-dashboard/internal/notify"
	"superstore-dashboard/internal/pages"
	"superstore-dashboard/internal/services"
)

type Server struct {
	mux           *http.ServeMux
	logger        *slog.Logger
	apiHandlers   *handlers.APIHandlers
	sseHandlers   *handlers.SSEHandlers
	notifications *handlers.NotificationHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(store *services.Store, router *pages.Router, dispatcher *notify.Dispatcher, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		mux:           http.NewServeMux(),
		logger:        logger,
		apiHandlers:   handlers.NewAPIHandlers(router, store, logger),
		sseHandlers:   handlers.NewSSEHandlers(router, store, logger),
		notifications: handlers.NewNotificationHandlers(dispatcher, store, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Dashboard shell
	s.mux.HandleFunc("GET /", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API: pages re-render from the filter selection in the query
	s.mux.HandleFunc("GET /api/pages", s.apiHandlers.HandlePages)
	s.mux.HandleFunc("GET /api/pages/{page}", s.apiHandlers.HandlePage)
	s.mux.HandleFunc("GET /api/filters", s.apiHandlers.HandleFilters)
	s.mux.HandleFunc("POST /api/notifications/send", s.notifications.HandleSend)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/pages/{page}", s.sseHandlers.HandlePage)
	s.mux.HandleFunc("GET /sse/filters", s.sseHandlers.HandleFilters)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
