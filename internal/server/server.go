// Package server provides the HTTP server for the sign recognition service.
package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/session"
	"github.com/ayusman/mudra/internal/store"
)

// Session is the sign session the server exposes.
type Session interface {
	api.Session
	Subscribe(buffer int) (<-chan session.Event, func())
}

// FrameSource publishes annotated JPEG frames.
type FrameSource interface {
	Latest() []byte
	Subscribe() (<-chan []byte, func())
}

// Config holds the server configuration. Routes whose dependency is nil
// are not registered.
type Config struct {
	StaticDir string
	Store     *store.Store
	Session   Session
	Frames    FrameSource
	Matcher   *gesture.StaticMatcher
	Logger    zerolog.Logger
}

// Server represents the HTTP server for the application.
type Server struct {
	config Config
	log    zerolog.Logger
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		log:    config.Logger.With().Str("component", "server").Logger(),
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Session != nil {
		sentence := api.NewSentenceHandler(s.config.Session)
		s.mux.Handle("/api/sentence", sentence)
		s.mux.Handle("/api/sentence/", sentence)
		s.mux.Handle("/api/status", api.NewStatusHandler(s.config.Session))
		s.mux.Handle("/api/events", NewEventsHandler(s.config.Session, s.log))
	}

	if s.config.Store != nil {
		gestureHandler := api.NewGestureHandler(s.config.Store, s.config.Matcher)
		samplesHandler := api.NewSamplesHandler(s.config.Store, s.config.Matcher)

		// Route /api/gestures/{id}/samples to the samples handler.
		gestureRouter := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.Count(strings.TrimPrefix(r.URL.Path, "/api/gestures/"), "/") > 0 {
				samplesHandler.ServeHTTP(w, r)
				return
			}
			gestureHandler.ServeHTTP(w, r)
		})

		s.mux.Handle("/api/gestures", gestureRouter)
		s.mux.Handle("/api/gestures/", gestureRouter)
		s.mux.Handle("/api/history", api.NewHistoryHandler(s.config.Store))
	}

	if s.config.Frames != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Frames))
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type healthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Uptime: time.Since(s.start).Round(time.Second).String(),
	})
}

// HTTPServer returns an http.Server for s listening on addr. The caller
// owns its lifecycle.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
