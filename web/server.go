// ABOUTME: JSON HTTP API over the entity store
// ABOUTME: Resource routes under /api with a {success, data, error} envelope plus health, metrics and events
package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/crmd/db"
	"github.com/harperreed/crmd/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultMaxBodyBytes = 1 << 20

type Config struct {
	Logger       *log.Logger
	MaxBodyBytes int64
}

type Server struct {
	store    *db.Store
	logger   *log.Logger
	maxBody  int64
	mux      *http.ServeMux
	hub      *Hub
	registry *prometheus.Registry
	metrics  *httpMetrics
	handler  http.Handler
}

func NewServer(store *db.Store, cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}

	registry := prometheus.NewRegistry()
	s := &Server{
		store:    store,
		logger:   cfg.Logger.WithPrefix("http"),
		maxBody:  cfg.MaxBodyBytes,
		mux:      http.NewServeMux(),
		hub:      NewHub(cfg.Logger),
		registry: registry,
		metrics:  newHTTPMetrics(registry),
	}
	s.routes()
	s.handler = s.withRequestID(s.withObservability(s.mux))
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	s.mux.Handle("GET /api/events", s.hub)

	s.mux.HandleFunc("POST /api/leads/{id}/convert", s.handleConvertLead)
	s.mux.HandleFunc("POST /api/notifications/generate", s.handleGenerateNotifications)
	s.mux.HandleFunc("PUT /api/notifications/read", s.handleMarkNotificationsRead)

	s.mux.HandleFunc("GET /api/{entity}", s.handleList)
	s.mux.HandleFunc("POST /api/{entity}", s.handleCreate)
	s.mux.HandleFunc("PUT /api/{entity}/{id}", s.handleUpdate)
	s.mux.HandleFunc("DELETE /api/{entity}/{id}", s.handleDelete)
}

// Registerer lets other components expose metrics on /metrics.
func (s *Server) Registerer() prometheus.Registerer {
	return s.registry
}

// Publish forwards a store change to websocket subscribers. It never blocks.
func (s *Server) Publish(change db.Change) {
	s.hub.Publish(change)
}

// Handler returns the routes wrapped with request id, logging and metrics.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe runs until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "request_id", requestID(r.Context()), "err", err)
	}
	writeJSON(w, status, envelope{Success: false, Error: err.Error()})
}

func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, db.ErrNotFound), errors.Is(err, db.ErrUnknownKind):
		return http.StatusNotFound
	case errors.Is(err, db.ErrUnsupportedVerb):
		return http.StatusMethodNotAllowed
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, db.ErrMalformedInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	return io.ReadAll(r.Body)
}

func (s *Server) resource(r *http.Request) (db.Resource, error) {
	kind, err := models.ParseKind(r.PathValue("entity"))
	if err != nil {
		return nil, err
	}
	return s.store.ResourceFor(kind)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	res, err := s.resource(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := res.ListJSON(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, data)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	res, err := s.resource(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	body, err := s.readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := res.CreateJSON(r.Context(), body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, data)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	res, err := s.resource(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	body, err := s.readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := res.UpdateJSON(r.Context(), r.PathValue("id"), body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, data)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	res, err := s.resource(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := res.DeleteJSON(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, data)
}

func (s *Server) handleConvertLead(w http.ResponseWriter, r *http.Request) {
	result, err := s.store.ConvertLead(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, result)
}

func (s *Server) handleGenerateNotifications(w http.ResponseWriter, r *http.Request) {
	batch, err := s.store.GenerateNotifications(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, batch)
}

func (s *Server) handleMarkNotificationsRead(w http.ResponseWriter, r *http.Request) {
	all, err := s.store.MarkAllNotificationsRead(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, all)
}
