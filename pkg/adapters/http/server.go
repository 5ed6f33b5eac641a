package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/coldchain"
	"github.com/aretw0/coldchain/internal/logging"
	"github.com/aretw0/coldchain/pkg/codec"
	"github.com/aretw0/coldchain/pkg/domain"
	"github.com/aretw0/coldchain/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// maxIngestBody bounds POST payloads; readings are a few dozen bytes.
const maxIngestBody = 64 << 10

// Server exposes a Tracker over HTTP.
type Server struct {
	Tracker ports.Tracker

	codec    codec.Codec
	logger   *slog.Logger
	metrics  http.Handler
	onReject func(error)
	ingest   bool
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithCodec sets the codec used by the ingest endpoint.
func WithCodec(c codec.Codec) Option {
	return func(s *Server) {
		s.codec = c
	}
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithRejectHook is called for ingest payloads that fail to decode.
func WithRejectHook(fn func(error)) Option {
	return func(s *Server) {
		s.onReject = fn
	}
}

// WithIngest toggles POST /api/stations/{station}/{kind}. Enabled by default.
func WithIngest(enabled bool) Option {
	return func(s *Server) {
		s.ingest = enabled
	}
}

// NewHandler creates a new HTTP handler for the tracker.
func NewHandler(tracker ports.Tracker, opts ...Option) http.Handler {
	s := &Server{
		Tracker: tracker,
		codec:   codec.New(codec.DefaultPrefix),
		logger:  logging.NewNop(),
		ingest:  true,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)

	r.Route("/api", func(r chi.Router) {
		r.Get("/snapshot", s.GetSnapshot)
		r.Get("/stations", s.ListStations)
		r.Get("/alerts", s.ListAlerts)
		r.Get("/items/{itemID}", s.GetItem)
		if s.ingest {
			r.Post("/stations/{station}/{kind}", s.Ingest)
		}
	})

	r.Get("/events", s.SubscribeEvents)
	r.Get("/ws", s.SubscribeWebSocket)

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	static, err := fs.Sub(publicFS, "public")
	if err == nil {
		r.Handle("/*", http.FileServer(http.FS(static)))
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Coldchain API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.logger)
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "coldchain-http",
		"version":     strings.TrimSpace(coldchain.Version),
		"api_version": apiVersion,
	}, s.logger)
}

// GetSnapshot handles the GET /api/snapshot request.
func (s *Server) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Tracker.Snapshot(), s.logger)
}

// ListStations handles the GET /api/stations request.
func (s *Server) ListStations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Tracker.Stations(), s.logger)
}

// ListAlerts handles the GET /api/alerts request.
func (s *Server) ListAlerts(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, s.Tracker.Alerts(limit), s.logger)
}

// GetItem handles the GET /api/items/{itemID} request.
func (s *Server) GetItem(w http.ResponseWriter, r *http.Request) {
	var itemID string
	if err := bindPath(r, "itemID", &itemID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := s.Tracker.Item(itemID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item, s.logger)
}

// Ingest handles the POST /api/stations/{station}/{kind} request.
// It accepts the same payloads as the pub/sub topics.
func (s *Server) Ingest(w http.ResponseWriter, r *http.Request) {
	var station, kind string
	if err := bindPath(r, "station", &station); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := bindPath(r, "kind", &kind); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxIngestBody))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ev, err := s.codec.Decode(s.codec.Topic(station, domain.EventKind(kind)), body)
	if err != nil {
		s.logger.Warn("Ingest: dropped payload", "station", station, "kind", kind, "error", err)
		if s.onReject != nil {
			s.onReject(err)
		}
		writeError(w, err)
		return
	}

	if err := s.Tracker.Ingest(r.Context(), ev); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func bindPath(r *http.Request, name string, dest *string) error {
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return fmt.Errorf("invalid format for parameter %s: %w", name, err)
	}
	return nil
}

// writeError maps engine and codec errors to status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrItemNotFound), errors.Is(err, domain.ErrUnknownStation):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, codec.ErrMalformed), errors.Is(err, codec.ErrUnknownTopic),
		errors.Is(err, domain.ErrInvalidStatus), errors.Is(err, domain.ErrInvalidEvent),
		errors.Is(err, domain.ErrUnknownEvent):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "error", err)
	}
}
