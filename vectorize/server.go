package vectorize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"
)

// DefaultAddr is the listen address of the embedding service
const DefaultAddr = ":8000"

const maxRequestBody = 1 << 20

// Server exposes a ModelCache over HTTP
type Server struct {
	models *ModelCache
}

// NewServer creates a server encoding with models from cache
func NewServer(cache *ModelCache) *Server {
	return &Server{models: cache}
}

// TransformRequest is the body of POST /text_transform/
type TransformRequest struct {
	Model  *string `json:"model"`
	Search *string `json:"search"`
}

type errorBody struct {
	Detail string `json:"detail"`
}

// Handler returns the routed handler wrapped with CORS and request logging
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health/{$}", s.handleHealth)
	mux.HandleFunc("POST /text_transform/{$}", s.handleTransform)
	return logRequests(allowAnyOrigin(mux))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	var req TransformRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Detail: fmt.Sprintf("invalid request body: %v", err)})
		return
	}
	if req.Model == nil || req.Search == nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Detail: "fields model and search are required"})
		return
	}

	enc, release, err := s.models.Get(r.Context(), *req.Model)
	if err != nil {
		slog.Warn("failed to load model", "model", *req.Model, "error", err)
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "Model not found"})
		return
	}
	defer release()

	vector, err := enc.Encode(r.Context(), *req.Search)
	if err != nil {
		slog.Warn("failed to encode text", "model", *req.Model, "error", err)
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "Encoding failed"})
		return
	}
	writeJSON(w, http.StatusOK, vector)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("failed to write response", "error", err)
	}
}

// allowAnyOrigin accepts every origin with credentials. rs/cors then echoes
// the request origin, since a wildcard is not valid alongside credentials.
func allowAnyOrigin(next http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowOriginFunc:      func(string) bool { return true },
		AllowedMethods:       []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:       []string{"*"},
		AllowCredentials:     true,
		MaxAge:               600,
		OptionsSuccessStatus: http.StatusOK,
	}).Handler(next)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// Serve listens on addr until ctx is cancelled, then drains in-flight
// requests for up to shutdownTimeout
func Serve(ctx context.Context, addr string, handler http.Handler, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return serveListener(ctx, ln, handler, shutdownTimeout)
}

func serveListener(ctx context.Context, ln net.Listener, handler http.Handler, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("embedding service listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("shutting down embedding service")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		return nil
	})
	return g.Wait()
}
