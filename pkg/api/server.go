package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/internhub/internhub/pkg/config"
	"github.com/internhub/internhub/pkg/service"
	"github.com/internhub/internhub/pkg/store"
)

// maxBodySize bounds request bodies accepted by write endpoints.
const maxBodySize = 1 << 20

// Server is the internhub JSON API.
type Server struct {
	cfg *config.Config
	svc *service.Service
	log *zap.Logger
	mux *http.ServeMux
}

// New creates a Server wired to svc.
func New(cfg *config.Config, svc *service.Service, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		cfg: cfg,
		svc: svc,
		log: log,
		mux: http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /api/positions", s.handleActivePositions)
	s.mux.HandleFunc("POST /api/positions", s.handleCreatePosition)
	s.mux.HandleFunc("PATCH /api/positions/{positionID}", s.handleUpdatePositionStatus)
	s.mux.HandleFunc("POST /api/positions/{positionID}/applications", s.handleApply)

	s.mux.HandleFunc("GET /api/startups", s.handleStartups)
	s.mux.HandleFunc("POST /api/startups", s.handleRegisterStartup)
	s.mux.HandleFunc("GET /api/startups/{startupID}/positions", s.handleStartupPositions)
	s.mux.HandleFunc("GET /api/startups/{startupID}/activity", s.handleStartupActivity)

	s.mux.HandleFunc("GET /api/owners/{ownerID}/applications", s.handleStartupApplications)
	s.mux.HandleFunc("GET /api/students/{studentID}/applications", s.handleStudentApplications)
	s.mux.HandleFunc("PUT /api/students/{studentID}/profile", s.handleSaveStudentProfile)
	s.mux.HandleFunc("GET /api/profiles/{userID}", s.handleUserProfile)

	s.mux.HandleFunc("PATCH /api/applications/{applicationID}", s.handleUpdateApplicationStatus)

	s.mux.HandleFunc("GET /api/cache/stats", s.handleCacheStats)
	s.mux.HandleFunc("POST /api/cache/invalidate", s.handleCacheInvalidate)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	s.log.Debug("request",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", rec.status),
		zap.Duration("latency", time.Since(start)),
	)
}

// ListenAndServe starts the API server with graceful shutdown support.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("internhub api listening", zap.String("addr", s.cfg.Listen))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// fresh reports whether the caller asked to bypass the cache.
func fresh(r *http.Request) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get("fresh"))
	return err == nil && v
}

// decodeOptionalBody is decodeBody for requests whose body may be empty,
// including chunked requests with no content.
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, errorBody{Error: errorDetail{Message: message, Code: code}})
}

// writeReadError maps a failed cached read. Store failures surface as 502.
func writeReadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalid):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not found")
	case errors.Is(err, context.DeadlineExceeded):
		writeJSONError(w, http.StatusGatewayTimeout, "query timed out")
	default:
		writeJSONError(w, http.StatusBadGateway, "query failed")
	}
}

func writeWriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalid):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrAlreadyApplied),
		errors.Is(err, service.ErrPositionClosed),
		errors.Is(err, service.ErrProfileIncomplete),
		errors.Is(err, store.ErrConflict):
		writeJSONError(w, http.StatusConflict, err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}
