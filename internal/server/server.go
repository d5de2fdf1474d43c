// Package server exposes prime counting over HTTP with JSON responses and
// Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/agbru/primecount/internal/errors"
	"github.com/agbru/primecount/internal/logging"
	"github.com/agbru/primecount/internal/parallel"
	"github.com/agbru/primecount/internal/primes"
)

const (
	// DefaultRequestTimeout bounds a single /count request.
	DefaultRequestTimeout = 30 * time.Second
	// DefaultShutdownTimeout bounds the drain of in-flight requests.
	DefaultShutdownTimeout = 5 * time.Second
)

// Config configures the HTTP server.
type Config struct {
	// Addr is the TCP address to listen on, e.g. ":8080".
	Addr string
	// DefaultJobs is used when a request has no jobs parameter.
	DefaultJobs int
	// DefaultAlgo is used when a request has no algo parameter.
	DefaultAlgo string
	// DefaultPolicy is used when a request has no policy parameter.
	DefaultPolicy parallel.Policy
	// RequestTimeout bounds each count. Zero selects DefaultRequestTimeout.
	RequestTimeout time.Duration
	// ShutdownTimeout bounds graceful shutdown. Zero selects
	// DefaultShutdownTimeout.
	ShutdownTimeout time.Duration
	// Security holds the middleware options and the request limits.
	Security SecurityConfig
}

// Server serves /count, /is-prime, /health and /metrics.
type Server struct {
	cfg        Config
	factory    primes.CounterFactory
	logger     logging.Logger
	metrics    *Metrics
	httpServer *http.Server
}

// CountResponse is the JSON body returned by /count.
type CountResponse struct {
	Low        uint64  `json:"low"`
	High       uint64  `json:"high"`
	Jobs       int     `json:"jobs"`
	Algorithm  string  `json:"algorithm"`
	Policy     string  `json:"policy"`
	Count      uint64  `json:"count"`
	DurationMS float64 `json:"duration_ms"`
	// Partial is set when a best-effort count lost some parts; Error then
	// describes the failures.
	Partial bool   `json:"partial,omitempty"`
	Error   string `json:"error,omitempty"`
}

// IsPrimeResponse is the JSON body returned by /is-prime.
type IsPrimeResponse struct {
	N     uint64 `json:"n"`
	Prime bool   `json:"prime"`
}

// HealthResponse is the JSON body returned by /health.
type HealthResponse struct {
	Status     string   `json:"status"`
	Algorithms []string `json:"algorithms"`
}

// ErrorResponse is the JSON body of every non-2xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewServer builds a server. A nil logger discards logs.
//
// Parameters:
//   - cfg: The listen address, request defaults and limits.
//   - factory: The registry the algo parameter is resolved against.
//   - logger: Receives request and lifecycle logs.
//
// Returns:
//   - *Server: A server ready to Start.
func NewServer(cfg Config, factory primes.CounterFactory, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.DefaultJobs < 1 {
		cfg.DefaultJobs = 1
	}
	s := &Server{
		cfg:     cfg,
		factory: factory,
		logger:  logger,
		metrics: NewMetrics(),
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the routed handler with the security, metrics and logging
// middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	route := func(path string, h http.HandlerFunc) {
		mux.HandleFunc(path, SecurityMiddleware(s.cfg.Security, s.metricsMiddleware(s.loggingMiddleware(h))))
	}
	route("/count", s.handleCount)
	route("/is-prime", s.handleIsPrime)
	route("/health", s.handleHealth)
	route("/metrics", s.handleMetrics)
	return mux
}

// Start listens on cfg.Addr until ctx is canceled, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", logging.String("addr", s.cfg.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	q := r.URL.Query()

	rng, err := parseRangeParams(q.Get("low"), q.Get("high"))
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	if rng.Span() > s.cfg.Security.MaxSpan && s.cfg.Security.MaxSpan > 0 {
		s.writeError(w, http.StatusUnprocessableEntity, apperrors.ValidationError{
			Field:   "high",
			Message: fmt.Sprintf("range span %d exceeds the limit of %d", rng.Span(), s.cfg.Security.MaxSpan),
		})
		return
	}

	jobs := s.cfg.DefaultJobs
	if v := q.Get("jobs"); v != "" {
		jobs, err = strconv.Atoi(v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid jobs %q", v))
			return
		}
	}
	if s.cfg.Security.MaxJobs > 0 && jobs > s.cfg.Security.MaxJobs {
		s.writeError(w, http.StatusUnprocessableEntity, apperrors.ValidationError{
			Field:   "jobs",
			Message: fmt.Sprintf("must not exceed %d", s.cfg.Security.MaxJobs),
		})
		return
	}

	policy := s.cfg.DefaultPolicy
	if v := q.Get("policy"); v != "" {
		if policy, err = parallel.ParsePolicy(v); err != nil {
			s.writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
	}

	algo := q.Get("algo")
	if algo == "" {
		algo = s.cfg.DefaultAlgo
	}
	counter, err := s.factory.Get(algo)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if _, trial := counter.(primes.TrialDivision); trial && s.cfg.Security.MaxTrialHigh > 0 && rng.High > s.cfg.Security.MaxTrialHigh {
		s.writeError(w, http.StatusUnprocessableEntity, apperrors.ValidationError{
			Field:   "high",
			Message: fmt.Sprintf("the trial counter accepts high up to %d, use sqrt or sieve above it", s.cfg.Security.MaxTrialHigh),
		})
		return
	}

	start := time.Now()
	total, err := parallel.CountInRangeParallel(r.Context(), rng.Low, rng.High, jobs, parallel.Options{
		Counter: counter,
		Policy:  policy,
		Timeout: s.cfg.RequestTimeout,
		Logger:  s.logger,
	})
	elapsed := time.Since(start)

	resp := CountResponse{
		Low:        rng.Low,
		High:       rng.High,
		Jobs:       jobs,
		Algorithm:  algo,
		Policy:     policy.String(),
		Count:      total,
		DurationMS: float64(elapsed.Microseconds()) / 1000,
	}
	if err != nil {
		if policy == parallel.BestEffort && errors.Is(err, apperrors.ErrWorkerFailure) {
			resp.Partial = true
			resp.Error = err.Error()
			s.writeJSON(w, http.StatusOK, resp)
			return
		}
		s.writeError(w, statusFor(err), err)
		return
	}
	s.metrics.ObserveCount(algo, elapsed, total)
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIsPrime(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	raw := r.URL.Query().Get("n")
	n, err := strconv.ParseUint(strings.ReplaceAll(raw, "_", ""), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid n %q", raw))
		return
	}
	s.writeJSON(w, http.StatusOK, IsPrimeResponse{N: n, Prime: primes.IsPrimeSqrt(n)})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	s.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Algorithms: s.factory.List()})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	s.metrics.WritePrometheus(w, r)
}

func (s *Server) requireGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet {
		return true
	}
	w.Header().Set("Allow", http.MethodGet)
	s.writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
	return false
}

// metricsMiddleware tracks in-flight requests and counts responses by
// status.
func (s *Server) metricsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.metrics.IncrementActiveRequests()
		defer s.metrics.DecrementActiveRequests()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		s.metrics.RecordRequest(r.URL.Path, rec.status)
	}
}

// RequestIDHeader carries the request identifier. A client-supplied value is
// echoed back; otherwise a UUID is generated.
const RequestIDHeader = "X-Request-ID"

func (s *Server) loggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		s.logger.Info("request",
			logging.String("request_id", id),
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.String("query", r.URL.RawQuery),
			logging.Int("status", rec.status),
			logging.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
		)
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

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// parseRangeParams parses the low and high query parameters. Negative
// bounds are reported as invalid ranges rather than syntax errors.
func parseRangeParams(lowStr, highStr string) (primes.Range, error) {
	if lowStr == "" || highStr == "" {
		return primes.Range{}, apperrors.ValidationError{Field: "range", Message: "low and high are required"}
	}
	if strings.HasPrefix(lowStr, "-") || strings.HasPrefix(highStr, "-") {
		low, errLow := strconv.ParseInt(lowStr, 10, 64)
		high, errHigh := strconv.ParseInt(highStr, 10, 64)
		if errLow == nil && errHigh == nil {
			return primes.ParseRange(low, high)
		}
	}
	low, err := parseUintParam("low", lowStr)
	if err != nil {
		return primes.Range{}, err
	}
	high, err := parseUintParam("high", highStr)
	if err != nil {
		return primes.Range{}, err
	}
	return primes.NewRange(low, high)
}

func parseUintParam(name, raw string) (uint64, error) {
	v, err := strconv.ParseUint(strings.ReplaceAll(raw, "_", ""), 10, 64)
	if err != nil {
		return 0, apperrors.ValidationError{Field: name, Message: fmt.Sprintf("%q is not an unsigned integer", raw)}
	}
	return v, nil
}

// statusFor maps a counting error to an HTTP status.
func statusFor(err error) int {
	var vErr apperrors.ValidationError
	switch {
	case errors.Is(err, apperrors.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.As(err, &vErr) && (vErr.Field == "low" || vErr.Field == "high" || vErr.Field == "range"):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrInvalidArgument):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
