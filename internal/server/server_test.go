package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "github.com/agbru/primecount/internal/errors"
	"github.com/agbru/primecount/internal/parallel"
	"github.com/agbru/primecount/internal/primes"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := NewServer(Config{
		DefaultJobs:   4,
		DefaultAlgo:   "sqrt",
		DefaultPolicy: parallel.FailFast,
		Security:      DefaultSecurityConfig(),
	}, primes.NewDefaultFactory(), newTestLogger())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); v != nil && ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestHandleCount(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	tests := []struct {
		name  string
		query string
		want  uint64
		jobs  int
		algo  string
	}{
		{"defaults", "low=0&high=1000", 168, 4, "sqrt"},
		{"explicit jobs and algo", "low=0&high=100000&jobs=7&algo=sieve", 9592, 7, "sieve"},
		{"single integer range", "low=97&high=97&jobs=3", 1, 3, "sqrt"},
		{"underscores", "low=0&high=10_000&algo=trial", 1229, 4, "trial"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var resp CountResponse
			if code := getJSON(t, ts.URL+"/count?"+tt.query, &resp); code != http.StatusOK {
				t.Fatalf("status = %d, want 200", code)
			}
			if resp.Count != tt.want {
				t.Errorf("count = %d, want %d", resp.Count, tt.want)
			}
			if resp.Jobs != tt.jobs || resp.Algorithm != tt.algo {
				t.Errorf("jobs/algo = %d/%s, want %d/%s", resp.Jobs, resp.Algorithm, tt.jobs, tt.algo)
			}
			if resp.Policy != "fail-fast" || resp.Partial {
				t.Errorf("unexpected policy or partial flag: %+v", resp)
			}
		})
	}
}

func TestHandleCount_Errors(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"low exceeds high", "low=10&high=5", http.StatusBadRequest},
		{"negative bound", "low=-5&high=10", http.StatusBadRequest},
		{"missing high", "low=5", http.StatusBadRequest},
		{"not a number", "low=abc&high=10", http.StatusBadRequest},
		{"zero jobs", "low=0&high=10&jobs=0", http.StatusUnprocessableEntity},
		{"negative jobs", "low=0&high=10&jobs=-2", http.StatusUnprocessableEntity},
		{"too many jobs", "low=0&high=10&jobs=100000", http.StatusUnprocessableEntity},
		{"span too large", "low=0&high=18446744073709551615", http.StatusUnprocessableEntity},
		{"unknown policy", "low=0&high=10&policy=yolo", http.StatusUnprocessableEntity},
		{"unknown algorithm", "low=0&high=10&algo=aks", http.StatusBadRequest},
		{"bad jobs syntax", "low=0&high=10&jobs=many", http.StatusBadRequest},
		{"trial above its bound", "low=1000000000039&high=1000000000043&algo=trial", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var resp ErrorResponse
			if code := getJSON(t, ts.URL+"/count?"+tt.query, &resp); code != tt.status {
				t.Errorf("status = %d, want %d (%s)", code, tt.status, resp.Error)
			}
			if resp.Error == "" {
				t.Error("error body should describe the failure")
			}
		})
	}
}

func TestHandleCount_TrialBoundOnlyAppliesToTrial(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	var resp CountResponse
	url := ts.URL + "/count?low=1000000000039&high=1000000000043&algo=sqrt&jobs=2"
	if code := getJSON(t, url, &resp); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if resp.Count < 1 {
		t.Errorf("count = %d, want at least 1 (1000000000039 is prime)", resp.Count)
	}
}

func TestHandleIsPrime(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	for _, tt := range []struct {
		n    string
		want bool
	}{
		{"2", true}, {"25", false}, {"1000003", true}, {"4294967291", true},
	} {
		var resp IsPrimeResponse
		if code := getJSON(t, ts.URL+"/is-prime?n="+tt.n, &resp); code != http.StatusOK {
			t.Fatalf("n=%s: status = %d", tt.n, code)
		}
		if resp.Prime != tt.want {
			t.Errorf("n=%s: prime = %v, want %v", tt.n, resp.Prime, tt.want)
		}
	}

	var errResp ErrorResponse
	if code := getJSON(t, ts.URL+"/is-prime?n=-3", &errResp); code != http.StatusBadRequest {
		t.Errorf("negative n: status = %d, want 400", code)
	}
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	var resp HealthResponse
	if code := getJSON(t, ts.URL+"/health", &resp); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if resp.Status != "ok" || len(resp.Algorithms) != 3 {
		t.Errorf("unexpected health body %+v", resp)
	}
}

func TestHandler_MetricsAfterRequests(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	getJSON(t, ts.URL+"/count?low=0&high=100", &CountResponse{})
	getJSON(t, ts.URL+"/count?low=5&high=1", &ErrorResponse{})

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{
		`primecount_requests_total{endpoint="/count",status="200"} 1`,
		`primecount_requests_total{endpoint="/count",status="400"} 1`,
		"primecount_primes_counted_total 25",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("/metrics should contain %q", want)
		}
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers should wrap every route")
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/count?low=0&high=10", "text/plain", http.NoBody)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestHandler_RequestID(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	generated := resp.Header.Get(RequestIDHeader)
	if len(generated) != 36 {
		t.Errorf("generated request id %q is not a UUID", generated)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/health", http.NoBody)
	req.Header.Set(RequestIDHeader, "trace-42")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != "trace-42" {
		t.Errorf("request id = %q, want the client value", got)
	}
}

func TestStatusFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		want int
	}{
		{apperrors.RangeError{Low: 5, High: 1, Reason: "low exceeds high"}, http.StatusBadRequest},
		{apperrors.ValidationError{Field: "low", Message: "bad"}, http.StatusBadRequest},
		{apperrors.ValidationError{Field: "jobs", Message: "must be at least 1"}, http.StatusUnprocessableEntity},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{context.Canceled, http.StatusServiceUnavailable},
		{&apperrors.AggregateError{Failures: []apperrors.WorkerError{{Cause: errors.New("x")}}}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestServer_StartAndShutdown(t *testing.T) {
	t.Parallel()
	s := NewServer(Config{Addr: "127.0.0.1:0", DefaultAlgo: "sqrt"}, primes.NewDefaultFactory(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned %v after cancellation", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServer_StartFailsOnBadAddress(t *testing.T) {
	t.Parallel()
	s := NewServer(Config{Addr: "256.0.0.1:-1"}, primes.NewDefaultFactory(), nil)
	if err := s.Start(context.Background()); err == nil {
		t.Error("Start should fail on an invalid address")
	}
}
