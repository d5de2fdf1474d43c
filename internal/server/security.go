package server

import (
	"net/http"
	"slices"
	"strings"
)

// SecurityConfig holds the HTTP hardening options and the request limits of
// the server.
type SecurityConfig struct {
	// EnableCORS adds Access-Control-* headers for allowed origins.
	EnableCORS bool
	// AllowedOrigins lists the origins accepted for CORS. "*" accepts any.
	AllowedOrigins []string
	// AllowedMethods is advertised in Access-Control-Allow-Methods.
	AllowedMethods []string
	// MaxSpan is the largest high-low accepted by /count.
	MaxSpan uint64
	// MaxJobs is the largest job count accepted by /count.
	MaxJobs int
	// MaxTrialHigh is the largest high accepted by /count with the trial
	// counter, whose n/3 divisor bound makes one large candidate slow.
	MaxTrialHigh uint64
}

// DefaultSecurityConfig returns permissive CORS for read-only endpoints and
// limits that keep a single request within seconds on commodity hardware.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		EnableCORS:     true,
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		MaxSpan:        1_000_000_000,
		MaxJobs:        256,
		MaxTrialHigh:   1_000_000_000,
	}
}

// SecurityMiddleware sets the security headers on every response, applies
// CORS and answers preflight requests with 204.
func SecurityMiddleware(config SecurityConfig, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		if config.EnableCORS {
			if origin, ok := allowedOrigin(config.AllowedOrigins, r.Header.Get("Origin")); ok {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Methods", strings.Join(config.AllowedMethods, ", "))
				h.Set("Access-Control-Allow-Headers", "Content-Type")
				h.Set("Access-Control-Max-Age", "86400")
			}
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}

// allowedOrigin returns the value of Access-Control-Allow-Origin for origin.
func allowedOrigin(allowed []string, origin string) (string, bool) {
	if slices.Contains(allowed, "*") {
		return "*", true
	}
	if origin != "" && slices.Contains(allowed, origin) {
		return origin, true
	}
	return "", false
}
