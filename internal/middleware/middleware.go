package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"storefront/internal/auth"
	"storefront/internal/handler"
	"storefront/internal/metrics"
	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CORS adds CORS headers to the response.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Authenticate verifies the bearer token and attaches the caller to the
// request context.
func Authenticate(tokens *auth.TokenManager, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				logger.Warn().Str("path", r.URL.Path).Msg("missing bearer token")
				handler.WriteError(w, model.ErrUnauthorised, logger)
				return
			}

			p, err := tokens.Verify(strings.TrimSpace(token))
			if err != nil {
				logger.Warn().Err(err).Str("path", r.URL.Path).Msg("rejected bearer token")
				handler.WriteError(w, model.NewDomainError(model.KindUnauthorized, model.ErrCodeUnauthorised,
					"Invalid or expired token"), logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
		})
	}
}

// AccountLookup loads the stored account behind a token subject.
type AccountLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// RequireAdmin rejects callers without the admin role. It must run after Authenticate.
// The token's role is re-checked against the stored account so a demoted or
// disabled admin loses access before the token expires.
func RequireAdmin(accounts AccountLookup, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.FromContext(r.Context())
			if !ok {
				handler.WriteError(w, model.ErrUnauthorised, logger)
				return
			}
			if !p.IsAdmin() {
				logger.Warn().
					Str("user_id", p.UserID.String()).
					Str("path", r.URL.Path).
					Msg("admin route denied")
				handler.WriteError(w, model.ErrForbidden, logger)
				return
			}

			account, err := accounts.GetByID(r.Context(), p.UserID)
			if err != nil {
				handler.WriteError(w, err, logger)
				return
			}
			if account == nil || !account.IsActive {
				logger.Warn().Str("user_id", p.UserID.String()).Msg("admin token for missing or disabled account")
				handler.WriteError(w, errAccountDisabled, logger)
				return
			}
			if account.Role != model.RoleAdmin {
				logger.Warn().
					Str("user_id", p.UserID.String()).
					Str("path", r.URL.Path).
					Msg("admin token for demoted account")
				handler.WriteError(w, model.ErrForbidden, logger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

var errAccountDisabled = model.NewDomainError(model.KindUnauthorized, model.ErrCodeUnauthorised,
	"Account is disabled or no longer exists")

// Logging logs HTTP requests with timing information and records the
// request duration metric under the matched route pattern.
func Logging(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Create a response writer wrapper to capture status code
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			duration := time.Since(start)

			// The mux fills in the pattern on the request it was handed.
			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			metrics.ObserveRequest(r.Method, route, rw.statusCode, duration)

			event := logger.Info()
			if rw.statusCode >= http.StatusInternalServerError {
				event = logger.Error()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("route", route).
				Int("status", rw.statusCode).
				Dur("duration", duration).
				Str("remote_addr", r.RemoteAddr).
				Msg("http request")
		})
	}
}

// Recovery recovers from panics and returns a 500 error.
func Recovery(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error().
						Interface("panic", err).
						Str("method", r.Method).
						Str("path", r.URL.Path).
						Msg("panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					w.Write([]byte(`{"success":false,"error":"INTERNAL_ERROR","message":"An unexpected error occurred"}`))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code.
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
