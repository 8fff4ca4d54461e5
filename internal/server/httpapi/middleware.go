package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"marvelcdc/internal/limiter"
)

type contextKey string

const userIDKey contextKey = "userID"

// currentUserID retrieves the authenticated user from the request context.
func currentUserID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(userIDKey).(uuid.UUID)
	return id
}

// requireAuth validates the session cookie and puts the user ID on the
// request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil || cookie.Value == "" {
			jsonError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		sess, err := s.auth.Authenticate(r.Context(), cookie.Value)
		if err != nil {
			s.clearSessionCookie(w)
			jsonError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, sess.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// rateLimit counts every request against (bucket, client IP) and rejects
// blocked clients. Used on endpoints that send email or burn tokens.
func (s *Server) rateLimit(lim limiter.Limiter, bucket string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ipHash := limiter.HashIP(clientIP(r))
		allowed, retryAfter, err := lim.Allow(r.Context(), bucket, ipHash)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		if !allowed {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(retryAfter.Seconds())+1))
			jsonError(w, http.StatusTooManyRequests, "too many attempts, try again later")
			return
		}
		// Every attempt counts toward the window, success or not.
		if _, _, err := lim.Failure(r.Context(), bucket, ipHash); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	}
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs each request with method, path, status and duration.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// recoverMiddleware converts handler panics into 500 responses.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error("panic in handler",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Any("panic", rec),
				)
				jsonError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
