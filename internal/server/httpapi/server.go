// Package httpapi exposes the application services as a JSON REST API.
package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"marvelcdc/internal/errs"
	"marvelcdc/internal/limiter"
	"marvelcdc/internal/model"
	"marvelcdc/internal/repository"
	"marvelcdc/internal/service"
)

// sessionCookie is the name of the httpOnly login cookie.
const sessionCookie = "marvelcdc_session"

// Options wires the server's dependencies.
type Options struct {
	Log        *zap.Logger
	Auth       service.AuthService
	Profile    service.ProfileService
	Collection service.CollectionService
	Decks      service.DeckService
	Conflicts  service.ConflictService
	Catalog    repository.CatalogRepository

	// StrictLim guards endpoints that send email on every request.
	StrictLim limiter.Limiter
	// RelaxedLim guards token-consuming endpoints.
	RelaxedLim limiter.Limiter

	// SecureCookies marks session cookies Secure (behind HTTPS).
	SecureCookies bool
}

// Server holds handler dependencies.
type Server struct {
	log        *zap.Logger
	auth       service.AuthService
	profile    service.ProfileService
	collection service.CollectionService
	decks      service.DeckService
	conflicts  service.ConflictService
	catalog    repository.CatalogRepository

	strictLim  limiter.Limiter
	relaxedLim limiter.Limiter

	secureCookies bool
}

// NewServer constructs the API server.
func NewServer(opts Options) *Server {
	return &Server{
		log:           opts.Log,
		auth:          opts.Auth,
		profile:       opts.Profile,
		collection:    opts.Collection,
		decks:         opts.Decks,
		conflicts:     opts.Conflicts,
		catalog:       opts.Catalog,
		strictLim:     opts.StrictLim,
		relaxedLim:    opts.RelaxedLim,
		secureCookies: opts.SecureCookies,
	}
}

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20)).Decode(target)
}

// writeServiceError maps service sentinels to HTTP status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errs.ErrValidation), errors.Is(err, errs.ErrTokenExpired):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrAlreadyExists):
		jsonError(w, http.StatusConflict, err.Error())
	case errors.Is(err, errs.ErrUnauthorized):
		jsonError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, errs.ErrRateLimited):
		jsonError(w, http.StatusTooManyRequests, "too many attempts, try again later")
	default:
		s.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

// setSessionCookie installs the signed session token on the response.
func (s *Server) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie expires the session cookie.
func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// clientIP extracts the originating client address, trusting proxy headers.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	if real := r.Header.Get("X-Real-Ip"); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// userResponse is the account shape returned to clients. Password material
// and tokens never leave the server.
type userResponse struct {
	ID               string `json:"id"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	EmailVerified    bool   `json:"emailVerified"`
	PendingEmail     string `json:"pendingEmail,omitempty"`
	FirstName        string `json:"firstName,omitempty"`
	LastName         string `json:"lastName,omitempty"`
	MarvelCDBProfile string `json:"marvelcdbProfile,omitempty"`
}

func toUserResponse(u model.User) userResponse {
	return userResponse{
		ID:               u.ID.String(),
		Username:         u.Username,
		Email:            u.Email,
		EmailVerified:    u.EmailVerified,
		PendingEmail:     u.PendingEmail,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		MarvelCDBProfile: u.MarvelCDBProfile,
	}
}
