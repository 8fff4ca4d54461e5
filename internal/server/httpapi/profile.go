package httpapi

import (
	"net/http"

	"marvelcdc/internal/service"
)

type deleteAccountRequest struct {
	Password string `json:"password"`
}

// GetProfile handles GET /api/profile.
func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request) {
	u, err := s.profile.Get(r.Context(), currentUserID(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"user": toUserResponse(*u)})
}

// UpdateProfile handles PUT /api/profile.
func (s *Server) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req service.ProfileUpdate
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	u, err := s.profile.Update(r.Context(), currentUserID(r.Context()), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"user": toUserResponse(*u)})
}

// VerifyEmailChange handles POST /api/profile/verify-email-change.
// Public: the link arrives in the new address's inbox.
func (s *Server) VerifyEmailChange(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	u, err := s.profile.VerifyEmailChange(r.Context(), req.Token)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"user": toUserResponse(*u)})
}

// ResendEmailChange handles POST /api/profile/resend-email-change.
func (s *Server) ResendEmailChange(w http.ResponseWriter, r *http.Request) {
	if err := s.profile.ResendEmailChange(r.Context(), currentUserID(r.Context())); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "confirmation email sent"})
}

// DeleteAccount handles DELETE /api/profile.
func (s *Server) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	var req deleteAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.profile.DeleteAccount(r.Context(), currentUserID(r.Context()), req.Password); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.clearSessionCookie(w)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "account deleted"})
}
