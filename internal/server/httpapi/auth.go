package httpapi

import "net/http"

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register.
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	u, err := s.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, map[string]any{
		"user":    toUserResponse(*u),
		"message": "verification email sent",
	})
}

// Login handles POST /api/auth/login.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := s.auth.Login(r.Context(), req.Username, req.Password, clientIP(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.setSessionCookie(w, res.Token, res.ExpiresAt)
	jsonResponse(w, http.StatusOK, map[string]any{"user": toUserResponse(res.User)})
}

// Logout handles POST /api/auth/logout.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if sess, err := s.auth.Authenticate(r.Context(), cookie.Value); err == nil {
			_ = s.auth.Logout(r.Context(), sess.ID)
		}
	}
	s.clearSessionCookie(w)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me handles GET /api/auth/me.
func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	u, err := s.profile.Get(r.Context(), currentUserID(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"user": toUserResponse(*u)})
}

// VerifyEmail handles POST /api/auth/verify-email.
func (s *Server) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := s.auth.VerifyEmail(r.Context(), req.Token)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.setSessionCookie(w, res.Token, res.ExpiresAt)
	jsonResponse(w, http.StatusOK, map[string]any{"user": toUserResponse(res.User)})
}

// ResendVerification handles POST /api/auth/resend-verification.
func (s *Server) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.auth.ResendVerification(r.Context(), req.Email); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "if the address is registered, a verification email was sent"})
}

// ForgotPassword handles POST /api/auth/forgot-password.
func (s *Server) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.auth.ForgotPassword(r.Context(), req.Email); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "if the address is registered, a reset email was sent"})
}

// ResetPassword handles POST /api/auth/reset-password.
func (s *Server) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := s.auth.ResetPassword(r.Context(), req.Token, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.setSessionCookie(w, res.Token, res.ExpiresAt)
	jsonResponse(w, http.StatusOK, map[string]any{"user": toUserResponse(res.User)})
}
