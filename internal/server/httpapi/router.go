package httpapi

import "net/http"

// Router builds the API route table with middleware applied.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Public.
	mux.HandleFunc("GET /api/packs", s.ListPacks)
	mux.HandleFunc("POST /api/auth/register", s.rateLimit(s.strictLim, "register", s.Register))
	mux.HandleFunc("POST /api/auth/login", s.Login)
	mux.HandleFunc("POST /api/auth/logout", s.Logout)
	mux.HandleFunc("POST /api/auth/verify-email", s.rateLimit(s.relaxedLim, "verify-email", s.VerifyEmail))
	mux.HandleFunc("POST /api/auth/resend-verification", s.rateLimit(s.strictLim, "resend-verification", s.ResendVerification))
	mux.HandleFunc("POST /api/auth/forgot-password", s.rateLimit(s.strictLim, "forgot-password", s.ForgotPassword))
	mux.HandleFunc("POST /api/auth/reset-password", s.rateLimit(s.relaxedLim, "reset-password", s.ResetPassword))
	mux.HandleFunc("POST /api/profile/verify-email-change", s.rateLimit(s.relaxedLim, "verify-email-change", s.VerifyEmailChange))

	// Authenticated.
	mux.Handle("GET /api/auth/me", s.requireAuth(http.HandlerFunc(s.Me)))

	mux.Handle("GET /api/profile", s.requireAuth(http.HandlerFunc(s.GetProfile)))
	mux.Handle("PUT /api/profile", s.requireAuth(http.HandlerFunc(s.UpdateProfile)))
	mux.Handle("DELETE /api/profile", s.requireAuth(http.HandlerFunc(s.DeleteAccount)))
	mux.Handle("POST /api/profile/resend-email-change",
		s.requireAuth(http.HandlerFunc(s.rateLimit(s.strictLim, "resend-email-change", s.ResendEmailChange))))

	mux.Handle("GET /api/collection", s.requireAuth(http.HandlerFunc(s.GetCollection)))
	mux.Handle("PUT /api/collection", s.requireAuth(http.HandlerFunc(s.UpdateCollection)))

	mux.Handle("GET /api/decks", s.requireAuth(http.HandlerFunc(s.ListDecks)))
	mux.Handle("POST /api/decks/import", s.requireAuth(http.HandlerFunc(s.ImportDeck)))
	mux.Handle("PATCH /api/decks/{id}", s.requireAuth(http.HandlerFunc(s.SetDeckActive)))
	mux.Handle("DELETE /api/decks/{id}", s.requireAuth(http.HandlerFunc(s.DeleteDeck)))

	mux.Handle("GET /api/conflicts", s.requireAuth(http.HandlerFunc(s.GetConflicts)))
	mux.Handle("POST /api/conflicts/resolve", s.requireAuth(http.HandlerFunc(s.ResolveConflicts)))

	return s.loggingMiddleware(s.recoverMiddleware(mux))
}
