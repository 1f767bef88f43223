package http

import (
	"errors"
	"net/http"

	"finflow/internal/auth"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "register.html", map[string]any{})
	case http.MethodPost:
		s.processRegister(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) processRegister(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		s.renderAuthError(w, r, "register.html", "Invalid request body", http.StatusBadRequest)
		return
	}

	name := parser.Get("name")
	email := parser.Get("email")
	password := parser.Get("password")

	user, err := s.authSvc.Register(r.Context(), name, email, password)
	if err != nil {
		msg := "Registration failed"
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			msg = "An account with this email already exists"
		case errors.Is(err, auth.ErrWeakPassword):
			msg = "Password must be at least 8 characters"
		}
		s.renderAuthError(w, r, "register.html", msg, http.StatusBadRequest)
		return
	}

	s.startSession(w, user.ID)

	if parser.IsJSON() {
		respondJSON(w, http.StatusCreated, map[string]any{"id": user.ID, "email": user.Email})
		return
	}
	http.Redirect(w, r, "/finance/dashboard", http.StatusSeeOther)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "login.html", map[string]any{})
	case http.MethodPost:
		s.processLogin(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) processLogin(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		s.renderAuthError(w, r, "login.html", "Invalid request body", http.StatusBadRequest)
		return
	}

	email := parser.Get("email")
	password := parser.Get("password")

	user, err := s.authSvc.Authenticate(r.Context(), email, password)
	if err != nil {
		s.renderAuthError(w, r, "login.html", "Invalid email or password", http.StatusUnauthorized)
		return
	}

	s.startSession(w, user.ID)

	if parser.IsJSON() {
		respondJSON(w, http.StatusOK, map[string]any{"id": user.ID, "email": user.Email})
		return
	}
	http.Redirect(w, r, "/finance/dashboard", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if cookie, err := r.Cookie(sessionCookie); err == nil {
		s.sessions.Revoke(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) startSession(w http.ResponseWriter, userID int64) {
	token := s.sessions.Create(userID)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// renderAuthError shows the form again with an error message, or a JSON
// error for API clients.
func (s *Server) renderAuthError(w http.ResponseWriter, r *http.Request, page, msg string, status int) {
	if wantsJSON(r) {
		respondJSONError(w, status, msg)
		return
	}
	w.WriteHeader(status)
	s.render(w, r, page, map[string]any{"Error": msg})
}

func wantsJSON(r *http.Request) bool {
	return r.Header.Get("Accept") == "application/json" ||
		r.Header.Get("Content-Type") == "application/json"
}
