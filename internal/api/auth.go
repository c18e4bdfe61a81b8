package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"bamboowoods/internal/models"
)

func sessionFrom(ctx context.Context) *models.Session {
	s, _ := ctx.Value(sessionKey).(*models.Session)
	return s
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// sessionToken reads the session cookie, falling back to a bearer token.
func (s *Server) sessionToken(r *http.Request) string {
	if c, err := r.Cookie(s.session.CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return bearerToken(r)
}

func (s *Server) authenticate(r *http.Request) (*models.Session, error) {
	return s.deps.Auth.Authenticate(r.Context(), s.sessionToken(r))
}

func (s *Server) requireSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := s.authenticate(r)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), sessionKey, session)))
	})
}

// functionAuthorized accepts the service key from the environment or a
// live admin session.
func (s *Server) functionAuthorized(r *http.Request) bool {
	token := bearerToken(r)
	if key, ok := s.lookupEnv(s.functionKeyEnv); ok && key != "" && token != "" {
		if subtle.ConstantTimeCompare([]byte(key), []byte(token)) == 1 {
			return true
		}
	}
	_, err := s.authenticate(r)
	return err == nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	session, err := s.deps.Auth.Login(r.Context(), req.Email, req.Password, clientKey(r, s.cfg.ClientIPHeader))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.session.CookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   s.session.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Auth.Logout(r.Context(), sessionFrom(r.Context()).Token); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.session.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"email":      session.Email,
		"expires_at": session.ExpiresAt,
	})
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	email := sessionFrom(r.Context()).Email
	if err := s.deps.Auth.ChangePassword(r.Context(), email, req.CurrentPassword, req.NewPassword); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

