package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/eventsphere/internal/api/middleware"
	"github.com/mcoot/eventsphere/internal/api/request"
	"github.com/mcoot/eventsphere/internal/api/response"
	"github.com/mcoot/eventsphere/internal/services/auth"
)

// CookieConfig controls the session cookie attributes
type CookieConfig struct {
	Name string
	// Secure marks the cookie HTTPS-only and allows it cross-site (SameSite=None)
	Secure bool
}

// AuthHandler handles admin login, logout and session checks
type AuthHandler struct {
	errorWriter
	auth   *auth.Service
	cookie CookieConfig
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service, cookie CookieConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		errorWriter: errorWriter{logger: logger},
		auth:        authService,
		cookie:      cookie,
	}
}

// Login handles POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := request.Decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	creds, err := req.Validate()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	session, err := h.auth.Login(r.Context(), creds.Username, creds.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	value, err := h.auth.SignToken(session.Token)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	http.SetCookie(w, h.newCookie(value, session.ExpiresAt, int(h.auth.SessionDuration().Seconds())))
	response.JSON(w, http.StatusOK, response.Message{Message: "Login successful."})
}

// Logout handles POST /logout. It always clears the cookie; only a session
// store failure is reported as an error.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	// A cookie that fails verification cannot name a stored session
	if cookie, err := r.Cookie(h.cookie.Name); err == nil {
		if token, err := h.auth.VerifyCookie(cookie.Value); err == nil {
			if err := h.auth.Logout(r.Context(), token); err != nil {
				h.writeError(w, r, err)
				return
			}
		}
	}

	http.SetCookie(w, h.newCookie("", time.Unix(0, 0), -1))
	response.JSON(w, http.StatusOK, response.Message{Message: "Logout successful."})
}

// Session handles GET /session; RequireAdmin has already validated the cookie
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	if session == nil {
		h.writeError(w, r, auth.ErrUnauthorized)
		return
	}

	response.JSON(w, http.StatusOK, response.Session{
		Message:   "Authenticated",
		ExpiresAt: session.ExpiresAt,
	})
}

func (h *AuthHandler) newCookie(value string, expires time.Time, maxAge int) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if h.cookie.Secure {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: sameSite,
	}
}
