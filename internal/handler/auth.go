package handler

import (
	"net/http"

	"github.com/gemcade/platform/internal/auth"
	"github.com/gemcade/platform/internal/domain"
	"github.com/gemcade/platform/internal/service"
)

// AuthHandler handles registration, login and logout endpoints.
type AuthHandler struct {
	authSvc *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	result, err := h.authSvc.Register(r.Context(), input, ClientIP(r), r.UserAgent())
	if err != nil {
		RespondError(w, err)
		return
	}

	setSessionCookie(w, result)
	RespondJSON(w, http.StatusCreated, result)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	result, err := h.authSvc.Login(r.Context(), input, ClientIP(r), r.UserAgent())
	if err != nil {
		RespondError(w, err)
		return
	}

	setSessionCookie(w, result)
	RespondJSON(w, http.StatusOK, result)
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	account := auth.AccountFromContext(r.Context())
	session := auth.SessionFromContext(r.Context())
	raw := auth.RawTokenFromContext(r.Context())
	if account == nil || session == nil || raw == "" {
		RespondError(w, domain.ErrUnauthorized("no session"))
		return
	}

	if err := h.authSvc.Logout(r.Context(), account.ID, raw, session.RiskLevel); err != nil {
		RespondError(w, err)
		return
	}

	clearSessionCookie(w)
	RespondJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func setSessionCookie(w http.ResponseWriter, result *service.AuthResult) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    result.Token,
		Path:     "/",
		Expires:  result.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
