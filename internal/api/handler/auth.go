package handler

import (
	"net/http"

	"github.com/Rrens/task-manager/internal/api/cookie"
	"github.com/Rrens/task-manager/internal/api/middleware"
	"github.com/Rrens/task-manager/internal/api/response"
	"github.com/Rrens/task-manager/internal/domain"
	"github.com/Rrens/task-manager/internal/service"
	"github.com/rs/zerolog"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *service.AuthService
	cookies     *cookie.Transport
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, cookies *cookie.Transport) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies}
}

// Register handles user registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input domain.UserCreate
	if !decodeAndValidate(w, r, &input) {
		return
	}

	user, err := h.authService.Register(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	zerolog.Ctx(r.Context()).Info().Str("user_id", user.ID.String()).Msg("user registered")
	response.OK(w, map[string]any{
		"message": "user registered successfully",
		"user":    user.Profile(),
	})
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input domain.UserLogin
	if !decodeAndValidate(w, r, &input) {
		return
	}

	user, tokens, err := h.authService.Login(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.cookies.SetTokens(w, tokens)
	response.OK(w, user.Profile())
}

// RefreshToken rotates both cookies from the refresh cookie
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	refreshToken := cookie.RefreshToken(r)
	if refreshToken == "" {
		response.Unauthorized(w, middleware.ReasonRefreshMissing)
		return
	}

	user, tokens, err := h.authService.Refresh(r.Context(), refreshToken)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.cookies.SetTokens(w, tokens)
	response.OK(w, user.Profile())
}

// Logout clears the token cookies
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.Clear(w)
	response.OK(w, map[string]string{
		"message": "logged out successfully",
	})
}

// CheckAuth returns the current authenticated user
func (h *AuthHandler) CheckAuth(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	response.OK(w, map[string]any{
		"user": user.Profile(),
	})
}
