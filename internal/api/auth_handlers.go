package api

import (
	"net/http"
	"time"

	"log/slog"

	"github.com/GIDD/gidd/internal/auth"
)

// AuthHandler handles authentication requests.
type AuthHandler struct {
	config auth.Config
	logger *slog.Logger
}

// NewAuthHandler creates a new authentication handler.
func NewAuthHandler(config auth.Config, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		config: config,
		logger: logger,
	}
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse represents a login response.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, h.logger, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Password != h.config.AdminPassword {
		h.logger.Warn("failed login attempt", "ip", r.RemoteAddr)
		respondError(w, h.logger, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.GenerateToken("admin", h.config.JWTSecret, h.config.TokenDuration)
	if err != nil {
		h.logger.Error("failed to generate token", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("successful login", "ip", r.RemoteAddr)
	respondJSON(w, h.logger, http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(h.config.TokenDuration),
	})
}

// ValidateToken handles GET /api/auth/validate. Token validation happens in
// the middleware; reaching the handler means the token is valid.
func (h *AuthHandler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, h.logger, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID, _ := auth.GetUserIDFromContext(r.Context())
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"valid":   true,
		"user_id": userID,
	})
}
