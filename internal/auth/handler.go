package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"monetadirect/internal/logger"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

type Handler struct {
	issuer *Issuer
}

func NewHandler(issuer *Issuer) *Handler {
	return &Handler{issuer: issuer}
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	log := logger.FromCtx(r.Context())

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	token, expires, err := h.issuer.Login(req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			log.Warn("Operator login failed", zap.String("ip", r.RemoteAddr))
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
		case errors.Is(err, ErrNotConfigured):
			http.Error(w, "operator access disabled", http.StatusForbidden)
		default:
			log.Error("Failed to sign operator token", zap.Error(err))
			http.Error(w, "login failed", http.StatusInternalServerError)
		}
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/admin",
		Expires:  expires,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(loginResponse{Token: token, ExpiresAt: expires}); err != nil {
		log.Error("encode response", zap.Error(err))
	}
}
