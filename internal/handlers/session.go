package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink/internal/auth"
	"go.uber.org/zap"
)

const msgBadCredentials = "Invalid username or password"

// SessionHandler logs the administrator in and out.
type SessionHandler struct {
	authenticator *auth.Authenticator
	logger        *zap.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(authenticator *auth.Authenticator, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{authenticator: authenticator, logger: logger}
}

// Login issues a session cookie for valid admin credentials.
func (h *SessionHandler) Login(_ context.Context, req *LoginRequest) (*LoginResponse, error) {
	token, err := h.authenticator.Login(req.Body.Username, req.Body.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.logger.Info("login rejected", zap.String("username", req.Body.Username))

			return nil, huma.Error401Unauthorized(msgBadCredentials)
		}

		h.logger.Error("failed to issue session token", zap.Error(err))

		return nil, huma.Error500InternalServerError(msgInternal)
	}

	resp := &LoginResponse{SetCookie: sessionCookie(token, int(h.authenticator.MaxAge().Seconds()))}
	resp.Body.Success = true

	return resp, nil
}

// Logout clears the session cookie and redirects to /.
func (h *SessionHandler) Logout(_ context.Context, _ *struct{}) (*LogoutResponse, error) {
	return &LogoutResponse{
		Status:    http.StatusFound,
		Location:  "/",
		SetCookie: sessionCookie("", -1),
	}, nil
}

// sessionCookie builds the token cookie. A negative maxAge expires it.
func sessionCookie(value string, maxAge int) http.Cookie {
	return http.Cookie{
		Name:     auth.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}
