package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/tanahub/timeclock/internal/domain/auth"
	"github.com/tanahub/timeclock/internal/handler/http/response"
	"github.com/tanahub/timeclock/internal/pkg/jwt"
	"github.com/tanahub/timeclock/internal/pkg/oauth"
)

const oauthStateCookie = "oauth_state"

type AuthHandler interface {
	Login(w http.ResponseWriter, r *http.Request)
	LoginWithGoogle(w http.ResponseWriter, r *http.Request)
	OAuthCallbackGoogle(w http.ResponseWriter, r *http.Request)
	RefreshToken(w http.ResponseWriter, r *http.Request)
	Logout(w http.ResponseWriter, r *http.Request)
}

type AuthHandlerImpl struct {
	authService   auth.AuthService
	jwtService    jwt.Service
	googleService oauth.GoogleService
}

func NewAuthHandler(authService auth.AuthService, jwtService jwt.Service, googleService oauth.GoogleService) AuthHandler {
	return &AuthHandlerImpl{
		authService:   authService,
		jwtService:    jwtService,
		googleService: googleService,
	}
}

// Login implements AuthHandler.
func (a *AuthHandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	var loginReq auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
		slog.Error("Login decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	tokens, err := a.authService.Login(r.Context(), loginReq)
	if err != nil {
		slog.Error("Login service error", "error", err)
		response.HandleError(w, err)
		return
	}

	a.setRefreshCookie(w, tokens.RefreshToken)
	response.Success(w, tokens)
}

// LoginWithGoogle implements AuthHandler.
func (a *AuthHandlerImpl) LoginWithGoogle(w http.ResponseWriter, r *http.Request) {
	state := a.googleService.GenerateState()
	if state == "" {
		response.InternalServerError(w, "Failed to start OAuth flow")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/v1/auth",
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, a.googleService.RedirectURL(state), http.StatusTemporaryRedirect)
}

// OAuthCallbackGoogle implements AuthHandler.
func (a *AuthHandlerImpl) OAuthCallbackGoogle(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		slog.Error("OAuth callback state mismatch")
		response.Unauthorized(w, "Invalid OAuth state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		response.BadRequest(w, "Missing authorization code", nil)
		return
	}

	tokens, err := a.authService.LoginWithGoogle(r.Context(), code)
	if err != nil {
		slog.Error("OAuth callback service error", "error", err)
		response.HandleError(w, err)
		return
	}

	a.setRefreshCookie(w, tokens.RefreshToken)
	response.Success(w, tokens)
}

// RefreshToken implements AuthHandler.
func (a *AuthHandlerImpl) RefreshToken(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("refresh_token")
	if err != nil || cookie.Value == "" {
		response.HandleError(w, auth.ErrInvalidToken)
		return
	}

	tokens, err := a.authService.Refresh(r.Context(), cookie.Value)
	if err != nil {
		slog.Error("RefreshToken service error", "error", err)
		response.HandleError(w, err)
		return
	}

	a.setRefreshCookie(w, tokens.RefreshToken)
	response.Success(w, tokens)
}

// Logout implements AuthHandler.
func (a *AuthHandlerImpl) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("refresh_token")
	if err == nil && cookie.Value != "" {
		if err := a.authService.Logout(r.Context(), cookie.Value); err != nil {
			slog.Error("Logout service error", "error", err)
			response.HandleError(w, err)
			return
		}
	}

	// Expire the cookie regardless of whether one was sent.
	expired := a.jwtService.RefreshTokenCookie("", time.Now().Add(-time.Hour).Unix())
	http.SetCookie(w, expired)

	response.SuccessWithMessage(w, "Logged out", nil)
}

func (a *AuthHandlerImpl) setRefreshCookie(w http.ResponseWriter, refreshToken string) {
	expiresAt := time.Now().Add(168 * time.Hour).Unix()
	http.SetCookie(w, a.jwtService.RefreshTokenCookie(refreshToken, expiresAt))
}
