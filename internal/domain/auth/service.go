package auth

import "context"

// AuthService defines login and token lifecycle operations.
type AuthService interface {
	// Login verifies email+password and issues access/refresh tokens
	Login(ctx context.Context, req LoginRequest) (TokenResponse, error)

	// LoginWithGoogle maps a verified Google email onto an existing user
	LoginWithGoogle(ctx context.Context, code string) (TokenResponse, error)

	// Refresh exchanges a valid refresh token for a new access token
	Refresh(ctx context.Context, refreshToken string) (TokenResponse, error)

	// Logout revokes the refresh token
	Logout(ctx context.Context, refreshToken string) error
}
