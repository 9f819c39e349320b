package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/tanahub/timeclock/internal/domain/auth"
	"github.com/tanahub/timeclock/internal/domain/employee"
	"github.com/tanahub/timeclock/internal/domain/user"
	"github.com/tanahub/timeclock/internal/pkg/jwt"
	"github.com/tanahub/timeclock/internal/pkg/oauth"
)

type AuthServiceImpl struct {
	user.UserRepository
	employee.EmployeeRepository
	jwtService    jwt.Service
	googleService oauth.GoogleService
}

func NewAuthService(
	userRepo user.UserRepository,
	employeeRepo employee.EmployeeRepository,
	jwtService jwt.Service,
	googleService oauth.GoogleService,
) auth.AuthService {
	return &AuthServiceImpl{
		UserRepository:     userRepo,
		EmployeeRepository: employeeRepo,
		jwtService:         jwtService,
		googleService:      googleService,
	}
}

// Login implements auth.AuthService.
func (s *AuthServiceImpl) Login(ctx context.Context, req auth.LoginRequest) (auth.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return auth.TokenResponse{}, err
	}

	usr, err := s.UserRepository.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.TokenResponse{}, auth.ErrInvalidCredentials
		}
		return auth.TokenResponse{}, fmt.Errorf("failed to get user: %w", err)
	}

	if usr.PasswordHash == nil {
		// SSO-only account.
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*usr.PasswordHash), []byte(req.Password)); err != nil {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}

	return s.issueTokens(usr)
}

// LoginWithGoogle implements auth.AuthService.
func (s *AuthServiceImpl) LoginWithGoogle(ctx context.Context, code string) (auth.TokenResponse, error) {
	token, err := s.googleService.Exchange(ctx, code)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	account, err := s.googleService.FetchUser(ctx, token)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to fetch Google account: %w", err)
	}
	if !account.VerifiedEmail {
		return auth.TokenResponse{}, auth.ErrOAuthEmailUnknown
	}

	usr, err := s.UserRepository.GetByEmail(ctx, account.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.TokenResponse{}, auth.ErrOAuthEmailUnknown
		}
		return auth.TokenResponse{}, fmt.Errorf("failed to get user: %w", err)
	}

	return s.issueTokens(usr)
}

// Refresh implements auth.AuthService.
func (s *AuthServiceImpl) Refresh(ctx context.Context, refreshToken string) (auth.TokenResponse, error) {
	if s.jwtService.IsTokenRevoked(refreshToken) {
		return auth.TokenResponse{}, auth.ErrRefreshTokenRevoked
	}

	userID, err := s.jwtService.ParseRefreshToken(refreshToken)
	if err != nil {
		return auth.TokenResponse{}, auth.ErrInvalidToken
	}

	usr, err := s.UserRepository.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.TokenResponse{}, auth.ErrInvalidToken
		}
		return auth.TokenResponse{}, fmt.Errorf("failed to get user: %w", err)
	}

	tokens, err := s.issueTokens(usr)
	if err != nil {
		return auth.TokenResponse{}, err
	}

	// A refresh token is single use; the rotation replaces it.
	s.jwtService.RevokeToken(refreshToken)

	return tokens, nil
}

// Logout implements auth.AuthService.
func (s *AuthServiceImpl) Logout(_ context.Context, refreshToken string) error {
	if refreshToken == "" {
		return auth.ErrInvalidToken
	}
	s.jwtService.RevokeToken(refreshToken)
	return nil
}

func (s *AuthServiceImpl) issueTokens(usr user.User) (auth.TokenResponse, error) {
	accessToken, expiresAt, err := s.jwtService.GenerateAccessToken(
		usr.ID, usr.Email, usr.EmployeeID, usr.CompanyID, usr.Role,
	)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, _, err := s.jwtService.GenerateRefreshToken(usr.ID)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return auth.TokenResponse{
		AccessToken:  accessToken,
		ExpiresAt:    expiresAt,
		RefreshToken: refreshToken,
		Role:         string(usr.Role),
	}, nil
}
