package auth

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tanahub/timeclock/internal/domain/auth"
	"github.com/tanahub/timeclock/internal/domain/user"
)

type fakeUserRepo struct {
	users map[string]user.User // keyed by email
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (user.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	u, ok := f.users[email]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

type fakeJWTService struct {
	revoked map[string]bool
}

func (f *fakeJWTService) GenerateAccessToken(userID string, _ string, _ *string, _ *string, _ user.Role) (string, int64, error) {
	return "access-" + userID, 1234567890, nil
}

func (f *fakeJWTService) GenerateRefreshToken(userID string) (string, int64, error) {
	return "refresh-" + userID, 1234567890, nil
}

func (f *fakeJWTService) JWTAuth() *jwtauth.JWTAuth { return nil }

func (f *fakeJWTService) RefreshTokenCookie(token string, _ int64) *http.Cookie {
	return &http.Cookie{Name: "refresh_token", Value: token}
}

func (f *fakeJWTService) RevokeToken(token string) {
	f.revoked[token] = true
}

func (f *fakeJWTService) IsTokenRevoked(token string) bool {
	return f.revoked[token]
}

func (f *fakeJWTService) ParseRefreshToken(tokenString string) (string, error) {
	if len(tokenString) > 8 && tokenString[:8] == "refresh-" {
		return tokenString[8:], nil
	}
	return "", auth.ErrInvalidToken
}

func newTestService(t *testing.T) (*AuthServiceImpl, *fakeJWTService) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)
	hashStr := string(hash)

	companyID := "company-1"
	employeeID := "emp-1"
	users := map[string]user.User{
		"dewi@example.com": {
			ID:           "user-1",
			CompanyID:    &companyID,
			Email:        "dewi@example.com",
			PasswordHash: &hashStr,
			Role:         user.RoleEmployee,
			EmployeeID:   &employeeID,
		},
		"sso@example.com": {
			ID:    "user-2",
			Email: "sso@example.com",
			Role:  user.RoleManager,
		},
	}

	jwtSvc := &fakeJWTService{revoked: make(map[string]bool)}
	svc := &AuthServiceImpl{
		UserRepository: &fakeUserRepo{users: users},
		jwtService:     jwtSvc,
	}
	return svc, jwtSvc
}

func TestLoginSuccess(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.Login(context.Background(), auth.LoginRequest{
		Email:    "dewi@example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)

	assert.Equal(t, "access-user-1", resp.AccessToken)
	assert.Equal(t, "refresh-user-1", resp.RefreshToken)
	assert.Equal(t, string(user.RoleEmployee), resp.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Login(context.Background(), auth.LoginRequest{
		Email:    "dewi@example.com",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Login(context.Background(), auth.LoginRequest{
		Email:    "nobody@example.com",
		Password: "hunter22",
	})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLoginPasswordlessAccount(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Login(context.Background(), auth.LoginRequest{
		Email:    "sso@example.com",
		Password: "anything",
	})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestRefreshSuccess(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.Refresh(context.Background(), "refresh-user-1")
	require.NoError(t, err)
	assert.Equal(t, "access-user-1", resp.AccessToken)
}

func TestRefreshRotationRevokesReplacedToken(t *testing.T) {
	svc, jwtSvc := newTestService(t)

	_, err := svc.Refresh(context.Background(), "refresh-user-1")
	require.NoError(t, err)
	assert.True(t, jwtSvc.IsTokenRevoked("refresh-user-1"))

	// Replaying the replaced token must not mint another session.
	_, err = svc.Refresh(context.Background(), "refresh-user-1")
	assert.ErrorIs(t, err, auth.ErrRefreshTokenRevoked)
}

func TestRefreshRevokedToken(t *testing.T) {
	svc, jwtSvc := newTestService(t)

	require.NoError(t, svc.Logout(context.Background(), "refresh-user-1"))
	assert.True(t, jwtSvc.IsTokenRevoked("refresh-user-1"))

	_, err := svc.Refresh(context.Background(), "refresh-user-1")
	assert.ErrorIs(t, err, auth.ErrRefreshTokenRevoked)
}

func TestRefreshGarbageToken(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Refresh(context.Background(), "garbage")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
