package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

func TestAuthServiceIssueAndValidate(t *testing.T) {
	svc := NewAuthService(AuthConfig{Secret: "secret", Issuer: "campus", Audience: []string{"campus-api"}}, nil)
	user := &models.User{ID: "stu-1", Email: "ana@campus.test", FullName: "Ana", Role: models.RoleStudent}

	token, expiresAt, err := svc.IssueToken(user)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "stu-1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestAuthServiceRejectsWrongSecret(t *testing.T) {
	issuer := NewAuthService(AuthConfig{Secret: "other"}, nil)
	token, _, err := issuer.IssueToken(&models.User{ID: "u1", Role: models.RoleAdmin})
	require.NoError(t, err)

	svc := NewAuthService(AuthConfig{Secret: "secret"}, nil)
	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrUnauthorized.Code))
}

func TestAuthServiceRejectsWrongIssuer(t *testing.T) {
	issuer := NewAuthService(AuthConfig{Secret: "secret", Issuer: "elsewhere"}, nil)
	token, _, err := issuer.IssueToken(&models.User{ID: "u1", Role: models.RoleAdmin})
	require.NoError(t, err)

	svc := NewAuthService(AuthConfig{Secret: "secret", Issuer: "campus"}, nil)
	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestAuthServiceRejectsExpiredToken(t *testing.T) {
	svc := NewAuthService(AuthConfig{Secret: "secret"}, nil)
	svc.now = func() time.Time { return time.Now().Add(-3 * time.Hour) }
	token, _, err := svc.IssueToken(&models.User{ID: "u1", Role: models.RoleStudent})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestAuthServiceRejectsUnsignedToken(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, &models.JWTClaims{UserID: "u1"})
	raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	svc := NewAuthService(AuthConfig{Secret: "secret"}, nil)
	_, err = svc.ValidateToken(raw)
	assert.Error(t, err)
}
