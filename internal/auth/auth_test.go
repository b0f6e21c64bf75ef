package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-service/internal/model"
)

func signToken(t *testing.T, secret string, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestParseValidToken(t *testing.T) {
	parser := NewParser("test-secret")
	operatorID := uuid.New()

	claims := &Claims{
		UserID:     uuid.New(),
		OperatorID: &operatorID,
		Role:       model.RoleDriver,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	parsed, err := parser.Parse(signToken(t, "test-secret", claims))
	require.NoError(t, err)
	assert.Equal(t, claims.UserID, parsed.UserID)
	require.NotNil(t, parsed.OperatorID)
	assert.Equal(t, operatorID, *parsed.OperatorID)
	assert.Equal(t, model.RoleDriver, parsed.Role)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	parser := NewParser("test-secret")

	claims := &Claims{
		UserID: uuid.New(),
		Role:   model.RoleManager,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	_, err := parser.Parse(signToken(t, "other-secret", claims))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	parser := NewParser("test-secret")

	claims := &Claims{
		UserID: uuid.New(),
		Role:   model.RoleManager,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}

	_, err := parser.Parse(signToken(t, "test-secret", claims))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsMissingUserID(t *testing.T) {
	parser := NewParser("test-secret")

	claims := &Claims{
		Role: model.RoleManager,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	_, err := parser.Parse(signToken(t, "test-secret", claims))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	parser := NewParser("test-secret")

	_, err := parser.Parse("not.a.token")
	require.ErrorIs(t, err, ErrInvalidToken)
}
