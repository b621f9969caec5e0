package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"herms/internal/auth"
)

func TestGenerateAndParseToken(t *testing.T) {
	signer := auth.NewSigner("test-secret-key", 24*time.Hour)

	// Генерируем токен
	sessionID := "test-session-id"
	token, err := signer.GenerateToken(sessionID)

	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	// Парсим токен
	parsed, err := signer.ParseToken(token)

	assert.NoError(t, err)
	assert.Equal(t, sessionID, parsed)
}

func TestParseToken_InvalidToken(t *testing.T) {
	signer := auth.NewSigner("test-secret-key", time.Hour)

	_, err := signer.ParseToken("invalid-token")

	assert.Error(t, err)
	assert.Equal(t, "invalid token", err.Error())
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := auth.NewSigner("other-secret", time.Hour).GenerateToken("sid")
	assert.NoError(t, err)

	_, err = auth.NewSigner("test-secret-key", time.Hour).ParseToken(token)

	assert.Error(t, err)
	assert.Equal(t, "invalid token", err.Error())
}

func TestParseToken_ExpiredToken(t *testing.T) {
	signer := auth.NewSigner("test-secret-key", time.Hour)

	// Токен истек 1 час назад
	claims := jwt.MapClaims{
		"sid": "test-session-id",
		"exp": time.Now().Add(-1 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	expiredToken, _ := token.SignedString([]byte("test-secret-key"))

	_, err := signer.ParseToken(expiredToken)

	assert.Error(t, err)
	assert.Equal(t, "invalid token", err.Error())
}

func TestParseToken_MissingClaims(t *testing.T) {
	signer := auth.NewSigner("test-secret-key", time.Hour)

	// Отсутствует "sid"
	claims := jwt.MapClaims{
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenWithoutSID, _ := token.SignedString([]byte("test-secret-key"))

	_, err := signer.ParseToken(tokenWithoutSID)

	assert.Error(t, err)
	assert.Equal(t, "invalid claims", err.Error())
}

func TestParseToken_RejectsOtherAlgorithms(t *testing.T) {
	signer := auth.NewSigner("test-secret-key", time.Hour)

	claims := jwt.MapClaims{"sid": "x", "exp": time.Now().Add(time.Hour).Unix()}
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, _ := token.SignedString([]byte("test-secret-key"))

	_, err := signer.ParseToken(signed)

	assert.Error(t, err)
}
