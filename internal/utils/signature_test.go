package utils

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyExternalHash(t *testing.T) {
	privateKey := "secret-private"
	apiKey := "public-api-key"
	createdAt := "2025-06-01T12:00:00Z"

	sum := md5.Sum([]byte(privateKey + apiKey + createdAt))
	hash := hex.EncodeToString(sum[:])

	assert.True(t, VerifyExternalHash(privateKey, apiKey, createdAt, hash))

	// Регистр подписи не важен
	assert.True(t, VerifyExternalHash(privateKey, apiKey, createdAt, strings.ToUpper(hash)))

	assert.False(t, VerifyExternalHash(privateKey, apiKey, createdAt, "deadbeef"))
	assert.False(t, VerifyExternalHash("wrong-key", apiKey, createdAt, hash))
	assert.False(t, VerifyExternalHash(privateKey, apiKey, "2025-06-02T00:00:00Z", hash))
}

// buildInitData собирает initData с корректной подписью по той же схеме,
// что использует Telegram WebApp
func buildInitData(t *testing.T, botToken string, authDate int64, userJSON string) string {
	t.Helper()

	values := url.Values{}
	values.Set("auth_date", fmt.Sprintf("%d", authDate))
	values.Set("query_id", "AAE1test")
	values.Set("user", userJSON)

	pairs := []string{
		"auth_date=" + values.Get("auth_date"),
		"query_id=" + values.Get("query_id"),
		"user=" + values.Get("user"),
	}
	checkString := pairs[0] + "\n" + pairs[1] + "\n" + pairs[2]

	secretMac := hmac.New(sha256.New, []byte("WebAppData"))
	secretMac.Write([]byte(botToken))
	secret := secretMac.Sum(nil)

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(checkString))
	values.Set("hash", hex.EncodeToString(mac.Sum(nil)))

	return values.Encode()
}

func TestValidateTelegramInitData(t *testing.T) {
	botToken := "12345:test-bot-token"
	userJSON := `{"id":987654321,"first_name":"Aigerim","last_name":"K","username":"aigerim"}`

	initData := buildInitData(t, botToken, time.Now().Unix(), userJSON)

	user, err := ValidateTelegramInitData(initData, botToken, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(987654321), user.ID)
	assert.Equal(t, "Aigerim", user.FirstName)
	assert.Equal(t, "aigerim", user.Username)
}

func TestValidateTelegramInitDataWrongToken(t *testing.T) {
	userJSON := `{"id":1,"first_name":"X"}`
	initData := buildInitData(t, "12345:real-token", time.Now().Unix(), userJSON)

	_, err := ValidateTelegramInitData(initData, "12345:other-token", 24*time.Hour)
	assert.ErrorIs(t, err, ErrInitDataSignature)
}

func TestValidateTelegramInitDataTampered(t *testing.T) {
	botToken := "12345:test-bot-token"
	initData := buildInitData(t, botToken, time.Now().Unix(), `{"id":1,"first_name":"X"}`)

	tampered := initData + "&premium=true"
	_, err := ValidateTelegramInitData(tampered, botToken, 24*time.Hour)
	assert.ErrorIs(t, err, ErrInitDataSignature)
}

func TestValidateTelegramInitDataExpired(t *testing.T) {
	botToken := "12345:test-bot-token"
	stale := time.Now().Add(-48 * time.Hour).Unix()
	initData := buildInitData(t, botToken, stale, `{"id":1,"first_name":"X"}`)

	_, err := ValidateTelegramInitData(initData, botToken, 24*time.Hour)
	assert.ErrorIs(t, err, ErrInitDataExpired)

	// Без ограничения возраста данные принимаются
	user, err := ValidateTelegramInitData(initData, botToken, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
}

func TestValidateTelegramInitDataMissingHash(t *testing.T) {
	_, err := ValidateTelegramInitData("auth_date=123&user=%7B%7D", "token", 0)
	assert.ErrorIs(t, err, ErrInitDataSignature)
}

func TestGenerateAndValidateJWT(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateJWT("123456", "carrier")
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "123456", claims.TelegramID)
	assert.Equal(t, "carrier", claims.Role)
}

func TestValidateJWTWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret-one")
	token, err := GenerateJWT("123456", "carrier")
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "secret-two")
	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestGenerateAdminJWT(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateAdminJWT()
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)
	assert.Empty(t, claims.TelegramID)
}
