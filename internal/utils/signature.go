package utils

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// VerifyExternalHash проверяет подпись пакета внешних грузов:
// MD5(private_key + api_key + created_at)
func VerifyExternalHash(privateKey, apiKey, createdAt, hash string) bool {
	sum := md5.Sum([]byte(privateKey + apiKey + createdAt))
	expected := hex.EncodeToString(sum[:])
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(hash)))
}

// TelegramUser представляет данные пользователя из initData Telegram WebApp
type TelegramUser struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Username     string `json:"username"`
	LanguageCode string `json:"language_code"`
	PhotoURL     string `json:"photo_url"`
}

var (
	ErrInitDataSignature = errors.New("неверная подпись initData")
	ErrInitDataExpired   = errors.New("данные авторизации устарели")
)

// ValidateTelegramInitData проверяет подпись initData из Telegram WebApp.
// Секрет вычисляется как HMAC-SHA256(key="WebAppData", msg=botToken),
// Строка проверки состоит из отсортированных пар k=v, соединенных \n, без hash.
func ValidateTelegramInitData(initData, botToken string, maxAge time.Duration) (*TelegramUser, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, fmt.Errorf("разбор initData: %w", err)
	}

	gotHash := values.Get("hash")
	if gotHash == "" {
		return nil, ErrInitDataSignature
	}

	pairs := make([]string, 0, len(values))
	for key := range values {
		if key == "hash" {
			continue
		}
		pairs = append(pairs, key+"="+values.Get(key))
	}
	sort.Strings(pairs)
	checkString := strings.Join(pairs, "\n")

	secretMac := hmac.New(sha256.New, []byte("WebAppData"))
	secretMac.Write([]byte(botToken))
	secret := secretMac.Sum(nil)

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(checkString))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(gotHash)) {
		return nil, ErrInitDataSignature
	}

	if maxAge > 0 {
		authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
		if err != nil {
			return nil, ErrInitDataExpired
		}
		if time.Since(time.Unix(authDate, 0)) > maxAge {
			return nil, ErrInitDataExpired
		}
	}

	var user TelegramUser
	if raw := values.Get("user"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			return nil, fmt.Errorf("разбор user: %w", err)
		}
	}
	return &user, nil
}
