// internal/utils/telegram.go
package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrTelegramHashMismatch = errors.New("telegram auth hash mismatch")
	ErrTelegramAuthExpired  = errors.New("telegram auth data expired")
)

// VerifyTelegramLogin checks a Telegram Login Widget payload. fields holds
// every field Telegram sent except "hash"; the signature is HMAC-SHA256 over
// the sorted key=value lines with SHA256(botToken) as the key.
func VerifyTelegramLogin(fields map[string]string, hash, botToken string, maxAge time.Duration) error {
	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if k == "hash" || v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s=%s", k, fields[k]))
	}
	dataCheckString := strings.Join(lines, "\n")

	secret := sha256.Sum256([]byte(botToken))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write([]byte(dataCheckString))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(hash))) {
		return ErrTelegramHashMismatch
	}

	if maxAge > 0 {
		authDate, err := strconv.ParseInt(fields["auth_date"], 10, 64)
		if err != nil {
			return ErrTelegramAuthExpired
		}
		if time.Since(time.Unix(authDate, 0)) > maxAge {
			return ErrTelegramAuthExpired
		}
	}

	return nil
}
