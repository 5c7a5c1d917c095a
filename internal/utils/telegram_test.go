// internal/utils/telegram_test.go
package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const testBotToken = "123456:TEST-TOKEN"

// signFields produces the signature a real Telegram widget would attach.
func signFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s=%s", k, fields[k]))
	}

	secret := sha256.Sum256([]byte(testBotToken))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(mac.Sum(nil))
}

func telegramFields(authDate time.Time) map[string]string {
	return map[string]string{
		"id":         "42",
		"first_name": "Ada",
		"username":   "ada",
		"auth_date":  strconv.FormatInt(authDate.Unix(), 10),
	}
}

func TestVerifyTelegramLogin(t *testing.T) {
	fields := telegramFields(time.Now())
	hash := signFields(fields)

	assert.NoError(t, VerifyTelegramLogin(fields, hash, testBotToken, time.Hour))

	// Hashes are hex; case must not matter.
	assert.NoError(t, VerifyTelegramLogin(fields, strings.ToUpper(hash), testBotToken, time.Hour))
}

func TestVerifyTelegramLoginEmptyFieldsIgnored(t *testing.T) {
	fields := telegramFields(time.Now())
	hash := signFields(fields)

	// Telegram omits unset fields from the data-check string; an empty value
	// on our side must not change the signature.
	fields["photo_url"] = ""
	assert.NoError(t, VerifyTelegramLogin(fields, hash, testBotToken, time.Hour))
}

func TestVerifyTelegramLoginTampered(t *testing.T) {
	fields := telegramFields(time.Now())
	hash := signFields(fields)

	fields["username"] = "mallory"
	assert.ErrorIs(t, VerifyTelegramLogin(fields, hash, testBotToken, time.Hour), ErrTelegramHashMismatch)
}

func TestVerifyTelegramLoginWrongToken(t *testing.T) {
	fields := telegramFields(time.Now())
	hash := signFields(fields)

	assert.ErrorIs(t, VerifyTelegramLogin(fields, hash, "999:OTHER-TOKEN", time.Hour), ErrTelegramHashMismatch)
}

func TestVerifyTelegramLoginExpired(t *testing.T) {
	fields := telegramFields(time.Now().Add(-2 * time.Hour))
	hash := signFields(fields)

	assert.ErrorIs(t, VerifyTelegramLogin(fields, hash, testBotToken, time.Hour), ErrTelegramAuthExpired)

	// maxAge of zero disables the freshness check.
	assert.NoError(t, VerifyTelegramLogin(fields, hash, testBotToken, 0))
}
