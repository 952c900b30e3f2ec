// Package signature — проверка подписи вебхуков партнёра.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
)

// Mode — как проверяются вебхуки.
type Mode string

const (
	// ModeEnforced — нужна верная подпись HMAC-SHA256.
	ModeEnforced Mode = "enforced"
	// ModeUnsigned — секрет не задан, принимается любой вебхук.
	ModeUnsigned Mode = "unsigned"
)

// Result — итог одной проверки.
type Result string

const (
	ResultValid    Result = "valid"
	ResultBypassed Result = "bypassed"
	ResultUnsigned Result = "unsigned"
	ResultInvalid  Result = "invalid"
)

func (r Result) OK() bool {
	return r != ResultInvalid
}

type Verifier struct {
	secret       []byte
	bypassSecret string
	logger       *slog.Logger
}

// NewVerifier — без секрета пишет предупреждение: в этом режиме принимается
// любой вебхук.
func NewVerifier(secret, bypassSecret string, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	v := &Verifier{
		secret:       []byte(strings.TrimSpace(secret)),
		bypassSecret: strings.TrimSpace(bypassSecret),
		logger:       logger,
	}
	if v.Mode() == ModeUnsigned {
		logger.Warn("webhook signature verification disabled: WEBHOOK_SECRET is not set, unsigned webhooks will be accepted")
	}
	return v
}

func (v *Verifier) Mode() Mode {
	if len(v.secret) == 0 {
		return ModeUnsigned
	}
	return ModeEnforced
}

// Verify сравнивает hex HMAC-SHA256 тела со значением заголовка. Совпавший
// bypass-секрет пропускает проверку целиком.
func (v *Verifier) Verify(body []byte, signatureHeader, bypassHeader string) Result {
	if v.bypassSecret != "" && bypassHeader != "" &&
		hmac.Equal([]byte(strings.TrimSpace(bypassHeader)), []byte(v.bypassSecret)) {
		return ResultBypassed
	}
	if v.Mode() == ModeUnsigned {
		v.logger.Warn("accepting unsigned partner webhook", slog.String("mode", string(ModeUnsigned)))
		return ResultUnsigned
	}
	provided := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(signatureHeader), "sha256=")))
	if provided == "" {
		return ResultInvalid
	}
	if hmac.Equal([]byte(Sign(v.secret, body)), []byte(provided)) {
		return ResultValid
	}
	return ResultInvalid
}

// Sign — hex HMAC-SHA256 тела в нижнем регистре.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
