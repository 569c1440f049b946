package transport

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	defaultSignatureHeader = "X-Delivery-Signature"
	defaultTimestampHeader = "X-Delivery-Timestamp"
	defaultKeyIDHeader     = "X-Delivery-Key-Id"
)

// WebhookSignerConfig configures HMAC signing of outbound webhook
// requests. Header names fall back to the X-Delivery-* defaults.
type WebhookSignerConfig struct {
	Secret          string
	KeyID           string
	SignatureHeader string
	TimestampHeader string
	KeyIDHeader     string
}

// WebhookSigner produces a SHA-256 HMAC over "<unix timestamp>.<body>"
// so receivers can verify both integrity and freshness.
type WebhookSigner struct {
	config WebhookSignerConfig
	now    func() time.Time
}

func NewWebhookSigner(cfg WebhookSignerConfig) (*WebhookSigner, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, fmt.Errorf("transport: webhook signing secret is required")
	}
	if strings.TrimSpace(cfg.SignatureHeader) == "" {
		cfg.SignatureHeader = defaultSignatureHeader
	}
	if strings.TrimSpace(cfg.TimestampHeader) == "" {
		cfg.TimestampHeader = defaultTimestampHeader
	}
	if strings.TrimSpace(cfg.KeyIDHeader) == "" {
		cfg.KeyIDHeader = defaultKeyIDHeader
	}
	cfg.Secret = secret
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)
	return &WebhookSigner{
		config: cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Headers returns the signature headers for one payload.
func (s *WebhookSigner) Headers(payload []byte) map[string]string {
	if s == nil {
		return nil
	}
	timestamp := strconv.FormatInt(s.now().Unix(), 10)
	headers := map[string]string{
		s.config.SignatureHeader: s.Sign(timestamp, payload),
		s.config.TimestampHeader: timestamp,
	}
	if s.config.KeyID != "" {
		headers[s.config.KeyIDHeader] = s.config.KeyID
	}
	return headers
}

// Sign computes the hex HMAC for a timestamp/payload pair. Exposed so
// receiver-side code and tests can verify signatures.
func (s *WebhookSigner) Sign(timestamp string, payload []byte) string {
	if s == nil {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(s.config.Secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether a presented signature matches the payload.
func (s *WebhookSigner) Verify(timestamp string, payload []byte, signature string) bool {
	if s == nil {
		return false
	}
	expected := s.Sign(timestamp, payload)
	return hmac.Equal([]byte(expected), []byte(strings.TrimSpace(signature)))
}
