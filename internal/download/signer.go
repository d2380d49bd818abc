package download

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"betterresume/internal/config"
)

const minTTL = 60 * time.Second

// Signer issues and verifies expiring HMAC signatures for download paths so
// generated files can only be fetched through links the server handed out.
type Signer struct {
	secret []byte
	ttl    time.Duration
}

// NewSigner creates a signer from the configuration
func NewSigner(cfg *config.Config) *Signer {
	ttl := cfg.Downloads.TTL
	if ttl < minTTL {
		ttl = minTTL
	}
	return &Signer{
		secret: []byte(cfg.Downloads.SigningSecret),
		ttl:    ttl,
	}
}

// Enabled reports whether a signing secret is configured
func (s *Signer) Enabled() bool {
	return len(s.secret) > 0
}

// SignedPath returns a relative download path with an expiry and signature
// query string. The path stays relative so clients can prefix it with their
// API base. Without a secret the plain path is returned.
func (s *Signer) SignedPath(userID, filename string) string {
	path := fmt.Sprintf("/download/%s/%s", userID, filename)
	if !s.Enabled() {
		return path
	}
	exp := time.Now().Add(s.ttl).Unix()
	return fmt.Sprintf("%s?exp=%d&sig=%s", path, exp, s.sign(userID, filename, exp))
}

// Verify checks a signature against the user/filename/expiry tuple
func (s *Signer) Verify(userID, filename string, exp int64, sig string) error {
	if !s.Enabled() {
		return fmt.Errorf("download signing is not configured")
	}
	if exp < time.Now().Unix() {
		return fmt.Errorf("download link expired")
	}
	expected := s.sign(userID, filename, exp)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return fmt.Errorf("invalid download signature")
	}
	return nil
}

func (s *Signer) sign(userID, filename string, exp int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s:%s:%d", userID, filename, exp)
	return hex.EncodeToString(mac.Sum(nil))
}
