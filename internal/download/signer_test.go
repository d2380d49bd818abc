package download

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betterresume/internal/config"
)

func newTestSigner(secret string, ttl time.Duration) *Signer {
	cfg := &config.Config{}
	cfg.Downloads.SigningSecret = secret
	cfg.Downloads.TTL = ttl
	return NewSigner(cfg)
}

func parseSignedPath(t *testing.T, path string) (exp int64, sig string) {
	t.Helper()
	parts := strings.SplitN(path, "?", 2)
	require.Len(t, parts, 2)
	values, err := url.ParseQuery(parts[1])
	require.NoError(t, err)
	exp, err = strconv.ParseInt(values.Get("exp"), 10, 64)
	require.NoError(t, err)
	return exp, values.Get("sig")
}

func TestSignedPathRoundTrip(t *testing.T) {
	signer := newTestSigner("topsecret", 15*time.Minute)

	path := signer.SignedPath("user1", "resume.tex")
	assert.True(t, strings.HasPrefix(path, "/download/user1/resume.tex?"))

	exp, sig := parseSignedPath(t, path)
	assert.NoError(t, signer.Verify("user1", "resume.tex", exp, sig))
}

func TestVerifyRejectsExpiredLink(t *testing.T) {
	signer := newTestSigner("topsecret", 15*time.Minute)

	exp := time.Now().Add(-time.Minute).Unix()
	sig := signer.sign("user1", "resume.tex", exp)

	err := signer.Verify("user1", "resume.tex", exp, sig)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	signer := newTestSigner("topsecret", 15*time.Minute)

	exp, sig := parseSignedPath(t, signer.SignedPath("user1", "resume.tex"))

	assert.Error(t, signer.Verify("user2", "resume.tex", exp, sig))
	assert.Error(t, signer.Verify("user1", "resume.docx", exp, sig))
	assert.Error(t, signer.Verify("user1", "resume.tex", exp+1, sig))
	assert.Error(t, signer.Verify("user1", "resume.tex", exp, sig+"00"))
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	signer := newTestSigner("topsecret", 15*time.Minute)
	other := newTestSigner("different", 15*time.Minute)

	exp, sig := parseSignedPath(t, other.SignedPath("user1", "resume.tex"))
	assert.Error(t, signer.Verify("user1", "resume.tex", exp, sig))
}

func TestDisabledSignerReturnsPlainPath(t *testing.T) {
	signer := newTestSigner("", 15*time.Minute)

	assert.False(t, signer.Enabled())
	assert.Equal(t, "/download/user1/resume.tex", signer.SignedPath("user1", "resume.tex"))
	assert.Error(t, signer.Verify("user1", "resume.tex", time.Now().Add(time.Hour).Unix(), "deadbeef"))
}

func TestMinimumTTLEnforced(t *testing.T) {
	signer := newTestSigner("topsecret", time.Second)

	exp, _ := parseSignedPath(t, signer.SignedPath("user1", "resume.tex"))
	min := time.Now().Add(50 * time.Second).Unix()
	assert.GreaterOrEqual(t, exp, min, fmt.Sprintf("expiry %d should honor the minimum ttl", exp))
}
