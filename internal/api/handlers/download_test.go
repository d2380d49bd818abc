package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betterresume/internal/cache"
	"betterresume/internal/config"
	"betterresume/internal/download"
)

const downloadTestUser = "user_12345"

func newDownloadFixture(t *testing.T) (*cache.Cache, *download.Signer) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Cache.OutputsBase = t.TempDir()
	cfg.Cache.Filename = "resume_cache.json"
	cfg.Downloads.SigningSecret = "test-secret"
	cfg.Downloads.TTL = 15 * time.Minute

	return cache.New(cfg), download.NewSigner(cfg)
}

func writeUserFile(t *testing.T, resumeCache *cache.Cache, userID, filename, content string) {
	t.Helper()
	dir := resumeCache.UserDir(userID)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644))
}

func doDownload(t *testing.T, resumeCache *cache.Cache, signer *download.Signer, userID, filename, rawQuery string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	target := fmt.Sprintf("/download/%s/%s", userID, filename)
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/download/:user_id/:filename")
	c.SetParamNames("user_id", "filename")
	c.SetParamValues(userID, filename)

	require.NoError(t, DownloadHandler(resumeCache, signer)(c))
	return rec
}

func signedQuery(t *testing.T, signer *download.Signer, userID, filename string) string {
	t.Helper()
	path := signer.SignedPath(userID, filename)
	parts := strings.SplitN(path, "?", 2)
	require.Len(t, parts, 2)
	return parts[1]
}

func TestDownloadHandlerServesSignedFile(t *testing.T) {
	resumeCache, signer := newDownloadFixture(t)
	writeUserFile(t, resumeCache, downloadTestUser, "resume.tex", `\documentclass{article}`)

	rec := doDownload(t, resumeCache, signer, downloadTestUser, "resume.tex",
		signedQuery(t, signer, downloadTestUser, "resume.tex"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `\documentclass{article}`, rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "resume.tex")
}

func TestDownloadHandlerRejectsBadSignature(t *testing.T) {
	resumeCache, signer := newDownloadFixture(t)
	writeUserFile(t, resumeCache, downloadTestUser, "resume.tex", "content")

	exp := time.Now().Add(time.Hour).Unix()
	query := url.Values{"exp": {fmt.Sprint(exp)}, "sig": {"forged"}}.Encode()

	rec := doDownload(t, resumeCache, signer, downloadTestUser, "resume.tex", query)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_signature")
}

func TestDownloadHandlerRejectsMissingExpiry(t *testing.T) {
	resumeCache, signer := newDownloadFixture(t)

	rec := doDownload(t, resumeCache, signer, downloadTestUser, "resume.tex", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDownloadHandlerRejectsInvalidUser(t *testing.T) {
	resumeCache, signer := newDownloadFixture(t)

	rec := doDownload(t, resumeCache, signer, "guest", "resume.tex",
		signedQuery(t, signer, "guest", "resume.tex"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_user_id")
}

func TestDownloadHandlerRejectsTraversalFilename(t *testing.T) {
	resumeCache, signer := newDownloadFixture(t)

	rec := doDownload(t, resumeCache, signer, downloadTestUser, "..%2Fsecrets",
		signedQuery(t, signer, downloadTestUser, "..%2Fsecrets"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_filename")
}

func TestDownloadHandlerMissingFile(t *testing.T) {
	resumeCache, signer := newDownloadFixture(t)

	rec := doDownload(t, resumeCache, signer, downloadTestUser, "resume.tex",
		signedQuery(t, signer, downloadTestUser, "resume.tex"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
