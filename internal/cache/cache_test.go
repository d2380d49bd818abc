package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betterresume/internal/config"
	"betterresume/pkg/models"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	cfg := &config.Config{}
	cfg.Cache.OutputsBase = t.TempDir()
	cfg.Cache.Filename = "resume_cache.json"
	return New(cfg)
}

func testResume() *models.StructuredResume {
	return &models.StructuredResume{
		Language: "english",
		ResumeSection: models.ResumeSection{
			Title:               "Backend Engineer",
			ProfessionalSummary: "Builds reliable services.",
			Experience: []models.JobExperience{
				{Position: "Engineer", Company: "Acme", Description: "Shipped things."},
			},
			Skills: []models.Skill{
				{Name: "Go", Description: "Services and tooling."},
			},
		},
	}
}

func TestHashText(t *testing.T) {
	// sha256 of the empty string is a fixed vector
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", HashText(""))
	assert.Equal(t, HashText("hello"), HashText("hello"))
	assert.NotEqual(t, HashText("hello"), HashText("world"))
}

func TestResultSignatureDeterministic(t *testing.T) {
	a, err := ResultSignature("jdhash", "claude-3-haiku-20240307", "recordshash")
	require.NoError(t, err)
	b, err := ResultSignature("jdhash", "claude-3-haiku-20240307", "recordshash")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestResultSignatureVariesPerInput(t *testing.T) {
	base, err := ResultSignature("jdhash", "model-a", "recordshash")
	require.NoError(t, err)

	tests := []struct {
		name    string
		jobHash string
		model   string
		records string
	}{
		{"different job description", "other", "model-a", "recordshash"},
		{"different model", "jdhash", "model-b", "recordshash"},
		{"different records", "jdhash", "model-a", "otherhash"},
		{"missing records", "jdhash", "model-a", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, err := ResultSignature(tt.jobHash, tt.model, tt.records)
			require.NoError(t, err)
			assert.NotEqual(t, base, sig)
		})
	}
}

func TestRenderSignatureFormatCaseInsensitive(t *testing.T) {
	a, err := RenderSignature("resultsig", "LaTeX", false, nil)
	require.NoError(t, err)
	b, err := RenderSignature("resultsig", "latex", false, nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRenderSignatureProfileHashOnlyWhenIncluded(t *testing.T) {
	hash := "abc123"

	// The stored profile hash must not change the signature when the
	// picture is excluded.
	without, err := RenderSignature("resultsig", "latex", false, nil)
	require.NoError(t, err)
	withIgnoredHash, err := RenderSignature("resultsig", "latex", false, &hash)
	require.NoError(t, err)
	assert.Equal(t, without, withIgnoredHash)

	// Including the picture changes it, and so does the hash value.
	included, err := RenderSignature("resultsig", "latex", true, &hash)
	require.NoError(t, err)
	assert.NotEqual(t, without, included)

	other := "def456"
	otherIncluded, err := RenderSignature("resultsig", "latex", true, &other)
	require.NoError(t, err)
	assert.NotEqual(t, included, otherIncluded)
}

func TestRenderSignatureBoundToResult(t *testing.T) {
	a, err := RenderSignature("result-a", "latex", false, nil)
	require.NoError(t, err)
	b, err := RenderSignature("result-b", "latex", false, nil)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSaveAndLookup(t *testing.T) {
	c := newTestCache(t)

	resultSig, err := ResultSignature("jdhash", "model", "recordshash")
	require.NoError(t, err)
	renderSig, err := RenderSignature(resultSig, "latex", false, nil)
	require.NoError(t, err)

	_, ok := c.LookupResult("user-abcdef12", resultSig)
	assert.False(t, ok)

	c.Save("user-abcdef12", SaveEntry{
		ResultSignature:    resultSig,
		RenderSignature:    renderSig,
		Result:             testResume(),
		Model:              "model",
		RecordsHash:        "recordshash",
		JobDescriptionHash: "jdhash",
		Format:             "latex",
	})

	entry, ok := c.LookupResult("user-abcdef12", resultSig)
	require.True(t, ok)
	assert.Equal(t, "model", entry.Model)
	assert.Equal(t, "recordshash", entry.RecordsHash)
	assert.Equal(t, "Backend Engineer", entry.Result.ResumeSection.Title)
	assert.NotZero(t, entry.GeneratedAt)

	render, ok := c.LookupRender("user-abcdef12", renderSig)
	require.True(t, ok)
	assert.Equal(t, resultSig, render.ResultSignature)
	assert.Equal(t, "latex", render.Format)
}

func TestSaveMergesExistingEntries(t *testing.T) {
	c := newTestCache(t)
	userID := "user-abcdef12"

	sigA, err := ResultSignature("job-a", "model", "rec")
	require.NoError(t, err)
	sigB, err := ResultSignature("job-b", "model", "rec")
	require.NoError(t, err)

	c.Save(userID, SaveEntry{ResultSignature: sigA, Result: testResume(), Model: "model"})
	c.Save(userID, SaveEntry{ResultSignature: sigB, Result: testResume(), Model: "model"})

	_, ok := c.LookupResult(userID, sigA)
	assert.True(t, ok, "first entry must survive the second save")
	_, ok = c.LookupResult(userID, sigB)
	assert.True(t, ok)
}

func TestCorruptCacheFileTreatedAsEmpty(t *testing.T) {
	c := newTestCache(t)
	userID := "user-abcdef12"

	require.NoError(t, os.MkdirAll(c.UserDir(userID), 0755))
	require.NoError(t, os.WriteFile(c.cachePath(userID), []byte("{not json"), 0644))

	_, ok := c.LookupResult(userID, "anything")
	assert.False(t, ok)

	// Saving over a corrupt file must still work
	sig, err := ResultSignature("jd", "model", "rec")
	require.NoError(t, err)
	c.Save(userID, SaveEntry{ResultSignature: sig, Result: testResume(), Model: "model"})

	_, ok = c.LookupResult(userID, sig)
	assert.True(t, ok)
}

func TestUserCachesAreIsolated(t *testing.T) {
	c := newTestCache(t)

	sig, err := ResultSignature("jd", "model", "rec")
	require.NoError(t, err)
	c.Save("user-aaaaaaaa", SaveEntry{ResultSignature: sig, Result: testResume(), Model: "model"})

	_, ok := c.LookupResult("user-bbbbbbbb", sig)
	assert.False(t, ok)

	assert.NotEqual(t, c.UserDir("user-aaaaaaaa"), c.UserDir("user-bbbbbbbb"))
	assert.Equal(t, filepath.Base(c.UserDir("user-aaaaaaaa")), "user-aaaaaaaa")
}
