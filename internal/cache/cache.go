package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"betterresume/internal/config"
	"betterresume/internal/logging"
	"betterresume/pkg/models"
)

// ResultEntry caches a generated structured resume keyed by result signature
type ResultEntry struct {
	Result             *models.StructuredResume `json:"result"`
	Model              string                   `json:"model"`
	RecordsHash        string                   `json:"csv_hash"`
	JobDescriptionHash string                   `json:"job_description_hash"`
	GeneratedAt        int64                    `json:"generated_at"`
}

// RenderEntry caches a rendered output keyed by render signature. It points
// back at the result it was rendered from.
type RenderEntry struct {
	ResultSignature       string  `json:"result_signature"`
	Format                string  `json:"format"`
	IncludeProfilePicture bool    `json:"include_profile_picture"`
	ProfileHash           *string `json:"profile_hash"`
	GeneratedAt           int64   `json:"generated_at"`
}

// document is the on-disk cache layout, one file per user
type document struct {
	Results map[string]*ResultEntry `json:"results"`
	Renders map[string]*RenderEntry `json:"renders"`
}

func newDocument() *document {
	return &document{
		Results: make(map[string]*ResultEntry),
		Renders: make(map[string]*RenderEntry),
	}
}

// Cache is a per-user, content-addressed result cache. Generation results and
// renders are cached under separate signatures so a format change alone never
// re-invokes the model.
type Cache struct {
	baseDir  string
	filename string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a cache rooted at the configured outputs directory
func New(cfg *config.Config) *Cache {
	return &Cache{
		baseDir:  cfg.Cache.OutputsBase,
		filename: cfg.Cache.Filename,
		locks:    make(map[string]*sync.Mutex),
	}
}

// UserDir returns the output directory for a user
func (c *Cache) UserDir(userID string) string {
	return filepath.Join(c.baseDir, userID)
}

func (c *Cache) cachePath(userID string) string {
	return filepath.Join(c.UserDir(userID), c.filename)
}

// userLock returns the mutex serializing cache writes for one user
func (c *Cache) userLock(userID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	lock, ok := c.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[userID] = lock
	}
	return lock
}

// load reads a user's cache file. A missing or corrupt file is an empty
// cache, never an error.
func (c *Cache) load(userID string) *document {
	data, err := os.ReadFile(c.cachePath(userID))
	if err != nil {
		return newDocument()
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		logging.GetGlobalLogger().Warn("Resume cache is corrupt, treating as empty", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return newDocument()
	}

	if doc.Results == nil {
		doc.Results = make(map[string]*ResultEntry)
	}
	if doc.Renders == nil {
		doc.Renders = make(map[string]*RenderEntry)
	}
	return &doc
}

// LookupResult returns the cached generation result for a signature
func (c *Cache) LookupResult(userID, signature string) (*ResultEntry, bool) {
	lock := c.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	entry, ok := c.load(userID).Results[signature]
	if !ok || entry == nil || entry.Result == nil {
		return nil, false
	}
	return entry, true
}

// LookupRender returns the cached render entry for a signature
func (c *Cache) LookupRender(userID, signature string) (*RenderEntry, bool) {
	lock := c.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	entry, ok := c.load(userID).Renders[signature]
	if !ok || entry == nil {
		return nil, false
	}
	return entry, true
}

// SaveEntry records a generation result and its render under their
// signatures. The file is re-read and merged under the user's lock so
// concurrent saves for different signatures both survive; the write is
// atomic via tmp+rename. Failures are logged and swallowed, a broken cache
// must never fail a generation.
type SaveEntry struct {
	ResultSignature       string
	RenderSignature       string
	Result                *models.StructuredResume
	Model                 string
	RecordsHash           string
	JobDescriptionHash    string
	Format                string
	IncludeProfilePicture bool
	ProfileHash           *string
}

// Save persists a cache entry for a user
func (c *Cache) Save(userID string, entry SaveEntry) {
	lock := c.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	doc := c.load(userID)
	generatedAt := time.Now().Unix()

	if entry.ResultSignature != "" && entry.Result != nil {
		doc.Results[entry.ResultSignature] = &ResultEntry{
			Result:             entry.Result,
			Model:              entry.Model,
			RecordsHash:        entry.RecordsHash,
			JobDescriptionHash: entry.JobDescriptionHash,
			GeneratedAt:        generatedAt,
		}
	}

	if entry.RenderSignature != "" && entry.ResultSignature != "" {
		doc.Renders[entry.RenderSignature] = &RenderEntry{
			ResultSignature:       entry.ResultSignature,
			Format:                entry.Format,
			IncludeProfilePicture: entry.IncludeProfilePicture,
			ProfileHash:           entry.ProfileHash,
			GeneratedAt:           generatedAt,
		}
	}

	if err := c.write(userID, doc); err != nil {
		logging.GetGlobalLogger().Warn("Unable to persist resume cache", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
}

func (c *Cache) write(userID string, doc *document) error {
	dir := c.UserDir(userID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	path := c.cachePath(userID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// HashText returns the SHA-256 hash of a text value
func HashText(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// canonicalJSON encodes a payload the way the signatures require: compact,
// with object keys sorted. encoding/json sorts map keys, which gives the
// stable byte sequence.
func canonicalJSON(payload map[string]interface{}) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ResultSignature identifies a generation result. Two requests share a
// result iff they have the same job description, the same records and the
// same model.
func ResultSignature(jobDescriptionHash, model, recordsHash string) (string, error) {
	payload := map[string]interface{}{
		"job_description_hash": jobDescriptionHash,
		"model":                model,
	}
	if recordsHash != "" {
		payload["csv_hash"] = recordsHash
	} else {
		payload["csv_hash"] = nil
	}

	serialized, err := canonicalJSON(payload)
	if err != nil {
		return "", fmt.Errorf("failed to build result signature: %w", err)
	}
	return HashText(serialized), nil
}

// RenderSignature identifies a rendered output. It extends the result
// signature with the render parameters; the profile hash only participates
// when the picture is actually included.
func RenderSignature(resultSignature, format string, includeProfilePicture bool, profileHash *string) (string, error) {
	payload := map[string]interface{}{
		"result_signature":        resultSignature,
		"format":                  strings.ToLower(format),
		"include_profile_picture": includeProfilePicture,
	}
	if includeProfilePicture && profileHash != nil {
		payload["profile_hash"] = *profileHash
	} else {
		payload["profile_hash"] = nil
	}

	serialized, err := canonicalJSON(payload)
	if err != nil {
		return "", fmt.Errorf("failed to build render signature: %w", err)
	}
	return HashText(serialized), nil
}
