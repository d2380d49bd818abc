package profile

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// supported profile picture extensions, in resolution order
var extensions = []string{".png", ".jpg"}

var contentTypeExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
}

// Store keeps one profile picture per user on disk
type Store struct {
	baseDir string
}

// NewStore creates a profile picture store rooted at baseDir
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create profile picture directory: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

func (s *Store) path(userID, ext string) string {
	return filepath.Join(s.baseDir, "profile_"+userID+ext)
}

// DetectExtension maps an upload's content type or filename to a supported
// extension. Returns false for unsupported image types.
func DetectExtension(contentType, filename string) (string, bool) {
	if ext, ok := contentTypeExtensions[strings.ToLower(contentType)]; ok {
		return ext, true
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return ".png", true
	case ".jpg", ".jpeg":
		return ".jpg", true
	}
	return "", false
}

// Save stores a user's profile picture, replacing any previous one
func (s *Store) Save(userID string, data io.Reader, ext string) (string, error) {
	// Drop pictures stored under other extensions first
	for _, old := range extensions {
		if old != ext {
			os.Remove(s.path(userID, old))
		}
	}

	path := s.path(userID, ext)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to store profile picture: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, data); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to store profile picture: %w", err)
	}

	return path, nil
}

// Resolve returns the stored profile picture path for a user if present
func (s *Store) Resolve(userID string) (string, bool) {
	for _, ext := range extensions {
		candidate := s.path(userID, ext)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// Hash returns the SHA-256 of the stored picture, or nil when absent
func (s *Store) Hash(userID string) *string {
	path, ok := s.Resolve(userID)
	if !ok {
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return nil
	}

	digest := hex.EncodeToString(hasher.Sum(nil))
	return &digest
}

// Delete removes a user's profile picture
func (s *Store) Delete(userID string) {
	for _, ext := range extensions {
		os.Remove(s.path(userID, ext))
	}
}
