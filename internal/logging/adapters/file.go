package adapters

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"betterresume/internal/logging/types"
)

// FileAdapter implements the LogAdapter interface for file output
type FileAdapter struct {
	name       string
	config     FileConfig
	file       *os.File
	size       int64
	mu         sync.Mutex
}

// FileConfig represents configuration for the file adapter
type FileConfig struct {
	FilePath    string `yaml:"file_path"`
	Format      string `yaml:"format"`       // json or text
	MaxSize     int64  `yaml:"max_size"`     // max size in bytes before rotation, 0 disables
	MaxBackups  int    `yaml:"max_backups"`  // number of rotated files to keep
	CreateDirs  bool   `yaml:"create_dirs"`  // create parent directories if missing
	SyncOnWrite bool   `yaml:"sync_on_write"`
}

// NewFileAdapter creates a new file adapter
func NewFileAdapter(name string, config FileConfig) (*FileAdapter, error) {
	if config.FilePath == "" {
		return nil, fmt.Errorf("file_path is required for file adapter")
	}

	if config.CreateDirs {
		if err := os.MkdirAll(filepath.Dir(config.FilePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	adapter := &FileAdapter{
		name:   name,
		config: config,
	}

	if err := adapter.open(); err != nil {
		return nil, err
	}

	return adapter, nil
}

func (a *FileAdapter) open() error {
	file, err := os.OpenFile(a.config.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", a.config.FilePath, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to stat log file %s: %w", a.config.FilePath, err)
	}

	a.file = file
	a.size = info.Size()
	return nil
}

// Write writes a log entry to the file
func (a *FileAdapter) Write(entry *types.LogEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return fmt.Errorf("file adapter %s is closed", a.name)
	}

	var line string
	var err error

	switch strings.ToLower(a.config.Format) {
	case "text":
		line = fmt.Sprintf("%s [%s] %s", entry.Timestamp.Format(time.RFC3339), strings.ToUpper(entry.Level.String()), entry.Message)
		for k, v := range entry.Fields {
			line += fmt.Sprintf(" %s=%v", k, v)
		}
	default:
		logData := map[string]interface{}{
			"level":   entry.Level.String(),
			"message": entry.Message,
			"time":    entry.Timestamp.Format(time.RFC3339),
		}
		for k, v := range entry.Fields {
			logData[k] = v
		}
		var data []byte
		data, err = json.Marshal(logData)
		if err != nil {
			return fmt.Errorf("failed to format log entry: %w", err)
		}
		line = string(data)
	}

	n, err := fmt.Fprintln(a.file, line)
	if err != nil {
		return err
	}
	a.size += int64(n)

	if a.config.SyncOnWrite {
		if err := a.file.Sync(); err != nil {
			return err
		}
	}

	if a.config.MaxSize > 0 && a.size >= a.config.MaxSize {
		return a.rotate()
	}

	return nil
}

// rotate rotates the current log file. Caller must hold the mutex.
func (a *FileAdapter) rotate() error {
	if err := a.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file for rotation: %w", err)
	}

	// Shift existing backups: file.2 -> file.3, file.1 -> file.2, ...
	for i := a.config.MaxBackups - 1; i >= 1; i-- {
		src := fmt.Sprintf("%s.%d", a.config.FilePath, i)
		dst := fmt.Sprintf("%s.%d", a.config.FilePath, i+1)
		if _, err := os.Stat(src); err == nil {
			os.Rename(src, dst)
		}
	}

	if a.config.MaxBackups > 0 {
		if err := os.Rename(a.config.FilePath, a.config.FilePath+".1"); err != nil {
			return fmt.Errorf("failed to rotate log file: %w", err)
		}
	} else {
		if err := os.Remove(a.config.FilePath); err != nil {
			return fmt.Errorf("failed to truncate log file: %w", err)
		}
	}

	return a.open()
}

// Close closes the file adapter
func (a *FileAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return nil
	}

	err := a.file.Close()
	a.file = nil
	return err
}

// Health returns the health status of the adapter
func (a *FileAdapter) Health() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return fmt.Errorf("file adapter %s is closed", a.name)
	}
	return nil
}

// Name returns the name of the adapter
func (a *FileAdapter) Name() string {
	return a.name
}
