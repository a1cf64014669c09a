package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/j-veylop/aximo-tui/internal/logger"
	"github.com/j-veylop/aximo-tui/internal/models"
)

// Source yields the full catalog.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]models.ModelRecord, error)
}

// Notifier is implemented by sources that can announce changes on their own.
type Notifier interface {
	Changes() <-chan struct{}
}

// ModelLister is the part of the API client the catalog needs.
type ModelLister interface {
	ListModels(ctx context.Context) ([]models.ModelRecord, error)
}

// APISource reads the catalog from the backend.
type APISource struct {
	client ModelLister
}

// NewAPISource creates a source backed by the REST client.
func NewAPISource(client ModelLister) *APISource {
	return &APISource{client: client}
}

// Name implements Source.
func (s *APISource) Name() string { return "api" }

// Fetch implements Source.
func (s *APISource) Fetch(ctx context.Context) ([]models.ModelRecord, error) {
	return s.client.ListModels(ctx)
}

// FileSource reads a catalog snapshot from disk and watches it for changes.
// JSON and YAML snapshots are accepted; either may be a bare list or wrapped
// in a "result" key.
type FileSource struct {
	path          string
	watcher       *fsnotify.Watcher
	changes       chan struct{}
	stopChan      chan struct{}
	mu            sync.Mutex
	debounceTimer *time.Timer
	closeOnce     sync.Once
}

// NewFileSource creates a file source. The file does not have to exist yet.
func NewFileSource(path string) (*FileSource, error) {
	if path == "" {
		return nil, fmt.Errorf("snapshot path is empty")
	}
	s := &FileSource{
		path:     path,
		changes:  make(chan struct{}, 1),
		stopChan: make(chan struct{}),
	}
	if err := s.startWatcher(); err != nil {
		return nil, fmt.Errorf("failed to start file watcher: %w", err)
	}
	return s, nil
}

// Name implements Source.
func (s *FileSource) Name() string { return "file" }

// Path returns the snapshot path.
func (s *FileSource) Path() string { return s.path }

// Changes implements Notifier.
func (s *FileSource) Changes() <-chan struct{} { return s.changes }

// Fetch implements Source.
func (s *FileSource) Fetch(ctx context.Context) ([]models.ModelRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return ParseSnapshot(data, filepath.Ext(s.path))
}

// ParseSnapshot decodes snapshot bytes. ext selects YAML for ".yaml" and
// ".yml"; anything else is read as JSON.
func ParseSnapshot(data []byte, ext string) ([]models.ModelRecord, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse yaml snapshot: %w", err)
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to convert yaml snapshot: %w", err)
		}
		data = converted
	}

	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var envelope struct {
			Result json.RawMessage `json:"result"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			return nil, fmt.Errorf("failed to parse snapshot: %w", err)
		}
		if len(envelope.Result) == 0 {
			return nil, fmt.Errorf("failed to parse snapshot: object without result key")
		}
		data = envelope.Result
	}
	return models.DecodeModelRecords(data)
}

func (s *FileSource) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	s.watcher = watcher

	// Watch the directory (to catch file creation and atomic renames)
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return err
	}

	go s.watchLoop()
	return nil
}

// watchLoop handles file system events with debouncing.
func (s *FileSource) watchLoop() {
	const debounceInterval = 100 * time.Millisecond

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filepath.Base(s.path) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				s.mu.Lock()
				if s.debounceTimer != nil {
					s.debounceTimer.Stop()
				}
				s.debounceTimer = time.AfterFunc(debounceInterval, s.notify)
				s.mu.Unlock()
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("snapshot watcher error", "path", s.path, "error", err)

		case <-s.stopChan:
			return
		}
	}
}

func (s *FileSource) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// Close stops the file watcher.
func (s *FileSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopChan)

		s.mu.Lock()
		if s.debounceTimer != nil {
			s.debounceTimer.Stop()
		}
		s.mu.Unlock()

		if s.watcher != nil {
			err = s.watcher.Close()
		}
	})
	return err
}
