// Package catalog keeps the in-memory catalog in sync with its source and the local cache.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/j-veylop/aximo-tui/internal/db"
	"github.com/j-veylop/aximo-tui/internal/logger"
	"github.com/j-veylop/aximo-tui/internal/models"
)

// EventType defines the type of catalog event.
type EventType int

const (
	// EventCatalogLoaded is sent when records first become available.
	EventCatalogLoaded EventType = iota
	// EventCatalogChanged is sent after a refresh replaced the records.
	EventCatalogChanged
	// EventError is sent when a refresh fails.
	EventError
)

// Event represents a catalog service event.
type Event struct {
	Error     error
	Source    string
	NewIDs    []string
	Type      EventType
	Count     int
	FromCache bool
}

// Store persists catalog snapshots. *db.DB satisfies it.
type Store interface {
	ReplaceModels(records []models.ModelRecord) ([]string, error)
	ListModels() ([]models.ModelRecord, error)
	RecordSync(s db.SyncRecord) error
}

// Config holds configuration for the catalog service.
type Config struct {
	PollInterval time.Duration
	FetchTimeout time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		PollInterval: 60 * time.Second,
		FetchTimeout: 30 * time.Second,
	}
}

// Service owns the current catalog.
type Service struct {
	source    Source
	store     Store
	records   []models.ModelRecord
	lastSync  time.Time
	lastErr   error
	eventChan chan Event
	stopChan  chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	config    Config
	mu        sync.RWMutex
	refreshMu sync.Mutex
	wg        sync.WaitGroup
	fromCache bool
	started   bool
}

// idNamespace scopes the IDs derived for records that arrive without one.
var idNamespace = uuid.MustParse("6f1c8a52-3d4e-4b8f-9a0c-2e5d7f9b1a64")

// New creates a catalog service. store may be nil to run without a cache.
func New(source Source, store Store, config Config) *Service {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultConfig().PollInterval
	}
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = DefaultConfig().FetchTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		source:    source,
		store:     store,
		records:   []models.ModelRecord{},
		eventChan: make(chan Event, 100),
		stopChan:  make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		config:    config,
	}
}

// Start loads the cached snapshot and begins polling the source.
func (s *Service) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	s.loadFromCache()

	s.wg.Add(1)
	go s.poll()
}

// Events returns the event channel.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Records returns a copy of the current catalog in source order.
func (s *Service) Records() []models.ModelRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ModelRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Find returns the record with the given ID.
func (s *Service) Find(id string) (models.ModelRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.records {
		if s.records[i].ID == id {
			return s.records[i], true
		}
	}
	return models.ModelRecord{}, false
}

// Status describes the last refresh.
type Status struct {
	LastSync  time.Time
	LastError error
	Source    string
	Count     int
	FromCache bool
}

// Status returns the current sync status.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		LastSync:  s.lastSync,
		LastError: s.lastErr,
		Source:    s.source.Name(),
		Count:     len(s.records),
		FromCache: s.fromCache,
	}
}

// Refresh fetches the catalog from the source and stores it. When the source
// fails and nothing is loaded yet, the cached snapshot is served instead.
func (s *Service) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.config.FetchTimeout)
	defer cancel()

	records, err := s.source.Fetch(ctx)
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		empty := len(s.records) == 0
		s.mu.Unlock()

		logger.Warn("catalog refresh failed", "source", s.source.Name(), "error", err)
		s.sendEvent(Event{Type: EventError, Error: err, Source: s.source.Name()})
		if empty {
			s.loadFromCache()
		}
		return fmt.Errorf("failed to fetch catalog: %w", err)
	}

	assignMissingIDs(records)

	s.mu.RLock()
	hadRecords := len(s.records) > 0
	previous := make(map[string]struct{}, len(s.records))
	for i := range s.records {
		previous[s.records[i].ID] = struct{}{}
	}
	s.mu.RUnlock()

	newIDs := s.persist(records, previous)

	s.mu.Lock()
	s.records = records
	s.lastSync = time.Now()
	s.lastErr = nil
	s.fromCache = false
	s.mu.Unlock()

	event := Event{Type: EventCatalogLoaded, Source: s.source.Name(), Count: len(records)}
	if hadRecords {
		event.Type = EventCatalogChanged
		event.NewIDs = newIDs
	}
	s.sendEvent(event)
	return nil
}

// persist writes records to the store and returns the IDs it had not seen.
// Without a store, IDs are compared against the previous in-memory snapshot.
func (s *Service) persist(records []models.ModelRecord, previous map[string]struct{}) []string {
	if s.store == nil {
		return diffIDs(records, previous)
	}

	newIDs, err := s.store.ReplaceModels(records)
	if err != nil {
		logger.Error("failed to cache catalog", "error", err)
		return diffIDs(records, previous)
	}

	purchases := 0
	for i := range records {
		purchases += max(records[i].PurchasedCount, 0)
	}
	if err := s.store.RecordSync(db.SyncRecord{
		Source:         s.source.Name(),
		TotalModels:    len(records),
		TotalPurchases: purchases,
		NewModels:      len(newIDs),
	}); err != nil {
		logger.Error("failed to record sync", "error", err)
	}
	return newIDs
}

func diffIDs(records []models.ModelRecord, previous map[string]struct{}) []string {
	var out []string
	for i := range records {
		if _, ok := previous[records[i].ID]; !ok {
			out = append(out, records[i].ID)
		}
	}
	return out
}

// assignMissingIDs gives records without an ID a stable one derived from
// their content, so they compare equal across refreshes.
func assignMissingIDs(records []models.ModelRecord) {
	for i := range records {
		if records[i].ID != "" {
			continue
		}
		r := &records[i]
		key := r.Name + "\x00" + r.Framework + "\x00" + r.CreatedBy + "\x00" + r.CreatedAt.UTC().Format(time.RFC3339Nano)
		r.ID = uuid.NewSHA1(idNamespace, []byte(key)).String()
	}
}

func (s *Service) loadFromCache() {
	if s.store == nil {
		return
	}
	records, err := s.store.ListModels()
	if err != nil {
		logger.Error("failed to load cached catalog", "error", err)
		return
	}
	if len(records) == 0 {
		return
	}

	s.mu.Lock()
	if len(s.records) > 0 {
		s.mu.Unlock()
		return
	}
	s.records = records
	s.fromCache = true
	s.mu.Unlock()

	s.sendEvent(Event{Type: EventCatalogLoaded, Source: "cache", Count: len(records), FromCache: true})
}

// poll runs the background refresh loop.
func (s *Service) poll() {
	defer s.wg.Done()

	if err := s.Refresh(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Debug("initial catalog refresh failed", "error", err)
	}

	var changes <-chan struct{}
	if n, ok := s.source.(Notifier); ok {
		changes = n.Changes()
	}

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = s.Refresh(s.ctx)
		case <-changes:
			_ = s.Refresh(s.ctx)
		case <-s.stopChan:
			return
		}
	}
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops polling and waits for the loop to exit.
func (s *Service) Close() error {
	s.mu.Lock()
	select {
	case <-s.stopChan:
		s.mu.Unlock()
		return nil
	default:
		close(s.stopChan)
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()

	if c, ok := s.source.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
