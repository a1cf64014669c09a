// Package services provides service orchestration for the TUI.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/j-veylop/aximo-tui/internal/api"
	"github.com/j-veylop/aximo-tui/internal/config"
	"github.com/j-veylop/aximo-tui/internal/db"
	"github.com/j-veylop/aximo-tui/internal/logger"
	"github.com/j-veylop/aximo-tui/internal/models"
	"github.com/j-veylop/aximo-tui/internal/services/catalog"
	"github.com/j-veylop/aximo-tui/internal/session"
)

type (
	// CatalogUpdatedEvent is emitted whenever the in-memory catalog is replaced.
	CatalogUpdatedEvent struct {
		Source    string
		Count     int
		FromCache bool
	}

	// NewModelsEvent is emitted when a refresh brings models not seen before.
	NewModelsEvent struct {
		Models []models.ModelRecord
	}

	// PurchaseCompletedEvent is emitted after a purchase was accepted.
	PurchaseCompletedEvent struct {
		Purchase models.Purchase
	}

	// ProfileLoadedEvent is emitted once the signed-in user's profile is known.
	ProfileLoadedEvent struct {
		User models.User
	}

	// SessionEndedEvent is emitted when the backend rejected the token.
	SessionEndedEvent struct {
		Reason error
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (CatalogUpdatedEvent) isServiceEvent()    {}
func (NewModelsEvent) isServiceEvent()         {}
func (PurchaseCompletedEvent) isServiceEvent() {}
func (ProfileLoadedEvent) isServiceEvent()     {}
func (SessionEndedEvent) isServiceEvent()      {}
func (ErrorEvent) isServiceEvent()             {}

// notifyFunc shows a desktop notification.
type notifyFunc func(title, body string) error

func desktopNotify(title, body string) error {
	return beeep.Notify(title, body, "")
}

// Manager orchestrates services and event routing.
type Manager struct {
	mu          sync.RWMutex
	cfg         *config.Config
	session     *session.Holder
	client      *api.Client
	catalog     *catalog.Service
	database    *db.DB
	profile     *models.User
	notify      notifyFunc
	eventChan   chan ServiceEvent
	stopChan    chan struct{}
	subscribers []chan<- ServiceEvent
	wg          sync.WaitGroup
	closeOnce   sync.Once
}

// NewManager creates a new service manager and starts syncing the catalog.
func NewManager(cfg *config.Config) (*Manager, error) {
	m := &Manager{
		cfg:       cfg,
		notify:    desktopNotify,
		eventChan: make(chan ServiceEvent, 100),
		stopChan:  make(chan struct{}),
	}

	var err error
	m.session, err = session.NewHolder(cfg.Token)
	if err != nil {
		logger.Warn("Ignoring unreadable token", "error", err)
		m.session, _ = session.NewHolder("")
	}
	if s := m.session.Get(); s != nil && s.Expired(time.Now()) {
		logger.Warn("Stored token has expired", "email", s.Email)
		m.session.Clear()
	}

	m.client, err = api.New(cfg.APIURL, m.session.Token, api.WithRateLimit(cfg.RateLimit))
	if err != nil && !cfg.UsesSnapshot() {
		return nil, fmt.Errorf("failed to create api client: %w", err)
	}

	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	source, err := m.newSource()
	if err != nil {
		_ = m.database.Close()
		return nil, err
	}

	catalogConfig := catalog.DefaultConfig()
	if cfg.RefreshInterval > 0 {
		catalogConfig.PollInterval = cfg.RefreshInterval
	}
	m.catalog = catalog.New(source, m.database, catalogConfig)

	m.wg.Add(1)
	go m.routeEvents()
	m.catalog.Start()

	if m.session.Get() != nil && m.client != nil {
		m.wg.Add(1)
		go m.loadProfile()
	}

	return m, nil
}

func (m *Manager) newSource() (catalog.Source, error) {
	if m.cfg.UsesSnapshot() {
		source, err := catalog.NewFileSource(m.cfg.SnapshotPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open snapshot: %w", err)
		}
		return source, nil
	}
	return catalog.NewAPISource(m.client), nil
}

// routeEvents routes events from the catalog service to subscribers.
func (m *Manager) routeEvents() {
	defer m.wg.Done()
	for {
		select {
		case event := <-m.catalog.Events():
			m.handleCatalogEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

// handleCatalogEvent converts and broadcasts catalog events.
func (m *Manager) handleCatalogEvent(event catalog.Event) {
	switch event.Type {
	case catalog.EventCatalogLoaded, catalog.EventCatalogChanged:
		m.broadcast(CatalogUpdatedEvent{
			Source:    event.Source,
			Count:     event.Count,
			FromCache: event.FromCache,
		})

		if event.Type == catalog.EventCatalogChanged && len(event.NewIDs) > 0 {
			m.announceNewModels(event.NewIDs)
		}

	case catalog.EventError:
		m.handleError("catalog", event.Error)
	}
}

func (m *Manager) announceNewModels(ids []string) {
	added := make([]models.ModelRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := m.catalog.Find(id); ok {
			added = append(added, rec)
		}
	}
	if len(added) == 0 {
		return
	}

	m.broadcast(NewModelsEvent{Models: added})

	if !m.cfg.NotifyNewModels {
		return
	}
	title, body := newModelsNotification(added)
	if err := m.notify(title, body); err != nil {
		logger.Debug("Desktop notification failed", "error", err)
	}
}

func newModelsNotification(added []models.ModelRecord) (title, body string) {
	if len(added) == 1 {
		return "New model on Aximo", fmt.Sprintf("%s (%s)", added[0].Name, added[0].Framework)
	}

	names := make([]string, 0, 3)
	for i := range added {
		if i == 3 {
			break
		}
		names = append(names, added[i].Name)
	}
	body = strings.Join(names, ", ")
	if len(added) > 3 {
		body += fmt.Sprintf(" and %d more", len(added)-3)
	}
	return fmt.Sprintf("%d new models on Aximo", len(added)), body
}

// handleError broadcasts err. A rejected token also ends the session.
func (m *Manager) handleError(service string, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, api.ErrUnauthorized) {
		m.endSession(err)
		return
	}
	m.broadcast(ErrorEvent{Service: service, Error: err})
}

func (m *Manager) endSession(reason error) {
	m.mu.Lock()
	m.profile = nil
	m.mu.Unlock()

	if m.session.Clear() {
		logger.Warn("Session ended", "reason", reason)
		m.broadcast(SessionEndedEvent{Reason: reason})
	}
}

// loadProfile fetches the signed-in user's record, registering the user the
// first time they are seen.
func (m *Manager) loadProfile() {
	defer m.wg.Done()

	ctx, cancel := m.stopContext(30 * time.Second)
	defer cancel()

	s := m.session.Get()
	if s == nil || s.Email == "" {
		return
	}

	user, err := m.client.GetUser(ctx, s.Email)
	if errors.Is(err, api.ErrNotFound) {
		user = models.User{Name: s.DisplayName(), Email: s.Email}
		if regErr := m.client.RegisterUser(ctx, user); regErr != nil {
			m.handleError("users", regErr)
			return
		}
		err = nil
	}
	if err != nil {
		if ctx.Err() == nil {
			m.handleError("users", err)
		}
		return
	}

	// The session may have ended while the request was in flight.
	if m.session.Get() != s {
		return
	}
	m.mu.Lock()
	m.profile = &user
	m.mu.Unlock()
	m.broadcast(ProfileLoadedEvent{User: user})
}

// stopContext returns a context cancelled on Close or after timeout.
func (m *Manager) stopContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	go func() {
		select {
		case <-m.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	// Send to main event channel
	select {
	case m.eventChan <- event:
	default:
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, waitForEvent(ch)
}

func waitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return event
	}
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return waitForEvent(ch)
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	var errs []error

	m.closeOnce.Do(func() {
		m.mu.Lock()
		if m.stopChan != nil {
			close(m.stopChan)
		}
		m.mu.Unlock()

		if m.catalog != nil {
			if err := m.catalog.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		m.wg.Wait()

		m.mu.Lock()
		for _, sub := range m.subscribers {
			close(sub)
		}
		m.subscribers = nil
		m.mu.Unlock()

		if m.database != nil {
			if err := m.database.Vacuum(); err != nil {
				logger.Debug("Cache vacuum failed", "error", err)
			}
			if err := m.database.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})

	return errors.Join(errs...)
}
