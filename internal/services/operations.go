package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/j-veylop/aximo-tui/internal/api"
	"github.com/j-veylop/aximo-tui/internal/catalog"
	"github.com/j-veylop/aximo-tui/internal/config"
	"github.com/j-veylop/aximo-tui/internal/db"
	"github.com/j-veylop/aximo-tui/internal/export"
	"github.com/j-veylop/aximo-tui/internal/logger"
	"github.com/j-veylop/aximo-tui/internal/models"
	catalogsvc "github.com/j-veylop/aximo-tui/internal/services/catalog"
	"github.com/j-veylop/aximo-tui/internal/session"
)

var (
	// ErrOffline is returned for operations that need the backend when only
	// a snapshot file is configured.
	ErrOffline = errors.New("backend not configured")
	// ErrAlreadyPurchased is returned when the user already owns a copy.
	ErrAlreadyPurchased = errors.New("model already purchased")
	// ErrForbidden is returned when the signed-in user lacks the admin role
	// or does not own the model.
	ErrForbidden = errors.New("permission denied")
	// ErrModelNotFound is returned when an ID is not in the catalog.
	ErrModelNotFound = errors.New("model not found")
)

// recentLimit is the number of models listed on the dashboard.
const recentLimit = 5

// Dashboard is the per-user summary shown on the dashboard tab. When no
// one is signed in it describes the whole catalog.
type Dashboard struct {
	Stats       catalog.AggregateStats
	Breakdown   []catalog.FrameworkCount
	Recent      []models.ModelRecord
	MyModels    []models.ModelRecord
	MyPurchases []models.Purchase
	SignedIn    bool
}

// ExportResult describes a finished export.
type ExportResult struct {
	Path  string
	Count int
}

// Records returns a copy of the current catalog in source order.
func (m *Manager) Records() []models.ModelRecord {
	return m.catalog.Records()
}

// Query filters and sorts the current catalog.
func (m *Manager) Query(spec catalog.QuerySpec) []models.ModelRecord {
	return catalog.Query(m.catalog.Records(), spec)
}

// Facets returns the filter options for the current catalog.
func (m *Manager) Facets() catalog.Facets {
	return catalog.DeriveFacets(m.catalog.Records())
}

// Find looks up one model in the current catalog.
func (m *Manager) Find(id string) (models.ModelRecord, bool) {
	return m.catalog.Find(id)
}

// Refresh fetches the catalog now.
func (m *Manager) Refresh(ctx context.Context) error {
	return m.catalog.Refresh(ctx)
}

// CatalogStatus reports the last sync.
func (m *Manager) CatalogStatus() catalogsvc.Status {
	return m.catalog.Status()
}

// Session returns the current session, or nil when signed out.
func (m *Manager) Session() *session.Session {
	return m.session.Get()
}

// Profile returns the signed-in user's backend record once loaded.
func (m *Manager) Profile() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.profile == nil {
		return nil
	}
	u := *m.profile
	return &u
}

// IsAdmin reports whether the signed-in user holds the admin role, either
// in the token or in the backend's user record.
func (m *Manager) IsAdmin() bool {
	s := m.session.Get()
	if s == nil {
		return false
	}
	if s.IsAdmin() {
		return true
	}
	p := m.Profile()
	return p != nil && p.IsAdmin()
}

// Config returns the configuration the manager was built with.
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// Database returns the database instance for direct access.
func (m *Manager) Database() *db.DB {
	return m.database
}

// SignOut forgets the current session and the saved token.
func (m *Manager) SignOut() error {
	m.mu.Lock()
	m.profile = nil
	m.mu.Unlock()

	if !m.session.Clear() {
		return nil
	}
	if m.cfg.TokenPath == "" {
		return nil
	}
	if err := config.SaveTokenFile(m.cfg.TokenPath, ""); err != nil {
		return fmt.Errorf("failed to remove saved token: %w", err)
	}
	return nil
}

// LoadDashboard gathers the signed-in user's models and purchases.
func (m *Manager) LoadDashboard(ctx context.Context) (*Dashboard, error) {
	s := m.session.Get()
	if s == nil {
		records := m.catalog.Records()
		return &Dashboard{
			Stats:     catalog.Aggregate(records),
			Breakdown: catalog.FrameworkBreakdown(records),
			Recent:    m.recentModels(ctx, records),
		}, nil
	}

	dash := &Dashboard{SignedIn: true}

	if m.client == nil {
		dash.MyModels = m.ownedRecords(s.Email)
		purchases, err := m.database.ListPurchases(s.Email)
		if err != nil {
			return nil, err
		}
		dash.MyPurchases = purchases
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			mine, err := m.client.MyModels(gctx, s.Email)
			if err != nil {
				return fmt.Errorf("failed to load your models: %w", err)
			}
			dash.MyModels = mine
			return nil
		})
		g.Go(func() error {
			purchases, err := m.client.MyPurchases(gctx, s.Email)
			if err != nil {
				return fmt.Errorf("failed to load your purchases: %w", err)
			}
			dash.MyPurchases = purchases
			return nil
		})
		if err := g.Wait(); err != nil {
			m.checkSession(err)
			return nil, err
		}
		m.cachePurchases(dash.MyPurchases)
	}

	dash.Stats = catalog.Aggregate(dash.MyModels)
	dash.Breakdown = catalog.FrameworkBreakdown(dash.MyModels)
	dash.Recent = catalog.Recent(dash.MyModels, recentLimit)
	return dash, nil
}

// recentModels asks the backend for its newest models, falling back to
// sorting the local catalog.
func (m *Manager) recentModels(ctx context.Context, records []models.ModelRecord) []models.ModelRecord {
	if m.client != nil {
		recent, err := m.client.RecentModels(ctx)
		if err == nil {
			return catalog.Recent(recent, recentLimit)
		}
		logger.Debug("Using cached catalog for recent models", "error", err)
	}
	return catalog.Recent(catalog.Query(records, catalog.DefaultQuerySpec()), recentLimit)
}

func (m *Manager) ownedRecords(email string) []models.ModelRecord {
	records := m.catalog.Records()
	owned := make([]models.ModelRecord, 0)
	for i := range records {
		if records[i].OwnedBy(email) {
			owned = append(owned, records[i])
		}
	}
	return owned
}

func (m *Manager) cachePurchases(purchases []models.Purchase) {
	for i := range purchases {
		if _, err := m.database.InsertPurchase(&purchases[i]); err != nil {
			logger.Warn("Failed to cache purchase", "model", purchases[i].ModelID, "error", err)
		}
	}
}

// Purchase buys one copy of a model for the signed-in user.
func (m *Manager) Purchase(ctx context.Context, id string) (models.Purchase, error) {
	s, err := m.session.Require()
	if err != nil {
		return models.Purchase{}, err
	}
	if m.client == nil {
		return models.Purchase{}, ErrOffline
	}

	owned, err := m.hasPurchased(ctx, s.Email, id)
	if err != nil {
		return models.Purchase{}, err
	}
	if owned {
		return models.Purchase{}, ErrAlreadyPurchased
	}

	rec, ok := m.catalog.Find(id)
	if !ok {
		rec, err = m.client.GetModel(ctx, id)
		if err != nil {
			m.checkSession(err)
			return models.Purchase{}, err
		}
	}

	p := models.Purchase{
		ModelID:     rec.ID,
		ModelName:   rec.Name,
		Price:       rec.Price,
		BuyerEmail:  s.Email,
		BuyerName:   s.DisplayName(),
		PurchasedAt: time.Now(),
	}
	if err := m.client.PurchaseModel(ctx, id, p); err != nil {
		m.checkSession(err)
		return models.Purchase{}, err
	}
	p.ModelID = id

	if _, err := m.database.InsertPurchase(&p); err != nil {
		logger.Warn("Failed to record purchase locally", "model", id, "error", err)
	}

	m.broadcast(PurchaseCompletedEvent{Purchase: p})
	m.refreshAsync()
	return p, nil
}

// hasPurchased checks the local cache first, then the backend's purchase
// list, which may hold purchases made from another machine.
func (m *Manager) hasPurchased(ctx context.Context, email, id string) (bool, error) {
	owned, err := m.database.HasPurchased(email, id)
	if err != nil || owned {
		return owned, err
	}

	purchases, err := m.client.MyPurchases(ctx, email)
	if err != nil {
		m.checkSession(err)
		return false, fmt.Errorf("failed to check your purchases: %w", err)
	}
	m.cachePurchases(purchases)
	for i := range purchases {
		if purchases[i].ModelID == id {
			return true, nil
		}
	}
	return false, nil
}

// AddModel publishes a new model owned by the signed-in user and returns its ID.
func (m *Manager) AddModel(ctx context.Context, in models.NewModelInput) (string, error) {
	s, err := m.session.Require()
	if err != nil {
		return "", err
	}
	if m.client == nil {
		return "", ErrOffline
	}

	id, err := m.client.AddModel(ctx, in, s.Email)
	if err != nil {
		m.checkSession(err)
		return "", err
	}
	m.refreshAsync()
	return id, nil
}

// UpdateModel edits a model the signed-in user owns. Admins may edit any model.
func (m *Manager) UpdateModel(ctx context.Context, id string, in models.NewModelInput) error {
	if err := m.authorizeModelChange(id); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}
	if err := m.client.UpdateModel(ctx, id, in); err != nil {
		m.checkSession(err)
		return err
	}
	m.refreshAsync()
	return nil
}

// DeleteModel removes a model the signed-in user owns. Admins may delete any model.
func (m *Manager) DeleteModel(ctx context.Context, id string) error {
	if err := m.authorizeModelChange(id); err != nil {
		return err
	}
	if err := m.client.DeleteModel(ctx, id); err != nil {
		m.checkSession(err)
		return err
	}
	m.refreshAsync()
	return nil
}

func (m *Manager) authorizeModelChange(id string) error {
	s, err := m.session.Require()
	if err != nil {
		return err
	}
	if m.client == nil {
		return ErrOffline
	}
	rec, ok := m.catalog.Find(id)
	if !ok {
		return ErrModelNotFound
	}
	if !rec.OwnedBy(s.Email) && !m.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

// LoadAdminReport fetches the site-wide stats and the user list.
func (m *Manager) LoadAdminReport(ctx context.Context) (*models.AdminReport, error) {
	if err := m.requireAdmin(); err != nil {
		return nil, err
	}

	report := &models.AdminReport{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := m.client.AdminStats(gctx)
		if err != nil {
			return fmt.Errorf("failed to load admin stats: %w", err)
		}
		report.Stats = stats
		return nil
	})
	g.Go(func() error {
		users, err := m.client.ListUsers(gctx)
		if err != nil {
			return fmt.Errorf("failed to load users: %w", err)
		}
		report.Users = users
		return nil
	})
	if err := g.Wait(); err != nil {
		m.checkSession(err)
		return nil, err
	}
	return report, nil
}

// DeleteUser removes a user account. Admin only.
func (m *Manager) DeleteUser(ctx context.Context, id string) error {
	if err := m.requireAdmin(); err != nil {
		return err
	}
	if err := m.client.DeleteUser(ctx, id); err != nil {
		m.checkSession(err)
		return err
	}
	return nil
}

func (m *Manager) requireAdmin() error {
	if _, err := m.session.Require(); err != nil {
		return err
	}
	if m.client == nil {
		return ErrOffline
	}
	if !m.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

// LoadActivity returns catalog and purchase activity over timeRange. The
// purchase series covers the signed-in user, or everyone when signed out.
func (m *Manager) LoadActivity(timeRange models.TimeRange) (*models.ActivityStats, error) {
	email := ""
	if s := m.session.Get(); s != nil {
		email = s.Email
	}
	return m.database.GetActivityStats(email, timeRange)
}

// Export writes the records matching spec. An empty path writes a
// timestamped file in the configured export directory.
func (m *Manager) Export(spec catalog.QuerySpec, format export.Format, path string) (ExportResult, error) {
	if path == "" {
		name := fmt.Sprintf("aximo-models-%s.%s", time.Now().Format("20060102-150405"), format)
		path = filepath.Join(m.cfg.ExportDir, name)
	}

	records := m.Query(spec)
	if err := export.ToFile(path, records); err != nil {
		return ExportResult{}, err
	}
	logger.Info("Exported models", "path", path, "count", len(records))
	return ExportResult{Path: path, Count: len(records)}, nil
}

// checkSession ends the session when err says the token was rejected.
func (m *Manager) checkSession(err error) {
	if errors.Is(err, api.ErrUnauthorized) {
		m.endSession(err)
	}
}

// refreshAsync re-fetches the catalog after a write.
func (m *Manager) refreshAsync() {
	// Close takes mu before closing stopChan, so no Add can follow its Wait.
	m.mu.Lock()
	defer m.mu.Unlock()
	select {
	case <-m.stopChan:
		return
	default:
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := m.stopContext(30 * time.Second)
		defer cancel()
		if err := m.catalog.Refresh(ctx); err != nil && ctx.Err() == nil {
			logger.Debug("Refresh after write failed", "error", err)
		}
	}()
}
