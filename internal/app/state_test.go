package app

import (
	"testing"
	"time"

	"github.com/j-veylop/aximo-tui/internal/models"
	"github.com/j-veylop/aximo-tui/internal/services"
	"github.com/j-veylop/aximo-tui/internal/session"
)

func sampleRecords() []models.ModelRecord {
	return []models.ModelRecord{
		{ID: "m1", Name: "Alpha", Framework: "PyTorch", UseCase: "Vision"},
		{ID: "m2", Name: "Beta", Framework: "JAX", UseCase: "Vision"},
		{ID: "m3", Name: "Gamma", Framework: "PyTorch", UseCase: "NLP"},
	}
}

func TestNewState(t *testing.T) {
	s := NewState()
	if s == nil {
		t.Fatal("NewState returned nil")
	}
	if s.RecordCount() != 0 {
		t.Error("Records should be empty")
	}
	if !s.Loading.Initial {
		t.Error("Initial loading should be true")
	}
	if s.GetFacets().Frameworks == nil {
		t.Error("Facets should be non-nil")
	}
}

func TestState_SetLoading(t *testing.T) {
	s := NewState()

	s.SetLoading(ResourceCatalog, true)
	if !s.IsLoading(ResourceCatalog) {
		t.Error("Catalog loading should be true")
	}
	if !s.AnyLoading() {
		t.Error("AnyLoading should be true")
	}

	s.SetLoading(ResourceCatalog, false)
	if !s.AnyLoading() {
		t.Error("AnyLoading should be true (Initial is true)")
	}

	s.SetLoading(ResourceInitial, false)
	if s.AnyLoading() {
		t.Error("AnyLoading should be false")
	}

	for _, r := range []Resource{ResourceDashboard, ResourceActivity, ResourceReports} {
		s.SetLoading(r, true)
		if !s.IsLoading(r) {
			t.Errorf("%s should be loading", r)
		}
		s.SetLoading(r, false)
	}
	if s.IsLoading(Resource("bogus")) {
		t.Error("unknown resource should never be loading")
	}
}

func TestState_Catalog(t *testing.T) {
	s := NewState()
	synced := time.Now()

	s.SetCatalog(sampleRecords(), CatalogInfo{Source: "api", LastSync: synced})

	if s.RecordCount() != 3 {
		t.Errorf("RecordCount = %d, want 3", s.RecordCount())
	}
	facets := s.GetFacets()
	if len(facets.Frameworks) != 2 || facets.Frameworks[0] != "PyTorch" {
		t.Errorf("Frameworks = %v", facets.Frameworks)
	}
	if len(facets.UseCases) != 2 {
		t.Errorf("UseCases = %v", facets.UseCases)
	}
	if s.GetCatalogInfo().Source != "api" {
		t.Error("CatalogInfo not stored")
	}

	rec, ok := s.FindRecord("m2")
	if !ok || rec.Name != "Beta" {
		t.Errorf("FindRecord(m2) = %+v, %v", rec, ok)
	}
	if _, ok := s.FindRecord("missing"); ok {
		t.Error("FindRecord should miss unknown IDs")
	}

	got := s.GetRecords()
	got[0].Name = "Changed"
	if s.GetRecords()[0].Name != "Alpha" {
		t.Error("GetRecords should return a copy")
	}

	if s.TimeSinceUpdate() < 0 || s.GetLastUpdated().IsZero() {
		t.Error("LastUpdated should be set")
	}
}

func TestState_Session(t *testing.T) {
	s := NewState()
	if s.IsSignedIn() || s.IsAdmin() {
		t.Error("new state should be signed out")
	}

	s.SetSession(&session.Session{Email: "me@aximo.dev"}, true)
	if !s.IsSignedIn() || !s.IsAdmin() {
		t.Error("session should be active with admin role")
	}

	s.SetDashboard(&services.Dashboard{
		SignedIn:    true,
		MyPurchases: []models.Purchase{{ModelID: "m1"}},
	})
	s.SetReport(&models.AdminReport{})
	if !s.HasPurchased("m1") {
		t.Error("dashboard purchases should be remembered")
	}

	s.SetSession(nil, true)
	if s.IsSignedIn() || s.IsAdmin() {
		t.Error("nil session should sign out and drop admin")
	}
	if s.GetDashboard() != nil || s.GetReport() != nil {
		t.Error("signing out should drop user data")
	}
	if s.HasPurchased("m1") {
		t.Error("signing out should forget purchases")
	}
}

func TestState_Purchases(t *testing.T) {
	s := NewState()
	s.MarkPurchased("m2")
	if !s.HasPurchased("m2") || s.HasPurchased("m3") {
		t.Error("MarkPurchased mismatch")
	}
}

func TestState_Activity(t *testing.T) {
	s := NewState()
	a := &models.ActivityStats{TotalAdded: 4}
	s.SetActivity(a)
	if s.GetActivity() != a {
		t.Error("GetActivity mismatch")
	}
}

func TestState_Notifications(t *testing.T) {
	s := NewState()

	id := s.AddNotification(NotificationInfo, "test", time.Minute)
	if id == "" {
		t.Error("AddNotification returned empty ID")
	}

	notifs := s.GetNotifications()
	if len(notifs) != 1 {
		t.Errorf("GetNotifications len = %d, want 1", len(notifs))
	}
	if notifs[0].Message != "test" {
		t.Errorf("Notification message = %s, want test", notifs[0].Message)
	}

	s.RemoveNotification(id)
	if len(s.GetNotifications()) != 0 {
		t.Error("Notification should be removed")
	}

	for range maxNotifications + 5 {
		s.AddNotification(NotificationInfo, "spam", time.Minute)
	}
	if len(s.GetNotifications()) != maxNotifications {
		t.Errorf("notifications should be capped at %d", maxNotifications)
	}
	s.ClearAllNotifications()
	if len(s.GetNotifications()) != 0 {
		t.Error("ClearAllNotifications should empty the list")
	}
}

func TestState_ClearExpiredNotifications(t *testing.T) {
	s := NewState()

	s.notifications = append(s.notifications, Notification{
		ID:        "expired",
		CreatedAt: time.Now().Add(-2 * time.Minute),
		Duration:  time.Minute,
	})
	s.notifications = append(s.notifications, Notification{
		ID:        "active",
		CreatedAt: time.Now(),
		Duration:  time.Minute,
	})

	s.ClearExpiredNotifications()

	notifs := s.GetNotifications()
	if len(notifs) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(notifs))
	}
	if notifs[0].ID != "active" {
		t.Errorf("Expected active notification, got %s", notifs[0].ID)
	}
}

func TestState_LoadingNotification(t *testing.T) {
	s := NewState()

	s.SetLoadingNotification("loading...")
	notifs := s.GetNotifications()
	if len(notifs) != 1 {
		t.Errorf("Expected 1 notification, got %d", len(notifs))
	}
	if notifs[0].ID != LoadingNotificationID {
		t.Errorf("Expected ID %s, got %s", LoadingNotificationID, notifs[0].ID)
	}

	s.SetLoadingNotification("still loading...")
	notifs = s.GetNotifications()
	if len(notifs) != 1 {
		t.Errorf("Expected 1 notification after update")
	}
	if notifs[0].Message != "still loading..." {
		t.Errorf("Expected message still loading..., got %s", notifs[0].Message)
	}

	s.ClearLoadingNotification()
	if len(s.GetNotifications()) != 0 {
		t.Error("Loading notification should be cleared")
	}
}

func TestNotificationType_String(t *testing.T) {
	tests := []struct {
		t    NotificationType
		want string
	}{
		{NotificationSuccess, "success"},
		{NotificationError, "error"},
		{NotificationWarning, "warning"},
		{NotificationInfo, "info"},
		{NotificationLoading, "loading"},
		{NotificationType(999), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.t.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
