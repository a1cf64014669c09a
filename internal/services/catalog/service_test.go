package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/aximo-tui/internal/db"
	"github.com/j-veylop/aximo-tui/internal/models"
)

type fakeSource struct {
	mu      sync.Mutex
	records []models.ModelRecord
	err     error
	calls   int
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Fetch(ctx context.Context) ([]models.ModelRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.ModelRecord, len(f.records))
	copy(out, f.records)
	return out, nil
}

func (f *fakeSource) set(records []models.ModelRecord, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = records
	f.err = err
}

func newTestStore(t *testing.T) *db.DB {
	t.Helper()
	store, err := db.New(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func drain(ch <-chan Event) []Event {
	var out []Event
	for {
		select {
		case e := <-ch:
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestRefresh_LoadsThenReportsNewIDs(t *testing.T) {
	src := &fakeSource{records: []models.ModelRecord{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}}
	svc := New(src, newTestStore(t), Config{PollInterval: time.Hour})
	defer svc.Close()

	require.NoError(t, svc.Refresh(context.Background()))
	events := drain(svc.Events())
	require.Len(t, events, 1)
	assert.Equal(t, EventCatalogLoaded, events[0].Type)
	assert.Equal(t, 2, events[0].Count)
	assert.Len(t, svc.Records(), 2)

	src.set([]models.ModelRecord{{ID: "c", Name: "C"}, {ID: "a", Name: "A"}, {ID: "b", Name: "B"}}, nil)
	require.NoError(t, svc.Refresh(context.Background()))
	events = drain(svc.Events())
	require.Len(t, events, 1)
	assert.Equal(t, EventCatalogChanged, events[0].Type)
	assert.Equal(t, []string{"c"}, events[0].NewIDs)

	recs := svc.Records()
	assert.Equal(t, "c", recs[0].ID, "source order is kept")
}

func TestRecords_ReturnsCopy(t *testing.T) {
	src := &fakeSource{records: []models.ModelRecord{{ID: "a", Name: "A"}}}
	svc := New(src, nil, Config{})
	defer svc.Close()

	require.NoError(t, svc.Refresh(context.Background()))
	recs := svc.Records()
	recs[0].Name = "changed"
	assert.Equal(t, "A", svc.Records()[0].Name)

	got, ok := svc.Find("a")
	assert.True(t, ok)
	assert.Equal(t, "A", got.Name)
	_, ok = svc.Find("zzz")
	assert.False(t, ok)
}

func TestRefresh_FallsBackToCache(t *testing.T) {
	store := newTestStore(t)
	_, err := store.ReplaceModels([]models.ModelRecord{{ID: "cached", Name: "Cached"}})
	require.NoError(t, err)

	src := &fakeSource{err: errors.New("backend down")}
	svc := New(src, store, Config{})
	defer svc.Close()

	err = svc.Refresh(context.Background())
	require.Error(t, err)

	recs := svc.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, "cached", recs[0].ID)

	status := svc.Status()
	assert.True(t, status.FromCache)
	assert.Error(t, status.LastError)

	events := drain(svc.Events())
	require.Len(t, events, 2)
	assert.Equal(t, EventError, events[0].Type)
	assert.Equal(t, EventCatalogLoaded, events[1].Type)
	assert.True(t, events[1].FromCache)
}

func TestRefresh_ErrorKeepsCurrentRecords(t *testing.T) {
	src := &fakeSource{records: []models.ModelRecord{{ID: "a"}}}
	svc := New(src, nil, Config{})
	defer svc.Close()

	require.NoError(t, svc.Refresh(context.Background()))
	src.set(nil, errors.New("boom"))
	require.Error(t, svc.Refresh(context.Background()))
	assert.Len(t, svc.Records(), 1)
}

func TestAssignMissingIDs_Stable(t *testing.T) {
	mk := func() []models.ModelRecord {
		return []models.ModelRecord{{Name: "X", Framework: "JAX"}, {ID: "keep"}, {Name: "Y"}}
	}
	first, second := mk(), mk()
	assignMissingIDs(first)
	assignMissingIDs(second)

	assert.NotEmpty(t, first[0].ID)
	assert.Equal(t, "keep", first[1].ID)
	assert.NotEqual(t, first[0].ID, first[2].ID)
	assert.Equal(t, first[0].ID, second[0].ID)
}

func TestStart_ServesCacheThenPolls(t *testing.T) {
	store := newTestStore(t)
	_, err := store.ReplaceModels([]models.ModelRecord{{ID: "old"}})
	require.NoError(t, err)

	src := &fakeSource{records: []models.ModelRecord{{ID: "old"}, {ID: "new"}}}
	svc := New(src, store, Config{PollInterval: time.Hour})
	svc.Start()
	defer svc.Close()

	var changed Event
	require.Eventually(t, func() bool {
		for _, e := range drain(svc.Events()) {
			if e.Type == EventCatalogChanged {
				changed = e
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"new"}, changed.NewIDs)
}

func TestParseSnapshot(t *testing.T) {
	tests := []struct {
		name string
		data string
		ext  string
		want int
	}{
		{"JSONArray", `[{"_id":"a","name":"A"},{"_id":"b"}]`, ".json", 2},
		{"JSONEnvelope", `{"result":[{"_id":"a"}]}`, ".json", 1},
		{"YAML", "- _id: a\n  name: A\n  createdAt: 2024-01-02T00:00:00Z\n  purchased: 3\n", ".yaml", 1},
		{"YAMLEnvelope", "result:\n  - _id: a\n  - _id: b\n", ".yml", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSnapshot([]byte(tt.data), tt.ext)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}

	got, err := ParseSnapshot([]byte("- _id: a\n  createdAt: 2024-01-02T00:00:00Z\n  purchased: 3\n"), ".yaml")
	require.NoError(t, err)
	assert.Equal(t, 2024, got[0].CreatedAt.Year())
	assert.Equal(t, 3, got[0].PurchasedCount)

	_, err = ParseSnapshot([]byte(`{"models":[]}`), ".json")
	assert.Error(t, err)
	_, err = ParseSnapshot([]byte(`not json`), ".json")
	assert.Error(t, err)
}

func TestFileSource_FetchAndWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "models.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"_id":"a"}]`), 0o600))

	src, err := NewFileSource(path)
	require.NoError(t, err)
	defer src.Close()

	got, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)

	require.NoError(t, os.WriteFile(path, []byte(`[{"_id":"a"},{"_id":"b"}]`), 0o600))

	select {
	case <-src.Changes():
	case <-time.After(3 * time.Second):
		t.Fatal("expected change notification")
	}

	got, err = src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)

	assert.NoError(t, src.Close())
	assert.NoError(t, src.Close())
}

func TestFileSource_MissingFile(t *testing.T) {
	src, err := NewFileSource(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	defer src.Close()

	_, err = src.Fetch(context.Background())
	assert.Error(t, err)
}

type listerFunc func(ctx context.Context) ([]models.ModelRecord, error)

func (f listerFunc) ListModels(ctx context.Context) ([]models.ModelRecord, error) { return f(ctx) }

func TestAPISource(t *testing.T) {
	src := NewAPISource(listerFunc(func(ctx context.Context) ([]models.ModelRecord, error) {
		return []models.ModelRecord{{ID: "x"}}, nil
	}))
	assert.Equal(t, "api", src.Name())
	got, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
