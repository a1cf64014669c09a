package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/aximo-tui/internal/models"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func names(records []models.ModelRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}

func alphaBeta() []models.ModelRecord {
	return []models.ModelRecord{
		{ID: "1", Name: "Alpha", Framework: "PyTorch", UseCase: "NLP", CreatedAt: day("2024-01-01")},
		{ID: "2", Name: "Beta", Framework: "Keras", UseCase: "Vision", CreatedAt: day("2024-02-01")},
	}
}

func TestQuery_Scenarios(t *testing.T) {
	tests := []struct {
		name string
		spec QuerySpec
		want []string
	}{
		{"NewestFirst", DefaultQuerySpec(), []string{"Beta", "Alpha"}},
		{"CaseInsensitiveSearch", QuerySpec{SearchTerm: "alpha", FrameworkFilter: All, UseCaseFilter: All}, []string{"Alpha"}},
		{"FrameworkFilter", QuerySpec{FrameworkFilter: "Keras", UseCaseFilter: All, Sort: SortNameAsc}, []string{"Beta"}},
		{"Oldest", QuerySpec{Sort: SortOldest}, []string{"Alpha", "Beta"}},
		{"UseCaseFilter", QuerySpec{UseCaseFilter: "NLP"}, []string{"Alpha"}},
		{"NoMatch", QuerySpec{SearchTerm: "gamma"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Query(alphaBeta(), tt.spec)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestQuery_EmptyInput(t *testing.T) {
	got := Query(nil, QuerySpec{SearchTerm: "x", FrameworkFilter: "PyTorch", Sort: SortNameDesc})
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestQuery_SearchFields(t *testing.T) {
	records := []models.ModelRecord{
		{Name: "One", Framework: "JAX"},
		{Name: "Two", UseCase: "Speech Recognition"},
		{Name: "Three", Dataset: "LibriSpeech"},
		{Name: "Four", Description: "speech model"},
	}

	got := Query(records, QuerySpec{SearchTerm: "  SPEECH  "})
	assert.Equal(t, []string{"Two", "Three"}, names(got), "description is not searched")

	got = Query(records, QuerySpec{SearchTerm: "jax"})
	assert.Equal(t, []string{"One"}, names(got))
}

func TestQuery_CategoryFiltersAreCaseSensitive(t *testing.T) {
	records := []models.ModelRecord{
		{Name: "A", Framework: "PyTorch"},
		{Name: "B", Framework: "pytorch"},
		{Name: "C", Framework: "PyTorch Lightning"},
	}

	got := Query(records, QuerySpec{FrameworkFilter: "PyTorch"})
	assert.Equal(t, []string{"A"}, names(got))

	got = Query(records, QuerySpec{SearchTerm: "pytorch"})
	assert.Len(t, got, 3)
}

func TestQuery_DoesNotMutateInput(t *testing.T) {
	records := alphaBeta()
	before := append([]models.ModelRecord(nil), records...)

	_ = Query(records, QuerySpec{Sort: SortNameDesc})
	_ = Query(records, DefaultQuerySpec())

	assert.Equal(t, before, records)
}

func TestQuery_MissingCreatedAtSortsLast(t *testing.T) {
	records := []models.ModelRecord{
		{Name: "NoDate1"},
		{Name: "Old", CreatedAt: day("2023-01-01")},
		{Name: "NoDate2"},
		{Name: "New", CreatedAt: day("2024-01-01")},
	}

	assert.Equal(t, []string{"New", "Old", "NoDate1", "NoDate2"}, names(Query(records, QuerySpec{Sort: SortNewest})))
	assert.Equal(t, []string{"Old", "New", "NoDate1", "NoDate2"}, names(Query(records, QuerySpec{Sort: SortOldest})))
}

func TestQuery_NameSortIsLocaleAware(t *testing.T) {
	records := []models.ModelRecord{
		{Name: "beta"},
		{Name: "Gamma"},
		{Name: ""},
		{Name: "Alpha"},
	}

	assert.Equal(t, []string{"", "Alpha", "beta", "Gamma"}, names(Query(records, QuerySpec{Sort: SortNameAsc})))
	assert.Equal(t, []string{"Gamma", "beta", "Alpha", ""}, names(Query(records, QuerySpec{Sort: SortNameDesc})))
}

func TestQuery_StableForEqualKeys(t *testing.T) {
	ts := day("2024-06-01")
	records := []models.ModelRecord{
		{ID: "a", Name: "Same", CreatedAt: ts},
		{ID: "b", Name: "Same", CreatedAt: ts},
		{ID: "c", Name: "Same", CreatedAt: ts},
	}

	for _, key := range []SortKey{SortNewest, SortOldest, SortNameAsc, SortNameDesc} {
		t.Run(key.String(), func(t *testing.T) {
			got := Query(records, QuerySpec{Sort: key})
			require.Len(t, got, 3)
			assert.Equal(t, "a", got[0].ID)
			assert.Equal(t, "b", got[1].ID)
			assert.Equal(t, "c", got[2].ID)
		})
	}
}

func TestQuery_Idempotent(t *testing.T) {
	records := []models.ModelRecord{
		{ID: "1", Name: "Vision Transformer", Framework: "PyTorch", UseCase: "Vision", CreatedAt: day("2024-03-01")},
		{ID: "2", Name: "YOLO", Framework: "PyTorch", UseCase: "Vision", CreatedAt: day("2024-01-01")},
		{ID: "3", Name: "BERT", Framework: "TensorFlow", UseCase: "NLP", CreatedAt: day("2024-02-01")},
	}
	spec := QuerySpec{SearchTerm: "o", FrameworkFilter: "PyTorch", Sort: SortNameAsc}

	once := Query(records, spec)
	twice := Query(once, spec)
	assert.Equal(t, once, twice)
}

func TestQuery_ResultIsSubsequence(t *testing.T) {
	records := []models.ModelRecord{
		{ID: "1", Name: "a", Framework: "X"},
		{ID: "2", Name: "b", Framework: "Y"},
		{ID: "3", Name: "c", Framework: "X"},
		{ID: "4", Name: "d", Framework: "X"},
	}

	got := Query(records, QuerySpec{FrameworkFilter: "X", Sort: SortOldest})

	seen := map[string]bool{}
	next := 0
	for _, r := range got {
		assert.False(t, seen[r.ID], "duplicate record %s", r.ID)
		seen[r.ID] = true
		for next < len(records) && records[next].ID != r.ID {
			next++
		}
		require.Less(t, next, len(records), "record %s not in input order", r.ID)
	}
	assert.Len(t, got, 3)
}

func TestParseSortKey(t *testing.T) {
	tests := []struct {
		in      string
		want    SortKey
		wantErr bool
	}{
		{"newest", SortNewest, false},
		{"", SortNewest, false},
		{"Oldest", SortOldest, false},
		{"name-asc", SortNameAsc, false},
		{"name-ascending", SortNameAsc, false},
		{"name-desc", SortNameDesc, false},
		{"name-descending", SortNameDesc, false},
		{"price", SortNewest, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSortKey(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSortKey_NextCycles(t *testing.T) {
	k := SortNewest
	seen := []SortKey{}
	for range 4 {
		seen = append(seen, k)
		k = k.Next()
	}
	assert.Equal(t, []SortKey{SortNewest, SortOldest, SortNameAsc, SortNameDesc}, seen)
	assert.Equal(t, SortNewest, k)
}

func TestQuerySpec_IsDefault(t *testing.T) {
	assert.True(t, DefaultQuerySpec().IsDefault())
	assert.True(t, QuerySpec{}.IsDefault())
	assert.True(t, QuerySpec{SearchTerm: "   "}.IsDefault())
	assert.False(t, QuerySpec{SearchTerm: "x"}.IsDefault())
	assert.False(t, QuerySpec{Sort: SortOldest}.IsDefault())
	assert.False(t, QuerySpec{FrameworkFilter: "JAX"}.IsDefault())
}
