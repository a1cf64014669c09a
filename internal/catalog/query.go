// Package catalog filters, sorts and summarizes model records held in memory.
// Every function is pure: inputs are never modified and results are new slices.
package catalog

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/j-veylop/aximo-tui/internal/models"
)

// All is the filter value that places no constraint on a field.
const All = "all"

// SortKey selects the ordering applied by Query.
type SortKey int

const (
	// SortNewest orders by creation time, most recent first.
	SortNewest SortKey = iota
	// SortOldest orders by creation time, oldest first.
	SortOldest
	// SortNameAsc orders by name A to Z.
	SortNameAsc
	// SortNameDesc orders by name Z to A.
	SortNameDesc
)

// String returns the wire form of the sort key.
func (k SortKey) String() string {
	switch k {
	case SortNewest:
		return "newest"
	case SortOldest:
		return "oldest"
	case SortNameAsc:
		return "name-asc"
	case SortNameDesc:
		return "name-desc"
	default:
		return "unknown"
	}
}

// Label returns the display name of the sort key.
func (k SortKey) Label() string {
	switch k {
	case SortNewest:
		return "Newest First"
	case SortOldest:
		return "Oldest First"
	case SortNameAsc:
		return "Name (A-Z)"
	case SortNameDesc:
		return "Name (Z-A)"
	default:
		return "Unknown"
	}
}

// Next cycles to the next sort key.
func (k SortKey) Next() SortKey {
	return (k + 1) % 4
}

// ParseSortKey parses the wire form of a sort key.
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "newest", "":
		return SortNewest, nil
	case "oldest":
		return SortOldest, nil
	case "name-asc", "name-ascending":
		return SortNameAsc, nil
	case "name-desc", "name-descending":
		return SortNameDesc, nil
	default:
		return SortNewest, fmt.Errorf("unknown sort key: %q", s)
	}
}

// QuerySpec is one filter and sort request.
type QuerySpec struct {
	SearchTerm      string
	FrameworkFilter string
	UseCaseFilter   string
	Sort            SortKey
}

// DefaultQuerySpec returns the unfiltered, newest-first query.
func DefaultQuerySpec() QuerySpec {
	return QuerySpec{
		FrameworkFilter: All,
		UseCaseFilter:   All,
		Sort:            SortNewest,
	}
}

// Normalize maps empty category filters to All.
func (q QuerySpec) Normalize() QuerySpec {
	if q.FrameworkFilter == "" {
		q.FrameworkFilter = All
	}
	if q.UseCaseFilter == "" {
		q.UseCaseFilter = All
	}
	return q
}

// IsDefault reports whether the spec places no constraint and uses the default sort.
func (q QuerySpec) IsDefault() bool {
	n := q.Normalize()
	return strings.TrimSpace(n.SearchTerm) == "" &&
		n.FrameworkFilter == All &&
		n.UseCaseFilter == All &&
		n.Sort == SortNewest
}

// Query applies the text filter, the framework filter, the use-case filter
// and finally a stable sort, in that order.
func Query(records []models.ModelRecord, spec QuerySpec) []models.ModelRecord {
	spec = spec.Normalize()

	fold := cases.Fold()
	term := fold.String(strings.TrimSpace(spec.SearchTerm))

	out := make([]models.ModelRecord, 0, len(records))
	for i := range records {
		r := &records[i]
		if term != "" && !matchesTerm(fold, r, term) {
			continue
		}
		if spec.FrameworkFilter != All && r.Framework != spec.FrameworkFilter {
			continue
		}
		if spec.UseCaseFilter != All && r.UseCase != spec.UseCaseFilter {
			continue
		}
		out = append(out, *r)
	}

	sortRecords(out, spec.Sort)
	return out
}

func matchesTerm(fold cases.Caser, r *models.ModelRecord, term string) bool {
	for _, field := range [...]string{r.Name, r.Framework, r.UseCase, r.Dataset} {
		if field != "" && strings.Contains(fold.String(field), term) {
			return true
		}
	}
	return false
}

func sortRecords(records []models.ModelRecord, key SortKey) {
	switch key {
	case SortOldest:
		slices.SortStableFunc(records, func(a, b models.ModelRecord) int {
			return compareCreated(a, b, false)
		})
	case SortNameAsc, SortNameDesc:
		col := collate.New(language.English)
		desc := key == SortNameDesc
		slices.SortStableFunc(records, func(a, b models.ModelRecord) int {
			c := col.CompareString(a.Name, b.Name)
			if desc {
				return -c
			}
			return c
		})
	default:
		slices.SortStableFunc(records, func(a, b models.ModelRecord) int {
			return compareCreated(a, b, true)
		})
	}
}

// compareCreated orders by CreatedAt. Records without a timestamp go last
// in both directions.
func compareCreated(a, b models.ModelRecord, newestFirst bool) int {
	aMissing, bMissing := a.CreatedAt.IsZero(), b.CreatedAt.IsZero()
	switch {
	case aMissing && bMissing:
		return 0
	case aMissing:
		return 1
	case bMissing:
		return -1
	}

	c := a.CreatedAt.Compare(b.CreatedAt)
	if newestFirst {
		return -c
	}
	return c
}
