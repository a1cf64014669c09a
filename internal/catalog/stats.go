package catalog

import (
	"cmp"
	"slices"

	"github.com/j-veylop/aximo-tui/internal/models"
)

const (
	// OthersBucket groups records that have no framework.
	OthersBucket = "Others"
	// NoData is reported as the top framework of an empty collection.
	NoData = "N/A"
)

// Facets lists the distinct non-empty category values in first-occurrence order.
type Facets struct {
	Frameworks []string
	UseCases   []string
}

// AggregateStats summarizes a collection.
type AggregateStats struct {
	TopFramework   string
	TotalCount     int
	TotalPurchases int
}

// FrameworkCount is the size of one framework group.
type FrameworkCount struct {
	Framework string
	Count     int
}

// DeriveFacets collects the framework and use-case filter options.
func DeriveFacets(records []models.ModelRecord) Facets {
	facets := Facets{
		Frameworks: []string{},
		UseCases:   []string{},
	}
	seenFramework := make(map[string]struct{})
	seenUseCase := make(map[string]struct{})

	for i := range records {
		if fw := records[i].Framework; fw != "" {
			if _, ok := seenFramework[fw]; !ok {
				seenFramework[fw] = struct{}{}
				facets.Frameworks = append(facets.Frameworks, fw)
			}
		}
		if uc := records[i].UseCase; uc != "" {
			if _, ok := seenUseCase[uc]; !ok {
				seenUseCase[uc] = struct{}{}
				facets.UseCases = append(facets.UseCases, uc)
			}
		}
	}

	return facets
}

// Aggregate computes the record count, the purchase total and the most
// frequent framework. Ties go to the group seen first.
func Aggregate(records []models.ModelRecord) AggregateStats {
	if len(records) == 0 {
		return AggregateStats{TopFramework: NoData}
	}

	total := 0
	for i := range records {
		total += max(records[i].PurchasedCount, 0)
	}

	return AggregateStats{
		TopFramework:   FrameworkBreakdown(records)[0].Framework,
		TotalCount:     len(records),
		TotalPurchases: total,
	}
}

// FrameworkBreakdown counts records per framework, largest group first.
// Records without a framework are counted under OthersBucket.
func FrameworkBreakdown(records []models.ModelRecord) []FrameworkCount {
	index := make(map[string]int)
	groups := make([]FrameworkCount, 0)

	for i := range records {
		name := records[i].Framework
		if name == "" {
			name = OthersBucket
		}
		if idx, ok := index[name]; ok {
			groups[idx].Count++
			continue
		}
		index[name] = len(groups)
		groups = append(groups, FrameworkCount{Framework: name, Count: 1})
	}

	slices.SortStableFunc(groups, func(a, b FrameworkCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	return groups
}

// Recent returns a copy of the first n records in input order.
func Recent(records []models.ModelRecord, n int) []models.ModelRecord {
	n = min(max(n, 0), len(records))
	out := make([]models.ModelRecord, n)
	copy(out, records[:n])
	return out
}
