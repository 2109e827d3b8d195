package analytics

import (
	"slices"
	"strings"

	"brandlens/internal/dataset"
	"brandlens/internal/models"
)

// UnknownKey groups rows whose optional dimension value is missing. Rows are
// never silently dropped by an aggregator.
const UnknownKey = "unknown"

type Ordering int

const (
	// OrderBySum ranks groups by descending purchase sum, ties broken by
	// lexical key order.
	OrderBySum Ordering = iota
	// OrderChronological sorts keys ascending; period keys are shaped so
	// lexical order is calendar order ("2024-01", "2024-W05").
	OrderChronological
	// OrderFixed follows Dimension.FixedOrder (weekdays).
	OrderFixed
)

// Dimension describes one way of grouping the dataset. All per-dimension
// analyses go through the same GroupBy; only the key extractor and ordering
// differ.
type Dimension struct {
	Name string
	// Key must be total: every transaction maps to exactly one key.
	Key             func(models.Transaction) string
	Ordering        Ordering
	FixedOrder      []string
	SplitByDiscount bool
}

type accumulator struct {
	count     int
	sum       float64
	ratingSum float64
	priceSum  float64

	discountedSum   float64
	discountedCount int
	regularSum      float64
	regularCount    int
}

// GroupBy computes the Summary for one dimension. It is a pure function of
// the dataset: no state is kept between calls and the dataset is never
// mutated.
func GroupBy(ds *dataset.Dataset, dim Dimension) models.Summary {
	groups := make(map[string]*accumulator)
	total := 0.0

	for _, tx := range ds.Rows {
		key := dim.Key(tx)
		acc := groups[key]
		if acc == nil {
			acc = &accumulator{}
			groups[key] = acc
		}
		acc.count++
		acc.sum += tx.PurchaseAmount
		acc.ratingSum += tx.Rating
		acc.priceSum += tx.MarketPrice
		if dim.SplitByDiscount {
			if tx.DiscountApplied {
				acc.discountedSum += tx.PurchaseAmount
				acc.discountedCount++
			} else {
				acc.regularSum += tx.PurchaseAmount
				acc.regularCount++
			}
		}
		total += tx.PurchaseAmount
	}

	summary := models.Summary{
		Dimension: dim.Name,
		Groups:    make([]models.Group, 0, len(groups)),
		TotalSum:  total,
	}

	for key, acc := range groups {
		g := models.Group{
			Key:        key,
			Count:      acc.count,
			Sum:        acc.sum,
			MeanRating: acc.ratingSum / float64(acc.count),
			MeanPrice:  acc.priceSum / float64(acc.count),
		}
		if total > 0 {
			g.Share = acc.sum / total
		}
		if dim.SplitByDiscount {
			if acc.discountedCount > 0 {
				mean := acc.discountedSum / float64(acc.discountedCount)
				g.DiscountedMean = &mean
			}
			if acc.regularCount > 0 {
				mean := acc.regularSum / float64(acc.regularCount)
				g.RegularMean = &mean
			}
		}
		summary.Groups = append(summary.Groups, g)
	}

	sortGroups(&summary, dim)
	return summary
}

func sortGroups(summary *models.Summary, dim Dimension) {
	switch dim.Ordering {
	case OrderChronological:
		slices.SortFunc(summary.Groups, func(a, b models.Group) int {
			return strings.Compare(a.Key, b.Key)
		})
	case OrderFixed:
		rank := make(map[string]int, len(dim.FixedOrder))
		for i, key := range dim.FixedOrder {
			rank[key] = i
		}
		slices.SortFunc(summary.Groups, func(a, b models.Group) int {
			return rankOf(rank, a.Key) - rankOf(rank, b.Key)
		})
	default:
		slices.SortFunc(summary.Groups, func(a, b models.Group) int {
			if a.Sum > b.Sum {
				return -1
			}
			if a.Sum < b.Sum {
				return 1
			}
			return strings.Compare(a.Key, b.Key)
		})
	}
}

func rankOf(rank map[string]int, key string) int {
	if r, ok := rank[key]; ok {
		return r
	}
	return len(rank) // unexpected keys sort last
}

// Top returns the summary truncated to its first n groups.
func Top(summary models.Summary, n int) models.Summary {
	if len(summary.Groups) > n {
		summary.Groups = summary.Groups[:n]
	}
	return summary
}

// AllUnknown reports whether every group fell into the unknown bucket, which
// is what an entirely absent optional column looks like after aggregation.
func AllUnknown(summary models.Summary) bool {
	for _, g := range summary.Groups {
		if g.Key != UnknownKey {
			return false
		}
	}
	return len(summary.Groups) > 0
}
