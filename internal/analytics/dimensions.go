package analytics

import (
	"fmt"
	"math"

	"brandlens/internal/models"
)

var weekdayOrder = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func ByCity() Dimension {
	return Dimension{
		Name: "city",
		Key: func(tx models.Transaction) string {
			if tx.City == "" {
				return UnknownKey
			}
			return tx.City
		},
		Ordering: OrderBySum,
	}
}

func ByMonth() Dimension {
	return Dimension{
		Name: "month",
		Key: func(tx models.Transaction) string {
			return tx.PurchaseDate.Format("2006-01")
		},
		Ordering: OrderChronological,
	}
}

func ByWeek() Dimension {
	return Dimension{
		Name: "week",
		Key: func(tx models.Transaction) string {
			year, week := tx.PurchaseDate.ISOWeek()
			return fmt.Sprintf("%04d-W%02d", year, week)
		},
		Ordering: OrderChronological,
	}
}

func ByWeekday() Dimension {
	return Dimension{
		Name: "weekday",
		Key: func(tx models.Transaction) string {
			return tx.PurchaseDate.Weekday().String()
		},
		Ordering:   OrderFixed,
		FixedOrder: weekdayOrder,
	}
}

// BySeason labels the retail spikes the dashboard tracks: the first week of
// January, the pre-Christmas run from Dec 20, and the back-to-school window
// covering August through Sep 15.
func BySeason() Dimension {
	return Dimension{
		Name: "season",
		Key: func(tx models.Transaction) string {
			m, d := tx.PurchaseDate.Month(), tx.PurchaseDate.Day()
			switch {
			case m == 1 && d <= 7:
				return "New Year"
			case m == 12 && d >= 20:
				return "Christmas"
			case m == 8 || (m == 9 && d <= 15):
				return "Back-to-School"
			default:
				return "Other"
			}
		},
		Ordering: OrderBySum,
	}
}

// ByPriceBucket groups on fixed-width market price bands and tracks the
// discounted vs regular purchase means per band.
func ByPriceBucket(width float64) Dimension {
	return Dimension{
		Name: "price_bucket",
		Key: func(tx models.Transaction) string {
			lower := math.Floor(tx.MarketPrice/width) * width
			return fmt.Sprintf("$%.0f-$%.0f", lower, lower+width-1)
		},
		Ordering:        OrderBySum,
		SplitByDiscount: true,
	}
}

func ByDiscount() Dimension {
	return Dimension{
		Name: "discount",
		Key: func(tx models.Transaction) string {
			if tx.DiscountApplied {
				return "discounted"
			}
			return "full price"
		},
		Ordering:        OrderBySum,
		SplitByDiscount: true,
	}
}

func ByCategory() Dimension {
	return Dimension{
		Name: "category",
		Key: func(tx models.Transaction) string {
			if tx.ProductCategory == "" {
				return UnknownKey
			}
			return tx.ProductCategory
		},
		Ordering: OrderBySum,
	}
}

func ByAgeGroup() Dimension {
	return Dimension{
		Name: "age_group",
		Key: func(tx models.Transaction) string {
			if tx.AgeGroup == "" {
				return UnknownKey
			}
			return tx.AgeGroup
		},
		Ordering: OrderBySum,
	}
}
