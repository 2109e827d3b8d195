package models

import "time"

// Transaction is one cleaned retail purchase row. Optional dimensions
// (ProductCategory, AgeGroup) are empty strings when the source column is
// absent or blank; aggregation maps those to an explicit "unknown" group.
type Transaction struct {
	Brand           string
	PurchaseDate    time.Time
	PurchaseAmount  float64
	MarketPrice     float64
	Rating          float64
	City            string
	DiscountApplied bool
	ProductCategory string
	AgeGroup        string
}

// Group is one row of a Summary: aggregates for a single grouping key.
// DiscountedMean/RegularMean are only populated for dimensions that track the
// discount split; a nil pointer means that subset was empty (undefined mean,
// deliberately not zero).
type Group struct {
	Key            string   `json:"key"`
	Count          int      `json:"count"`
	Sum            float64  `json:"sum"`
	MeanRating     float64  `json:"mean_rating"`
	MeanPrice      float64  `json:"mean_price"`
	Share          float64  `json:"share"`
	DiscountedMean *float64 `json:"discounted_mean,omitempty"`
	RegularMean    *float64 `json:"regular_mean,omitempty"`
}

// Summary is an ordered grouped aggregation over one dimension.
type Summary struct {
	Dimension string  `json:"dimension"`
	Groups    []Group `json:"groups"`
	TotalSum  float64 `json:"total_sum"`
}

// TrendPoint is one period of a fitted trend. Projected marks extrapolated
// periods; Clamped marks projections raised to zero.
type TrendPoint struct {
	Period    string  `json:"period"`
	Value     float64 `json:"value"`
	Projected bool    `json:"projected"`
	Clamped   bool    `json:"clamped,omitempty"`
}

// Trend is an ordinary-least-squares fit over a chronological summary plus
// its extrapolated periods.
type Trend struct {
	Metric    string       `json:"metric"`
	Slope     float64      `json:"slope"`
	Intercept float64      `json:"intercept"`
	Points    []TrendPoint `json:"points"`
	Caveats   []string     `json:"caveats,omitempty"`
}

// KeyMetrics are the headline numbers shown above the dashboard panels.
type KeyMetrics struct {
	Brand           string  `json:"brand"`
	Transactions    int     `json:"transactions"`
	MarketShare     float64 `json:"market_share"`
	TotalSales      float64 `json:"total_sales"`
	MeanRating      float64 `json:"mean_rating"`
	MeanMarketPrice float64 `json:"mean_market_price"`
}
