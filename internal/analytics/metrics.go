package analytics

import (
	"brandlens/internal/dataset"
	"brandlens/internal/models"
)

// KeyMetrics computes the dashboard headline numbers. An empty dataset
// yields zeroed metrics, not an error.
func KeyMetrics(ds *dataset.Dataset) models.KeyMetrics {
	metrics := models.KeyMetrics{
		Brand:        ds.Brand,
		Transactions: len(ds.Rows),
	}

	if ds.TotalValidRows > 0 {
		metrics.MarketShare = float64(len(ds.Rows)) / float64(ds.TotalValidRows)
	}

	if len(ds.Rows) == 0 {
		return metrics
	}

	var ratingSum, priceSum float64
	for _, tx := range ds.Rows {
		metrics.TotalSales += tx.PurchaseAmount
		ratingSum += tx.Rating
		priceSum += tx.MarketPrice
	}
	metrics.MeanRating = ratingSum / float64(len(ds.Rows))
	metrics.MeanMarketPrice = priceSum / float64(len(ds.Rows))

	return metrics
}
