package dataset

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "brandlens/internal/errors"
	"brandlens/internal/models"
	"brandlens/internal/observability"
)

const (
	batchSize  = 10000
	maxWorkers = 10

	ratingMin = 0
	ratingMax = 5
)

// Required source columns, matched case-insensitively against the header.
var requiredColumns = []string{
	"brand",
	"purchase_date",
	"purchase_amount",
	"market_price",
	"rating",
	"city",
	"discount_applied",
}

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", "01/02/2006"}

// DropStats counts rows discarded during cleaning, by reason.
type DropStats struct {
	ShortRow   int
	BadDate    int
	BadNumber  int
	OutOfRange int
}

func (d DropStats) Total() int {
	return d.ShortRow + d.BadDate + d.BadNumber + d.OutOfRange
}

// Dataset is the cleaned, brand-filtered table. It is immutable after Load
// returns; aggregators only ever read it. TotalValidRows counts every
// well-formed row before the brand filter so market share can be derived.
type Dataset struct {
	Brand          string
	Rows           []models.Transaction
	TotalValidRows int
	Dropped        DropStats
	LoadedAt       time.Time
}

// Empty reports the EmptyResult state: the source parsed fine but no row
// matched the target brand. Callers render this as "no data", not an error.
func (d *Dataset) Empty() bool {
	return len(d.Rows) == 0
}

type Loader struct {
	brand  string
	logger *slog.Logger
}

func NewLoader(brand string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{brand: brand, logger: logger}
}

// columnIndex resolves header names to field positions.
type columnIndex struct {
	brand, date, amount, price, rating, city, discount int
	category, ageGroup                                 int // -1 when the optional column is absent
}

// Load streams the CSV and produces a cleaned Dataset. The source being
// unreadable or missing a required column is a DataUnavailable error; a brand
// with zero matching rows is a valid empty Dataset.
func (l *Loader) Load(ctx context.Context, filename string) (*Dataset, error) {
	ctx, span := observability.StartSpan(ctx, "dataset.load")
	defer span.Finish()
	span.SetTag("file", filename)
	span.SetTag("brand", l.brand)

	file, err := os.Open(filename)
	if err != nil {
		span.SetError(err)
		return nil, apperrors.DataUnavailableWrap(err, fmt.Sprintf("cannot open source file %s", filename))
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), 10*1024*1024) // 10MB line buffer

	if !scanner.Scan() {
		err := fmt.Errorf("source file has no header row")
		span.SetError(err)
		return nil, apperrors.DataUnavailableWrap(err, "source file is empty")
	}

	cols, err := resolveColumns(scanner.Text())
	if err != nil {
		span.SetError(err)
		return nil, apperrors.DataUnavailableWrap(err, "source file is missing required columns")
	}

	start := time.Now()
	ds := &Dataset{Brand: l.brand}

	batch := make([]string, 0, batchSize)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		batch = append(batch, scanner.Text())
		if len(batch) >= batchSize {
			if err := l.cleanBatch(ctx, batch, cols, ds); err != nil {
				return nil, err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := l.cleanBatch(ctx, batch, cols, ds); err != nil {
			return nil, err
		}
	}

	if err := scanner.Err(); err != nil {
		span.SetError(err)
		return nil, apperrors.DataUnavailableWrap(err, "reading source file failed")
	}

	ds.LoadedAt = time.Now()

	l.logger.Info("dataset loaded",
		"file", filename,
		"brand", l.brand,
		"rows", len(ds.Rows),
		"total_valid_rows", ds.TotalValidRows,
		"dropped", ds.Dropped.Total(),
		"duration", time.Since(start),
	)
	span.SetTag("rows", strconv.Itoa(len(ds.Rows)))

	return ds, nil
}

func resolveColumns(headerLine string) (columnIndex, error) {
	fields := strings.Split(headerLine, ",")
	byName := make(map[string]int, len(fields))
	for i, f := range fields {
		byName[strings.ToLower(strings.TrimSpace(f))] = i
	}

	for _, required := range requiredColumns {
		if _, ok := byName[required]; !ok {
			return columnIndex{}, fmt.Errorf("required column %q not found in header", required)
		}
	}

	cols := columnIndex{
		brand:    byName["brand"],
		date:     byName["purchase_date"],
		amount:   byName["purchase_amount"],
		price:    byName["market_price"],
		rating:   byName["rating"],
		city:     byName["city"],
		discount: byName["discount_applied"],
		category: -1,
		ageGroup: -1,
	}
	if i, ok := byName["product_category"]; ok {
		cols.category = i
	}
	if i, ok := byName["age_group"]; ok {
		cols.ageGroup = i
	}
	return cols, nil
}

type cleanedRow struct {
	tx     models.Transaction
	ok     bool
	reason string
}

// cleanBatch parses one batch of raw lines with a bounded worker pool and
// folds the results into ds sequentially, so the Dataset itself is never
// written concurrently.
func (l *Loader) cleanBatch(ctx context.Context, batch []string, cols columnIndex, ds *Dataset) error {
	var wg errgroup.Group
	wg.SetLimit(maxWorkers)

	rowChan := make(chan cleanedRow, len(batch))

	for _, line := range batch {
		wg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			tx, reason := parseRow(strings.Split(line, ","), cols)
			rowChan <- cleanedRow{tx: tx, ok: reason == "", reason: reason}
			return nil
		})
	}

	if err := wg.Wait(); err != nil {
		close(rowChan)
		return err
	}
	close(rowChan)

	for row := range rowChan {
		if !row.ok {
			switch row.reason {
			case "short":
				ds.Dropped.ShortRow++
			case "date":
				ds.Dropped.BadDate++
			case "range":
				ds.Dropped.OutOfRange++
			default:
				ds.Dropped.BadNumber++
			}
			continue
		}
		ds.TotalValidRows++
		if strings.EqualFold(row.tx.Brand, l.brand) {
			ds.Rows = append(ds.Rows, row.tx)
		}
	}

	return nil
}

// parseRow coerces one raw record. The returned reason is "" for a clean row,
// otherwise one of "short", "date", "number", "range".
func parseRow(record []string, cols columnIndex) (models.Transaction, string) {
	need := cols.discount
	for _, i := range []int{cols.brand, cols.date, cols.amount, cols.price, cols.rating, cols.city} {
		if i > need {
			need = i
		}
	}
	if len(record) <= need {
		return models.Transaction{}, "short"
	}

	purchaseDate, err := parseDate(strings.TrimSpace(record[cols.date]))
	if err != nil {
		return models.Transaction{}, "date"
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(record[cols.amount]), 64)
	if err != nil {
		return models.Transaction{}, "number"
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(record[cols.price]), 64)
	if err != nil {
		return models.Transaction{}, "number"
	}

	rating, err := strconv.ParseFloat(strings.TrimSpace(record[cols.rating]), 64)
	if err != nil {
		return models.Transaction{}, "number"
	}

	if amount < 0 || price < 0 || rating < ratingMin || rating > ratingMax {
		return models.Transaction{}, "range"
	}

	discount := parseBool(strings.TrimSpace(record[cols.discount]))

	tx := models.Transaction{
		Brand:           strings.TrimSpace(record[cols.brand]),
		PurchaseDate:    purchaseDate,
		PurchaseAmount:  amount,
		MarketPrice:     price,
		Rating:          rating,
		City:            strings.TrimSpace(record[cols.city]),
		DiscountApplied: discount,
	}
	if cols.category >= 0 && cols.category < len(record) {
		tx.ProductCategory = strings.TrimSpace(record[cols.category])
	}
	if cols.ageGroup >= 0 && cols.ageGroup < len(record) {
		tx.AgeGroup = strings.TrimSpace(record[cols.ageGroup])
	}

	return tx, ""
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "yes", "y", "1":
		return true
	default:
		return false
	}
}
