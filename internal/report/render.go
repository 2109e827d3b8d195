package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
)

const divider = "=================================================="

// WriteText renders the report as the flat downloadable document: key
// metrics first, then one table per slot plus trend parameters and projected
// values where a forecast exists.
func (r *Report) WriteText(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s MARKET ANALYSIS REPORT\n", strings.ToUpper(r.Brand))
	fmt.Fprintf(&b, "%s\n", divider)
	fmt.Fprintf(&b, "Generated: %s\n\n", r.GeneratedAt.Format("2006-01-02 15:04 UTC"))

	fmt.Fprintf(&b, "Transactions:      %d\n", r.Metrics.Transactions)
	fmt.Fprintf(&b, "Market share:      %.1f%%\n", r.Metrics.MarketShare*100)
	fmt.Fprintf(&b, "Total sales:       $%.2f\n", r.Metrics.TotalSales)
	fmt.Fprintf(&b, "Average rating:    %.2f\n", r.Metrics.MeanRating)
	fmt.Fprintf(&b, "Average price:     $%.2f\n", r.Metrics.MeanMarketPrice)

	for _, slot := range r.Slots {
		fmt.Fprintf(&b, "\n%s\n%s\n%s\n\n", divider, strings.ToUpper(slot.Title), divider)

		if slot.Unavailable {
			fmt.Fprintf(&b, "unavailable: %s\n", slot.Reason)
			continue
		}

		if slot.Summary != nil {
			writeSummaryTable(&b, slot)
		}
		if slot.Trend != nil {
			writeTrend(&b, slot)
		} else if slot.Reason != "" {
			fmt.Fprintf(&b, "\nforecast unavailable: %s\n", slot.Reason)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeSummaryTable(b *strings.Builder, slot Slot) {
	tw := tabwriter.NewWriter(b, 0, 4, 2, ' ', 0)

	hasSplit := false
	for _, g := range slot.Summary.Groups {
		if g.DiscountedMean != nil || g.RegularMean != nil {
			hasSplit = true
			break
		}
	}

	if hasSplit {
		fmt.Fprintln(tw, "KEY\tCOUNT\tSUM\tMEAN RATING\tSHARE\tDISCOUNTED MEAN\tFULL-PRICE MEAN")
	} else {
		fmt.Fprintln(tw, "KEY\tCOUNT\tSUM\tMEAN RATING\tSHARE")
	}

	for _, g := range slot.Summary.Groups {
		if hasSplit {
			fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.1f%%\t%s\t%s\n",
				g.Key, g.Count, g.Sum, g.MeanRating, g.Share*100,
				meanOrUndefined(g.DiscountedMean), meanOrUndefined(g.RegularMean))
		} else {
			fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.1f%%\n",
				g.Key, g.Count, g.Sum, g.MeanRating, g.Share*100)
		}
	}

	tw.Flush()
}

func writeTrend(b *strings.Builder, slot Slot) {
	t := slot.Trend
	fmt.Fprintf(b, "\nLinear trend (%s): slope=%.4f intercept=%.4f\n", t.Metric, t.Slope, t.Intercept)
	for _, caveat := range t.Caveats {
		fmt.Fprintf(b, "caveat: %s\n", caveat)
	}
	for _, p := range t.Points {
		marker := ""
		if p.Projected {
			marker = "  (projected)"
		}
		fmt.Fprintf(b, "%s: %.2f%s\n", p.Period, p.Value, marker)
	}
}

func meanOrUndefined(mean *float64) string {
	if mean == nil {
		return "undefined"
	}
	return fmt.Sprintf("%.2f", *mean)
}

// WriteCSV renders the report as flat CSV rows: one row per group and one per
// trend point, tagged with the slot name.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := []string{"slot", "kind", "key", "count", "sum", "mean_rating", "share", "value", "projected", "note"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, slot := range r.Slots {
		if slot.Unavailable {
			row := []string{slot.Name, "unavailable", "", "", "", "", "", "", "", slot.Reason}
			if err := cw.Write(row); err != nil {
				return err
			}
			continue
		}

		if slot.Summary != nil {
			for _, g := range slot.Summary.Groups {
				row := []string{
					slot.Name, "group", g.Key,
					strconv.Itoa(g.Count),
					formatFloat(g.Sum),
					formatFloat(g.MeanRating),
					formatFloat(g.Share),
					"", "", "",
				}
				if err := cw.Write(row); err != nil {
					return err
				}
			}
		}

		if slot.Trend != nil {
			for _, p := range slot.Trend.Points {
				note := ""
				if p.Clamped {
					note = "clamped"
				}
				row := []string{
					slot.Name, "trend", p.Period,
					"", "", "", "",
					formatFloat(p.Value),
					strconv.FormatBool(p.Projected),
					note,
				}
				if err := cw.Write(row); err != nil {
					return err
				}
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
