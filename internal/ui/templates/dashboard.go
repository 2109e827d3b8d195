// Package templates holds the dashboard page components. The page is static
// shell markup; every panel loads its data over the datastar SSE endpoints.
package templates

import (
	"context"
	"html"
	"io"

	"github.com/a-h/templ"
)

// Dashboard returns the single-page dashboard component.
func Dashboard(brand string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, dashboardHead); err != nil {
			return err
		}
		if _, err := io.WriteString(w, html.EscapeString(brand)); err != nil {
			return err
		}
		_, err := io.WriteString(w, dashboardBody)
		return err
	})
}

const dashboardHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Market Analysis Dashboard</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0/bundles/datastar.js"></script>
<script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
<style>
body { font-family: system-ui, sans-serif; margin: 0; background: #f5f6fa; color: #222; }
header { background: #1f2937; color: #fff; padding: 1rem 2rem; display: flex; justify-content: space-between; align-items: center; }
main { padding: 2rem; display: grid; gap: 1.5rem; grid-template-columns: repeat(auto-fit, minmax(420px, 1fr)); }
.panel { background: #fff; border-radius: 8px; padding: 1.25rem; box-shadow: 0 1px 3px rgba(0,0,0,.1); }
.panel h2 { margin-top: 0; font-size: 1.05rem; }
.modern-table { width: 100%; border-collapse: collapse; font-size: .9rem; }
.modern-table th, .modern-table td { text-align: left; padding: .4rem .6rem; border-bottom: 1px solid #e5e7eb; }
.downloads a { color: #93c5fd; margin-left: 1rem; }
</style>
</head>
<body>
<header>
<h1>`

const dashboardBody = ` Market Analysis</h1>
<nav class="downloads">
<a href="/report.txt">Download report (txt)</a>
<a href="/report.csv">Download report (csv)</a>
</nav>
</header>
<main data-signals="{monthlyData: [], forecastData: [], discountData: []}">
<section class="panel" data-on-load="@get('/sse/top-cities')">
<h2>Top Cities by Sales</h2>
<div id="cities-content">Loading…</div>
</section>
<section class="panel" data-on-load="@get('/sse/monthly-sales')">
<h2>Monthly Sales</h2>
<div id="monthly-content">Loading…</div>
<canvas id="monthly-chart"></canvas>
</section>
<section class="panel" data-on-load="@get('/sse/forecast')">
<h2>Sales Forecast</h2>
<div id="forecast-content">Loading…</div>
<canvas id="forecast-chart"></canvas>
</section>
<section class="panel" data-on-load="@get('/sse/discount-impact')">
<h2>Discount Impact</h2>
<div id="discount-content">Loading…</div>
<canvas id="discount-chart"></canvas>
</section>
</main>
<footer style="padding:1rem 2rem">
<button data-on-click="@get('/sse/refresh-all')">Refresh all panels</button>
</footer>
</body>
</html>`
