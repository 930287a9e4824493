package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Dashboard renders the single-page shell. All data arrives through the
// datastar SSE endpoints; changing any filter re-fetches the active page.
func Dashboard() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, dashboardHTML)
		return err
	})
}

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8"/>
<meta name="viewport" content="width=device-width, initial-scale=1"/>
<title>Superstore Analytics</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@latest/bundles/datastar.js"></script>
<script src="https://cdn.plot.ly/plotly-2.35.2.min.js"></script>
<style>
body { font-family: system-ui, sans-serif; margin: 0; display: flex; }
aside { width: 280px; padding: 1rem; background: #f4f5f7; min-height: 100vh; }
main { flex: 1; padding: 1.5rem; }
.modern-table { width: 100%; border-collapse: collapse; }
.modern-table th, .modern-table td { padding: .5rem; border-bottom: 1px solid #e0e0e0; text-align: left; }
.kpi-row { display: flex; gap: 1rem; margin-bottom: 1rem; }
.kpi { flex: 1; padding: 1rem; background: #fff; border: 1px solid #e0e0e0; border-radius: 8px; }
.warning { color: #8a6d3b; background: #fcf8e3; padding: .75rem; border-radius: 6px; }
label { display: block; margin-top: .75rem; font-size: .85rem; }
</style>
</head>
<body data-signals="{page: 'overview', pageData: {}, regions: [], categories: [], segments: [], salesReps: []}"
      data-on-load="@get('/sse/filters')">
<aside>
	<h2>Global Filters</h2>
	<div id="filters-status"></div>
	<label>Region <select multiple data-bind-region></select></label>
	<label>Category <select multiple data-bind-category></select></label>
	<label>Customer Segment <select multiple data-bind-segment></select></label>
	<h2>Date Range Filter</h2>
	<label>Start Date <input type="date" data-bind-start/></label>
	<label>End Date <input type="date" data-bind-end/></label>
	<h2>Top N Analysis</h2>
	<label>Select Top N <input type="range" min="5" max="20" value="10" data-bind-topn/></label>
	<h2>Navigation</h2>
	<nav id="page-nav">
		<label><input type="radio" name="page" value="overview" checked
			data-on-click="@get('/sse/pages/overview')"/> Overview</label>
		<label><input type="radio" name="page" value="sales"
			data-on-click="@get('/sse/pages/sales')"/> Sales Analysis</label>
		<label><input type="radio" name="page" value="profit"
			data-on-click="@get('/sse/pages/profit')"/> Profit Analysis</label>
		<label><input type="radio" name="page" value="geo"
			data-on-click="@get('/sse/pages/geo')"/> Geographical Analysis</label>
		<label><input type="radio" name="page" value="reps"
			data-on-click="@get('/sse/pages/reps')"/> Sales Rep Analysis</label>
		<label><input type="radio" name="page" value="notifications"
			data-on-click="@get('/sse/pages/notifications')"/> Send Notifications</label>
	</nav>
</aside>
<main data-on-load="@get('/sse/pages/overview')">
	<h1>Superstore Analytics</h1>
	<div id="page-status"></div>
	<div class="kpi-row">
		<div class="kpi">Total Sales <strong data-text="$pageData.kpis ? $pageData.kpis.total_sales_display : ''"></strong></div>
		<div class="kpi">Total Profit <strong data-text="$pageData.kpis ? $pageData.kpis.total_profit_display : ''"></strong></div>
		<div class="kpi">Average Discount <strong data-text="$pageData.kpis ? $pageData.kpis.avg_discount_display : ''"></strong></div>
	</div>
	<div id="trend-chart"></div>
	<div id="products-content"></div>
	<div id="category-chart"></div>
	<div id="treemap-chart"></div>
	<div id="scatter-chart"></div>
	<div id="choropleth-chart"></div>
</main>
</body>
</html>`
