package services

import (
	"cmp"
	"log/slog"
	"slices"

	"superstore-dashboard/internal/models"
)

// scatterCap bounds how many raw rows the scatter view ships to a chart.
const scatterCap = 2000

// Analytics computes the aggregation views over a filtered view. Every
// method is a pure function of its input slice; nothing is cached
// between requests.
type Analytics struct {
	store  *Store
	logger *slog.Logger
}

func NewAnalytics(store *Store) *Analytics {
	return &Analytics{store: store, logger: slog.Default()}
}

func (a *Analytics) Store() *Store {
	return a.store
}

// View filters the dataset for the given normalized selection.
func (a *Analytics) View(sel Selection) []models.Transaction {
	return a.store.Filter(sel)
}

// KPIs sums the headline measures. AvgDiscount is only defined when the
// view is non-empty; callers must check HasData before displaying it.
func (a *Analytics) KPIs(view []models.Transaction) models.KPISet {
	kpi := models.KPISet{RecordCount: len(view)}
	if len(view) == 0 {
		return kpi
	}

	var discountSum float64
	for _, tx := range view {
		kpi.TotalSales += tx.Sales
		kpi.TotalProfit += tx.Profit
		discountSum += tx.Discount
	}
	kpi.AvgDiscount = discountSum / float64(len(view))
	kpi.HasData = true
	return kpi
}

// DailyTrend sums sales and profit per order date, ascending by date.
func (a *Analytics) DailyTrend(view []models.Transaction) []models.TrendPoint {
	groups := make(map[string]*models.TrendPoint)
	for _, tx := range view {
		day := tx.OrderDate.Format("2006-01-02")
		p := groups[day]
		if p == nil {
			p = &models.TrendPoint{Date: day}
			groups[day] = p
		}
		p.Sales += tx.Sales
		p.Profit += tx.Profit
	}

	result := make([]models.TrendPoint, 0, len(groups))
	for _, p := range groups {
		result = append(result, *p)
	}
	slices.SortFunc(result, func(x, y models.TrendPoint) int {
		return cmp.Compare(x.Date, y.Date)
	})
	return result
}

func (a *Analytics) TopProducts(view []models.Transaction, n int) []models.ProductSales {
	groups := make(map[string]*models.ProductSales)
	for _, tx := range view {
		p := groups[tx.ProductName]
		if p == nil {
			p = &models.ProductSales{ProductName: tx.ProductName}
			groups[tx.ProductName] = p
		}
		p.Sales += tx.Sales
		p.Orders++
	}

	result := make([]models.ProductSales, 0, len(groups))
	for _, p := range groups {
		result = append(result, *p)
	}
	sortDescending(result, func(p models.ProductSales) (float64, string) {
		return p.Sales, p.ProductName
	})
	return truncate(result, n)
}

// SalesByState sums both measures per state; the full slice feeds the
// choropleths and the truncated one the top-states bar chart.
func (a *Analytics) SalesByState(view []models.Transaction) []models.StateMeasure {
	groups := make(map[string]*models.StateMeasure)
	for _, tx := range view {
		m := groups[tx.State]
		if m == nil {
			m = &models.StateMeasure{State: tx.State}
			groups[tx.State] = m
		}
		m.Sales += tx.Sales
		m.Profit += tx.Profit
	}

	result := make([]models.StateMeasure, 0, len(groups))
	for _, m := range groups {
		result = append(result, *m)
	}
	sortDescending(result, func(m models.StateMeasure) (float64, string) {
		return m.Sales, m.State
	})
	return result
}

func (a *Analytics) TopStates(view []models.Transaction, n int) []models.StateMeasure {
	return truncate(a.SalesByState(view), n)
}

func (a *Analytics) TopCities(view []models.Transaction, n int) []models.CitySales {
	groups := make(map[string]float64)
	for _, tx := range view {
		groups[tx.City] += tx.Sales
	}

	result := make([]models.CitySales, 0, len(groups))
	for city, sales := range groups {
		result = append(result, models.CitySales{City: city, Sales: sales})
	}
	sortDescending(result, func(c models.CitySales) (float64, string) {
		return c.Sales, c.City
	})
	return truncate(result, n)
}

func (a *Analytics) SalesByCategory(view []models.Transaction) []models.CategorySales {
	groups := make(map[string]float64)
	for _, tx := range view {
		groups[tx.Category] += tx.Sales
	}

	result := make([]models.CategorySales, 0, len(groups))
	for category, sales := range groups {
		result = append(result, models.CategorySales{Category: category, Sales: sales})
	}
	sortDescending(result, func(c models.CategorySales) (float64, string) {
		return c.Sales, c.Category
	})
	return result
}

// SalesBySubCategory is the two-level category -> sub-category sum that
// feeds the treemap.
func (a *Analytics) SalesBySubCategory(view []models.Transaction) []models.SubCategorySales {
	groups := make(map[string]*models.SubCategorySales)
	for _, tx := range view {
		key := tx.Category + "|" + tx.SubCategory
		g := groups[key]
		if g == nil {
			g = &models.SubCategorySales{Category: tx.Category, SubCategory: tx.SubCategory}
			groups[key] = g
		}
		g.Sales += tx.Sales
	}

	result := make([]models.SubCategorySales, 0, len(groups))
	for _, g := range groups {
		result = append(result, *g)
	}
	sortDescending(result, func(g models.SubCategorySales) (float64, string) {
		return g.Sales, g.Category + "|" + g.SubCategory
	})
	return result
}

func (a *Analytics) ProfitByRegion(view []models.Transaction) []models.RegionProfit {
	groups := make(map[string]float64)
	for _, tx := range view {
		groups[tx.Region] += tx.Profit
	}

	result := make([]models.RegionProfit, 0, len(groups))
	for region, profit := range groups {
		result = append(result, models.RegionProfit{Region: region, Profit: profit})
	}
	sortDescending(result, func(r models.RegionProfit) (float64, string) {
		return r.Profit, r.Region
	})
	return result
}

// RepPerformance sums sales, profit and bonus per sales rep.
func (a *Analytics) RepPerformance(view []models.Transaction) []models.RepPerformance {
	groups := make(map[string]*models.RepPerformance)
	for _, tx := range view {
		r := groups[tx.SalesRep]
		if r == nil {
			r = &models.RepPerformance{SalesRep: tx.SalesRep}
			groups[tx.SalesRep] = r
		}
		r.Sales += tx.Sales
		r.Profit += tx.Profit
		r.Bonus += tx.Bonus
	}

	result := make([]models.RepPerformance, 0, len(groups))
	for _, r := range groups {
		result = append(result, *r)
	}
	return result
}

// RepMeasure selects which summed measure orders a top-reps view.
type RepMeasure func(models.RepPerformance) float64

func RepSales(r models.RepPerformance) float64  { return r.Sales }
func RepProfit(r models.RepPerformance) float64 { return r.Profit }
func RepBonus(r models.RepPerformance) float64  { return r.Bonus }

func (a *Analytics) TopReps(view []models.Transaction, n int, measure RepMeasure) []models.RepPerformance {
	result := a.RepPerformance(view)
	sortDescending(result, func(r models.RepPerformance) (float64, string) {
		return measure(r), r.SalesRep
	})
	return truncate(result, n)
}

// ScatterPoints projects raw filtered rows for the profit-vs-sales
// scatter, capped to keep the chart payload bounded.
func (a *Analytics) ScatterPoints(view []models.Transaction) []models.ScatterPoint {
	limit := min(len(view), scatterCap)
	result := make([]models.ScatterPoint, 0, limit)
	for _, tx := range view[:limit] {
		result = append(result, models.ScatterPoint{
			Sales:       tx.Sales,
			Profit:      tx.Profit,
			Quantity:    tx.Quantity,
			Category:    tx.Category,
			SubCategory: tx.SubCategory,
		})
	}
	return result
}

// sortDescending orders by measure descending, breaking ties on the key
// ascending so identical inputs always produce identical output.
func sortDescending[T any](items []T, by func(T) (float64, string)) {
	slices.SortFunc(items, func(x, y T) int {
		mx, kx := by(x)
		my, ky := by(y)
		if c := cmp.Compare(my, mx); c != 0 {
			return c
		}
		return cmp.Compare(kx, ky)
	})
}

// truncate keeps the first n items; when n exceeds the number of groups
// the whole slice is returned.
func truncate[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
