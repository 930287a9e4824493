package pages

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/notify"
	"superstore-dashboard/internal/services"
)

// Page identifies one of the six fixed dashboard pages.
type Page string

const (
	PageOverview      Page = "overview"
	PageSales         Page = "sales"
	PageProfit        Page = "profit"
	PageGeo           Page = "geo"
	PageReps          Page = "reps"
	PageNotifications Page = "notifications"
)

var pageTitles = map[Page]string{
	PageOverview:      "Overview",
	PageSales:         "Sales Analysis",
	PageProfit:        "Profit Analysis",
	PageGeo:           "Geographical Analysis",
	PageReps:          "Sales Rep Analysis",
	PageNotifications: "Send Notifications",
}

// All returns the pages in menu order.
func All() []Page {
	return []Page{PageOverview, PageSales, PageProfit, PageGeo, PageReps, PageNotifications}
}

func (p Page) Valid() bool {
	_, ok := pageTitles[p]
	return ok
}

func (p Page) Title() string {
	return pageTitles[p]
}

// Overview is the landing page: KPIs, the daily trend line and the
// top-N products bar.
type Overview struct {
	KPIs        KPIDisplay            `json:"kpis"`
	Trend       []models.TrendPoint   `json:"trend"`
	TopProducts []models.ProductSales `json:"top_products"`
}

type SalesAnalysis struct {
	ByCategory    []models.CategorySales    `json:"by_category"`
	BySubCategory []models.SubCategorySales `json:"by_sub_category"`
	TopStates     []models.StateMeasure     `json:"top_states"`
	TopCities     []models.CitySales        `json:"top_cities"`
}

type ProfitAnalysis struct {
	ByRegion []models.RegionProfit `json:"by_region"`
	Scatter  []models.ScatterPoint `json:"scatter"`
}

// Geographical ships one state-level slice carrying both summed
// measures; the sales and profit choropleths read their own field.
type Geographical struct {
	ByState []models.StateMeasure `json:"by_state"`
}

// RepAnalysis degrades to Available=false with a warning when the
// dataset has no SalesRep column; everything else stays usable.
type RepAnalysis struct {
	Available   bool                    `json:"available"`
	Warning     string                  `json:"warning,omitempty"`
	KPIs        KPIDisplay              `json:"kpis"`
	TopBySales  []models.RepPerformance `json:"top_by_sales"`
	TopByProfit []models.RepPerformance `json:"top_by_profit"`
	TopByBonus  []models.RepPerformance `json:"top_by_bonus"`
}

// NotificationSetup tells the UI which channels the loaded schema
// supports and how many rows a dispatch would target.
type NotificationSetup struct {
	SMSAvailable    bool   `json:"sms_available"`
	EmailAvailable  bool   `json:"email_available"`
	HasBonusColumn  bool   `json:"has_bonus_column"`
	TargetRows      int    `json:"target_rows"`
	DefaultTemplate string `json:"default_template"`
}

// KPIDisplay pairs the raw KPI values with currency-formatted strings.
type KPIDisplay struct {
	models.KPISet
	TotalSalesDisplay  string `json:"total_sales_display"`
	TotalProfitDisplay string `json:"total_profit_display"`
	AvgDiscountDisplay string `json:"avg_discount_display"`
}

// FormatSAR renders a money amount the way the dashboard displays it.
func FormatSAR(v float64) string {
	return "SAR " + decimal.NewFromFloat(v).StringFixed(2)
}

func displayKPIs(kpi models.KPISet) KPIDisplay {
	d := KPIDisplay{
		KPISet:             kpi,
		TotalSalesDisplay:  FormatSAR(kpi.TotalSales),
		TotalProfitDisplay: FormatSAR(kpi.TotalProfit),
		AvgDiscountDisplay: "no data",
	}
	if kpi.HasData {
		d.AvgDiscountDisplay = decimal.NewFromFloat(kpi.AvgDiscount * 100).StringFixed(2) + "%"
	}
	return d
}

// Router maps a selected page to its fixed sequence of aggregation
// views. Pages share nothing but the filtered view and TopN.
type Router struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewRouter(analytics *services.Analytics, logger *slog.Logger) *Router {
	return &Router{analytics: analytics, logger: logger}
}

// Render normalizes the selection, filters the dataset and computes the
// page payload. The whole pipeline re-runs on every call; no view state
// survives between requests.
func (rt *Router) Render(page Page, sel services.Selection) (any, error) {
	if !page.Valid() {
		return nil, errors.NotFound(fmt.Sprintf("unknown page %q", page))
	}

	store := rt.analytics.Store()
	sel, err := store.Normalize(sel)
	if err != nil {
		return nil, err
	}
	view := rt.analytics.View(sel)

	switch page {
	case PageOverview:
		return rt.renderOverview(view, sel), nil
	case PageSales:
		return rt.renderSales(view, sel), nil
	case PageProfit:
		return rt.renderProfit(view), nil
	case PageGeo:
		return rt.renderGeo(view), nil
	case PageReps:
		return rt.renderReps(view, sel), nil
	case PageNotifications:
		return rt.renderNotificationSetup(view), nil
	}
	return nil, errors.NotFound(fmt.Sprintf("unknown page %q", page))
}

func (rt *Router) renderOverview(view []models.Transaction, sel services.Selection) Overview {
	return Overview{
		KPIs:        displayKPIs(rt.analytics.KPIs(view)),
		Trend:       rt.analytics.DailyTrend(view),
		TopProducts: rt.analytics.TopProducts(view, sel.TopN),
	}
}

func (rt *Router) renderSales(view []models.Transaction, sel services.Selection) SalesAnalysis {
	return SalesAnalysis{
		ByCategory:    rt.analytics.SalesByCategory(view),
		BySubCategory: rt.analytics.SalesBySubCategory(view),
		TopStates:     rt.analytics.TopStates(view, sel.TopN),
		TopCities:     rt.analytics.TopCities(view, sel.TopN),
	}
}

func (rt *Router) renderProfit(view []models.Transaction) ProfitAnalysis {
	return ProfitAnalysis{
		ByRegion: rt.analytics.ProfitByRegion(view),
		Scatter:  rt.analytics.ScatterPoints(view),
	}
}

func (rt *Router) renderGeo(view []models.Transaction) Geographical {
	return Geographical{ByState: rt.analytics.SalesByState(view)}
}

func (rt *Router) renderReps(view []models.Transaction, sel services.Selection) RepAnalysis {
	if !rt.analytics.Store().Schema().HasSalesRep {
		return RepAnalysis{Warning: "No 'SalesRep' column found in the dataset."}
	}

	repView := services.FilterReps(view, sel.SalesReps)
	return RepAnalysis{
		Available:   true,
		KPIs:        displayKPIs(rt.analytics.KPIs(repView)),
		TopBySales:  rt.analytics.TopReps(repView, sel.TopN, services.RepSales),
		TopByProfit: rt.analytics.TopReps(repView, sel.TopN, services.RepProfit),
		TopByBonus:  rt.analytics.TopReps(repView, sel.TopN, services.RepBonus),
	}
}

func (rt *Router) renderNotificationSetup(view []models.Transaction) NotificationSetup {
	schema := rt.analytics.Store().Schema()
	return NotificationSetup{
		SMSAvailable:    schema.HasMobile,
		EmailAvailable:  schema.HasEmail,
		HasBonusColumn:  schema.HasBonus,
		TargetRows:      len(view),
		DefaultTemplate: notify.DefaultTemplate,
	}
}
