package models

import "time"

// Transaction is one row of the superstore dataset. SalesRep, Bonus,
// Mobile and Email come from optional columns and are zero-valued when
// the source file does not carry them.
type Transaction struct {
	OrderDate   time.Time
	Region      string
	Category    string
	SubCategory string
	Segment     string
	State       string
	City        string
	ProductName string
	SalesRep    string
	Sales       float64
	Profit      float64
	Discount    float64
	Quantity    int
	Bonus       float64
	Mobile      string
	Email       string
}

// KPISet holds the headline metrics for a filtered view. HasData is
// false when the view is empty, in which case AvgDiscount is undefined
// and must not be displayed.
type KPISet struct {
	TotalSales  float64 `json:"total_sales"`
	TotalProfit float64 `json:"total_profit"`
	AvgDiscount float64 `json:"avg_discount"`
	HasData     bool    `json:"has_data"`
	RecordCount int     `json:"record_count"`
}

type TrendPoint struct {
	Date   string  `json:"date"`
	Sales  float64 `json:"sales"`
	Profit float64 `json:"profit"`
}

type ProductSales struct {
	ProductName string  `json:"product_name"`
	Sales       float64 `json:"sales"`
	Orders      int     `json:"orders"`
}

type CategorySales struct {
	Category string  `json:"category"`
	Sales    float64 `json:"sales"`
}

type SubCategorySales struct {
	Category    string  `json:"category"`
	SubCategory string  `json:"sub_category"`
	Sales       float64 `json:"sales"`
}

// StateMeasure carries both summed measures so one slice can feed the
// sales and profit choropleths.
type StateMeasure struct {
	State  string  `json:"state"`
	Sales  float64 `json:"sales"`
	Profit float64 `json:"profit"`
}

type CitySales struct {
	City  string  `json:"city"`
	Sales float64 `json:"sales"`
}

type RegionProfit struct {
	Region string  `json:"region"`
	Profit float64 `json:"profit"`
}

type RepPerformance struct {
	SalesRep string  `json:"sales_rep"`
	Sales    float64 `json:"sales"`
	Profit   float64 `json:"profit"`
	Bonus    float64 `json:"bonus"`
}

// ScatterPoint is one raw filtered row projected for the profit-vs-sales
// scatter chart.
type ScatterPoint struct {
	Sales       float64 `json:"sales"`
	Profit      float64 `json:"profit"`
	Quantity    int     `json:"quantity"`
	Category    string  `json:"category"`
	SubCategory string  `json:"sub_category"`
}
