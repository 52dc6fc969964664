package model

import (
	"time"

	"github.com/google/uuid"
)

// TimeFilter selects the dashboard reporting window.
type TimeFilter string

const (
	FilterWeek  TimeFilter = "week"
	FilterMonth TimeFilter = "month"
	FilterYear  TimeFilter = "year"
)

// Valid reports whether f is a supported window.
func (f TimeFilter) Valid() bool {
	return f == FilterWeek || f == FilterMonth || f == FilterYear
}

// PeriodTotals are the raw aggregates of one reporting window.
type PeriodTotals struct {
	TotalSales     float64 `json:"totalSales"`
	TotalOrders    int     `json:"totalOrders"`
	TotalCustomers int     `json:"totalCustomers"`
	AverageOrder   float64 `json:"averageOrderValue"`
}

// PeriodDeltas are percentage changes against the previous window.
type PeriodDeltas struct {
	SalesChange     float64 `json:"salesChange"`
	OrdersChange    float64 `json:"ordersChange"`
	CustomersChange float64 `json:"customersChange"`
}

// RecentOrder is the reduced view of an order shown on the dashboard.
type RecentOrder struct {
	ID          uuid.UUID   `json:"id"`
	OrderNumber string      `json:"orderNumber"`
	UserName    string      `json:"userName"`
	UserRole    Role        `json:"userRole"`
	TotalAmount float64     `json:"totalAmount"`
	Status      OrderStatus `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// ProductSales is the quantity and revenue sold of one product in a window.
type ProductSales struct {
	ProductID    uuid.UUID `json:"productId"`
	QuantitySold int       `json:"quantitySold"`
	Revenue      float64   `json:"revenue"`
}

// TopProduct is a best seller enriched with catalogue data.
type TopProduct struct {
	ProductID    uuid.UUID `json:"productId"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Images       []string  `json:"images"`
	QuantitySold int       `json:"quantitySold"`
	Revenue      float64   `json:"revenue"`
}

// SalesBucket is an aggregate for one day or month as returned by storage.
type SalesBucket struct {
	Start  time.Time
	Sales  float64
	Orders int
}

// SeriesPoint is one chart data point.
type SeriesPoint struct {
	Date   string  `json:"date"`
	Sales  float64 `json:"sales"`
	Orders int     `json:"orders"`
}

// InventoryStats summarises the catalogue.
type InventoryStats struct {
	TotalProducts   int `json:"totalProducts"`
	LowStockCount   int `json:"lowStockCount"`
	LowStockCeiling int `json:"lowStockThreshold"`
}

// DashboardStats is the full admin dashboard payload.
type DashboardStats struct {
	TimeFilter   TimeFilter     `json:"timeFilter"`
	From         time.Time      `json:"from"`
	To           time.Time      `json:"to"`
	Totals       PeriodTotals   `json:"totals"`
	Previous     PeriodTotals   `json:"previous"`
	Deltas       PeriodDeltas   `json:"deltas"`
	RecentOrders []RecentOrder  `json:"recentOrders"`
	TopProducts  []TopProduct   `json:"topProducts"`
	SalesSeries  []SeriesPoint  `json:"salesSeries"`
	Inventory    InventoryStats `json:"inventory"`
}
