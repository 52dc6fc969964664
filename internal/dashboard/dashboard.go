// Package dashboard holds the calendar and arithmetic rules of the admin
// dashboard: reporting windows, percent changes, rounding and chart series.
package dashboard

import (
	"time"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

// CountedStatuses are the order statuses that contribute to sales figures.
var CountedStatuses = []model.OrderStatus{
	model.StatusPending,
	model.StatusProcessing,
	model.StatusShipped,
	model.StatusDelivered,
}

// Window is a reporting period [From, To) and the period of equal calendar
// length right before it, [PrevFrom, From).
type Window struct {
	PrevFrom time.Time
	From     time.Time
	To       time.Time
}

// WindowFor returns the reporting window ending at now.
func WindowFor(filter model.TimeFilter, now time.Time) Window {
	back := func(t time.Time) time.Time {
		switch filter {
		case model.FilterWeek:
			return t.AddDate(0, 0, -7)
		case model.FilterYear:
			return t.AddDate(-1, 0, 0)
		default:
			return t.AddDate(0, -1, 0)
		}
	}

	from := back(now)
	return Window{PrevFrom: back(from), From: from, To: now}
}

// SeriesUnit is the bucket width used for filter's chart.
func SeriesUnit(filter model.TimeFilter) string {
	if filter == model.FilterYear {
		return "month"
	}
	return "day"
}

// PercentChange is the change from previous to current in percent, rounded to
// one decimal. Growth from zero counts as 100 and no movement from zero as 0.
func PercentChange(previous, current float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}

	prev := decimal.NewFromFloat(previous)
	change := decimal.NewFromFloat(current).Sub(prev).Div(prev).Mul(decimal.NewFromInt(100))
	return change.Round(1).InexactFloat64()
}

// RoundMoney rounds v to cents.
func RoundMoney(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Finalize rounds the sales total and derives the average order value.
func Finalize(t model.PeriodTotals) model.PeriodTotals {
	t.TotalSales = RoundMoney(t.TotalSales)
	t.AverageOrder = 0
	if t.TotalOrders > 0 {
		avg := decimal.NewFromFloat(t.TotalSales).Div(decimal.NewFromInt(int64(t.TotalOrders)))
		t.AverageOrder = avg.Round(2).InexactFloat64()
	}
	return t
}

// Deltas compares two finalized periods.
func Deltas(previous, current model.PeriodTotals) model.PeriodDeltas {
	return model.PeriodDeltas{
		SalesChange:     PercentChange(previous.TotalSales, current.TotalSales),
		OrdersChange:    PercentChange(float64(previous.TotalOrders), float64(current.TotalOrders)),
		CustomersChange: PercentChange(float64(previous.TotalCustomers), float64(current.TotalCustomers)),
	}
}

// BuildSeries lays buckets out as chart points from the bucket containing
// from up to the bucket containing to, in UTC. Week and year series are
// padded with zero points. Month series skip days without sales unless
// includeEmpty is set.
func BuildSeries(filter model.TimeFilter, from, to time.Time, buckets []model.SalesBucket, includeEmpty bool) []model.SeriesPoint {
	monthly := SeriesUnit(filter) == "month"
	pad := filter != model.FilterMonth || includeEmpty

	layout := "2006-01-02"
	truncate := func(t time.Time) time.Time {
		t = t.UTC()
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	step := func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }
	if monthly {
		layout = "2006-01"
		truncate = func(t time.Time) time.Time {
			t = t.UTC()
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		}
		step = func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }
	}

	byKey := make(map[string]model.SalesBucket, len(buckets))
	for _, b := range buckets {
		key := truncate(b.Start).Format(layout)
		agg := byKey[key]
		agg.Sales += b.Sales
		agg.Orders += b.Orders
		byKey[key] = agg
	}

	points := []model.SeriesPoint{}
	last := truncate(to)
	for cur := truncate(from); !cur.After(last); cur = step(cur) {
		key := cur.Format(layout)
		b, ok := byKey[key]
		if !pad && (!ok || (b.Sales == 0 && b.Orders == 0)) {
			continue
		}
		points = append(points, model.SeriesPoint{
			Date:   key,
			Sales:  RoundMoney(b.Sales),
			Orders: b.Orders,
		})
	}

	return points
}
