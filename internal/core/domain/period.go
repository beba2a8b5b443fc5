package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PeriodKind names the supported reporting windows.
type PeriodKind string

const (
	PeriodAllTime  PeriodKind = "ALL_TIME"
	PeriodYTD      PeriodKind = "YTD"
	PeriodLastYear PeriodKind = "LAST_YEAR"
	PeriodYear     PeriodKind = "YEAR"
	PeriodQuarter  PeriodKind = "QUARTER"
	PeriodMonth    PeriodKind = "MONTH"
	PeriodDaily    PeriodKind = "DAILY"
	PeriodTrailing PeriodKind = "TRAILING_DAYS"
	PeriodCustom   PeriodKind = "CUSTOM"
)

// Period is a closed reporting window [Start, End], date-only.
type Period struct {
	Kind  PeriodKind `json:"kind"`
	Start time.Time  `json:"start"`
	End   time.Time  `json:"end"`
	Label string     `json:"label"`
}

// YearPeriod is the calendar-year window. The end is capped at today for
// the current year.
func YearPeriod(year int) Period {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	if today := Today(); end.After(today) {
		end = today
	}
	return Period{Kind: PeriodYear, Start: start, End: end, Label: fmt.Sprintf("%d", year)}
}

// QuarterPeriod is one calendar quarter of a year, quarter in 1..4.
func QuarterPeriod(year, quarter int) Period {
	startMonth := time.Month((quarter-1)*3 + 1)
	start := time.Date(year, startMonth, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 3, -1)
	if today := Today(); end.After(today) {
		end = today
	}
	return Period{Kind: PeriodQuarter, Start: start, End: end, Label: fmt.Sprintf("%d-Q%d", year, quarter)}
}

// MonthPeriod is one calendar month of a year, month in 1..12.
func MonthPeriod(year, month int) Period {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	if today := Today(); end.After(today) {
		end = today
	}
	return Period{Kind: PeriodMonth, Start: start, End: end, Label: start.Format("2006-01")}
}

// TrailingPeriod is the window of the last n days ending today.
func TrailingPeriod(days int) Period {
	end := Today()
	return Period{
		Kind:  PeriodTrailing,
		Start: end.AddDate(0, 0, -(days - 1)),
		End:   end,
		Label: fmt.Sprintf("last-%dd", days),
	}
}

// CustomPeriod is an arbitrary closed window.
func CustomPeriod(start, end time.Time) Period {
	start = NormalizeDate(start)
	end = NormalizeDate(end)
	return Period{
		Kind:  PeriodCustom,
		Start: start,
		End:   end,
		Label: start.Format("2006-01-02") + ".." + end.Format("2006-01-02"),
	}
}

// QuartersOfYear returns the (possibly partial) quarters elapsed in a year.
func QuartersOfYear(year int) []Period {
	today := Today()
	periods := make([]Period, 0, 4)
	for q := 1; q <= 4; q++ {
		p := QuarterPeriod(year, q)
		if p.Start.After(today) {
			break
		}
		periods = append(periods, p)
	}
	return periods
}

// MonthsOfYear returns the (possibly partial) months elapsed in a year.
func MonthsOfYear(year int) []Period {
	today := Today()
	periods := make([]Period, 0, 12)
	for m := 1; m <= 12; m++ {
		p := MonthPeriod(year, m)
		if p.Start.After(today) {
			break
		}
		periods = append(periods, p)
	}
	return periods
}

// TrendPoint is one sampled total-assets observation inside a period,
// used for sparkline-style charts.
type TrendPoint struct {
	Date        time.Time       `json:"date"`
	TotalAssets decimal.Decimal `json:"totalAssets"`
}

// PeriodStats is the outcome of the time-period analyzer for one window.
//
// Flow figures are sums of the transactions falling strictly inside the
// window. Stock figures are snapshot(End) minus snapshot(Start) through the
// one shared value-at-date path, which is what makes quarterly figures add
// up to the standalone annual figure.
type PeriodStats struct {
	Period     Period   `json:"period"`
	AccountIDs []string `json:"accountIDs"`

	// Flows, summed from ledger entries inside the window (reporting currency).
	RealizedGain decimal.Decimal `json:"realizedGain"`
	Dividends    decimal.Decimal `json:"dividends"`
	Interest     decimal.Decimal `json:"interest"`
	Deposits     decimal.Decimal `json:"deposits"`
	Withdrawals  decimal.Decimal `json:"withdrawals"`
	Fees         decimal.Decimal `json:"fees"`

	// Snapshot deltas: end minus start.
	TotalAssetsChange    decimal.Decimal `json:"totalAssetsChange"`
	TotalAssetsChangePct decimal.Decimal `json:"totalAssetsChangePct"`
	StockValueChange     decimal.Decimal `json:"stockValueChange"`
	CashChange           decimal.Decimal `json:"cashChange"`
	UnrealizedGainChange decimal.Decimal `json:"unrealizedGainChange"`
	AnnualizedReturnPct  decimal.Decimal `json:"annualizedReturnPct"`
	StartStockRatioPct   decimal.Decimal `json:"startStockRatioPct"`
	EndStockRatioPct     decimal.Decimal `json:"endStockRatioPct"`

	StartSnapshot AssetSnapshot `json:"startSnapshot"`
	EndSnapshot   AssetSnapshot `json:"endSnapshot"`

	TrendPoints []TrendPoint `json:"trendPoints,omitempty"`
}
