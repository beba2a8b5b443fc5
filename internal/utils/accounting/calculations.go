package accounting

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

var (
	hundred        = decimal.NewFromInt(100)
	daysPerYear    = decimal.NewFromFloat(365.25)
	one            = decimal.NewFromInt(1)
	annualizeCap   = 365
	divisionPlaces = int32(12)
)

// RoundMoney rounds a monetary amount to 2 decimal places, half away from
// zero. Used only at display boundaries; internal math keeps full precision.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// PercentChange is (current-previous)/|previous| * 100, zero when previous
// is zero.
func PercentChange(previous, current decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		return decimal.Zero
	}
	return current.Sub(previous).DivRound(previous.Abs(), divisionPlaces).Mul(hundred)
}

// AnnualizedReturn converts a simple period return into an annual figure.
// Periods of a year or more compound with (1+r)^(365.25/days); shorter
// periods scale linearly to avoid wildly extrapolated compounding.
func AnnualizedReturn(periodReturn decimal.Decimal, periodDays int) decimal.Decimal {
	if periodDays <= 0 {
		return decimal.Zero
	}
	exponent := daysPerYear.DivRound(decimal.NewFromInt(int64(periodDays)), divisionPlaces)
	if periodDays >= annualizeCap {
		base := one.Add(periodReturn)
		if base.IsNegative() {
			// Total loss or worse; compounding is meaningless.
			return periodReturn
		}
		ef, _ := exponent.Float64()
		bf, _ := base.Float64()
		return decimal.NewFromFloat(math.Pow(bf, ef)).Sub(one)
	}
	return periodReturn.Mul(exponent)
}

// PreviousBusinessDay steps back one calendar day and keeps stepping until
// the result is a weekday. Holidays are handled upstream by the price cache.
func PreviousBusinessDay(date time.Time) time.Time {
	d := date.AddDate(0, 0, -1)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// IsWeekend reports whether the date falls on a Saturday or Sunday.
func IsWeekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// ExpectedTradingDays estimates how many trading days fall inside
// [start, end]: 5/7 of the calendar span, before holiday adjustment.
func ExpectedTradingDays(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	totalDays := int(end.Sub(start).Hours()/24) + 1
	expected := totalDays * 5 / 7
	if expected < 1 {
		expected = 1
	}
	return expected
}
