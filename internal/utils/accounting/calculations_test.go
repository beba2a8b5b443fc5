package accounting

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRoundMoney(t *testing.T) {
	assert.Equal(t, "10.46", RoundMoney(decimal.NewFromFloat(10.455)).String())
	assert.Equal(t, "-10.46", RoundMoney(decimal.NewFromFloat(-10.455)).String())
	assert.Equal(t, "0.1", RoundMoney(decimal.NewFromFloat(0.10)).String())
}

func TestPercentChange(t *testing.T) {
	assert.True(t, PercentChange(decimal.NewFromInt(100), decimal.NewFromInt(110)).Equal(decimal.NewFromInt(10)))
	assert.True(t, PercentChange(decimal.NewFromInt(100), decimal.NewFromInt(90)).Equal(decimal.NewFromInt(-10)))
	assert.True(t, PercentChange(decimal.Zero, decimal.NewFromInt(50)).IsZero(), "zero base yields zero, not a division error")
	// A negative base still reports the direction of travel.
	assert.True(t, PercentChange(decimal.NewFromInt(-100), decimal.NewFromInt(-50)).Equal(decimal.NewFromInt(50)))
}

func TestAnnualizedReturn(t *testing.T) {
	// Short periods scale linearly: 1% over ~a month is ~12% annualized.
	monthly := AnnualizedReturn(decimal.NewFromFloat(0.01), 30)
	assert.InDelta(t, 0.1218, monthly.InexactFloat64(), 0.001)

	// A full year passes through almost unchanged.
	annual := AnnualizedReturn(decimal.NewFromFloat(0.10), 365)
	assert.InDelta(t, 0.10, annual.InexactFloat64(), 0.001)

	// Multi-year periods compound down.
	twoYear := AnnualizedReturn(decimal.NewFromFloat(0.21), 730)
	assert.InDelta(t, 0.10, twoYear.InexactFloat64(), 0.005)

	assert.True(t, AnnualizedReturn(decimal.NewFromFloat(0.10), 0).IsZero())

	// Worse than total loss: compounding is meaningless, return as-is.
	wiped := AnnualizedReturn(decimal.NewFromFloat(-1.5), 400)
	assert.True(t, wiped.Equal(decimal.NewFromFloat(-1.5)))
}

func TestPreviousBusinessDay(t *testing.T) {
	monday := time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC)
	friday := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, friday, PreviousBusinessDay(monday), "Monday steps back over the weekend")

	tuesday := time.Date(2024, time.January, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, monday, PreviousBusinessDay(tuesday))

	sunday := time.Date(2024, time.January, 7, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, friday, PreviousBusinessDay(sunday))
}

func TestIsWeekend(t *testing.T) {
	assert.True(t, IsWeekend(time.Date(2024, time.January, 6, 0, 0, 0, 0, time.UTC)))  // Saturday
	assert.True(t, IsWeekend(time.Date(2024, time.January, 7, 0, 0, 0, 0, time.UTC)))  // Sunday
	assert.False(t, IsWeekend(time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC))) // Monday
}

func TestExpectedTradingDays(t *testing.T) {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 5, ExpectedTradingDays(start, start.AddDate(0, 0, 6)), "one full week")
	assert.Equal(t, 1, ExpectedTradingDays(start, start), "a single day never rounds to zero")
	assert.Equal(t, 0, ExpectedTradingDays(start, start.AddDate(0, 0, -1)), "inverted window")

	// A full year lands near the ~261 weekday count.
	year := ExpectedTradingDays(start, start.AddDate(1, 0, -1))
	assert.InDelta(t, 261, year, 2)
}
