package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestYearPeriod(t *testing.T) {
	p := YearPeriod(2023)
	assert.Equal(t, time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC), p.End)
	assert.Equal(t, "2023", p.Label)

	// The current year is capped at today.
	current := YearPeriod(Today().Year())
	assert.False(t, current.End.After(Today()))
}

func TestQuarterPeriod(t *testing.T) {
	q2 := QuarterPeriod(2023, 2)
	assert.Equal(t, time.Date(2023, time.April, 1, 0, 0, 0, 0, time.UTC), q2.Start)
	assert.Equal(t, time.Date(2023, time.June, 30, 0, 0, 0, 0, time.UTC), q2.End)
	assert.Equal(t, "2023-Q2", q2.Label)

	q4 := QuarterPeriod(2023, 4)
	assert.Equal(t, time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC), q4.End)
}

func TestMonthPeriod(t *testing.T) {
	feb := MonthPeriod(2024, 2)
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), feb.End, "leap year February")
	assert.Equal(t, "2024-02", feb.Label)
}

func TestQuartersOfYearCoverTheYear(t *testing.T) {
	quarters := QuartersOfYear(2023)
	assert.Len(t, quarters, 4)

	// Consecutive quarters tile the year with no gap or overlap.
	for i := 1; i < len(quarters); i++ {
		assert.Equal(t, quarters[i-1].End.AddDate(0, 0, 1), quarters[i].Start)
	}
	assert.Equal(t, YearPeriod(2023).Start, quarters[0].Start)
	assert.Equal(t, YearPeriod(2023).End, quarters[3].End)
}

func TestMonthsOfYearSkipFutureMonths(t *testing.T) {
	months := MonthsOfYear(Today().Year())
	assert.NotEmpty(t, months)
	assert.LessOrEqual(t, len(months), 12)
	for _, m := range months {
		assert.False(t, m.Start.After(Today()))
	}
}

func TestTrailingPeriod(t *testing.T) {
	p := TrailingPeriod(30)
	assert.Equal(t, Today(), p.End)
	assert.Equal(t, Today().AddDate(0, 0, -29), p.Start)
}

func TestCustomPeriodNormalizesDates(t *testing.T) {
	start := time.Date(2023, time.March, 1, 15, 30, 0, 0, time.UTC)
	end := time.Date(2023, time.March, 31, 8, 0, 0, 0, time.UTC)
	p := CustomPeriod(start, end)
	assert.Equal(t, time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2023, time.March, 31, 0, 0, 0, 0, time.UTC), p.End)
}
