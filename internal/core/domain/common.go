package domain

import "time"

// AuditFields holds standard audit information for domain entities.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"` // MemberID reference
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"` // MemberID reference
}

// ReportingCurrency is the currency every household-level total is expressed in.
const ReportingCurrency = "CAD"

// NormalizeDate truncates a timestamp to its calendar date in UTC.
// Trade dates, price dates and rate dates are all stored date-only.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar date in UTC.
func Today() time.Time {
	return NormalizeDate(time.Now().UTC())
}
