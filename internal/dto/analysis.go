package dto

import (
	"time"
)

// PeriodStatsParams defines query parameters for period analysis requests.
// AccountIDs is comma-separated in the query string and split by the
// handler before reaching the service.
type PeriodStatsParams struct {
	AccountIDs string `form:"accountIds" binding:"required"`
	Year       int    `form:"year"`
	Quarter    int    `form:"quarter" binding:"omitempty,min=1,max=4"`
	Month      int    `form:"month" binding:"omitempty,min=1,max=12"`
	Days       int    `form:"days" binding:"omitempty,min=1,max=3650"`
	StartDate  string `form:"startDate"` // YYYY-MM-DD, custom periods
	EndDate    string `form:"endDate"`
}

// InvalidateCacheRequest defines the body for targeted cache invalidation.
type InvalidateCacheRequest struct {
	AccountID string     `json:"accountID" binding:"required"`
	FromDate  *time.Time `json:"fromDate"`
}

// CreateAPITokenRequest defines the body for issuing a member API token.
// MemberID is only honoured on unauthenticated requests, which bootstraps
// the household's first token.
type CreateAPITokenRequest struct {
	Name      string     `json:"name" binding:"required"`
	MemberID  string     `json:"memberID"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

// APITokenResponse is returned when listing tokens; the plaintext token is
// only present in the creation response.
type APITokenResponse struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Token      string     `json:"token,omitempty"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}
