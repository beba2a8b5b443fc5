package models

import "time"

// AnalysisCacheEntry is the DB row memoizing one analysis computation.
// AccountIDsJSON and ParamsJSON hold canonical JSON; PayloadJSON holds the
// computed result verbatim.
type AnalysisCacheEntry struct {
	ID             string    `db:"id"`
	CacheType      string    `db:"cache_type"`
	CacheKey       string    `db:"cache_key"`
	AccountIDsJSON []byte    `db:"account_ids_json"`
	ParamsJSON     []byte    `db:"params_json"`
	PayloadJSON    []byte    `db:"payload_json"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}
