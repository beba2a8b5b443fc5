package mapping

import (
	"encoding/json"

	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
	"github.com/famvest/portfolio_tracker_app/internal/models"
)

// ToModelAnalysisCacheEntry converts a domain AnalysisCacheEntry to a model row.
func ToModelAnalysisCacheEntry(d domain.AnalysisCacheEntry) (models.AnalysisCacheEntry, error) {
	idsJSON, err := json.Marshal(d.AccountIDs)
	if err != nil {
		return models.AnalysisCacheEntry{}, err
	}
	return models.AnalysisCacheEntry{
		ID:             d.ID,
		CacheType:      string(d.CacheType),
		CacheKey:       d.CacheKey,
		AccountIDsJSON: idsJSON,
		ParamsJSON:     d.Params,
		PayloadJSON:    d.Payload,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}, nil
}

// ToDomainAnalysisCacheEntry converts a model row to a domain AnalysisCacheEntry.
func ToDomainAnalysisCacheEntry(m models.AnalysisCacheEntry) (domain.AnalysisCacheEntry, error) {
	var ids []string
	if len(m.AccountIDsJSON) > 0 {
		if err := json.Unmarshal(m.AccountIDsJSON, &ids); err != nil {
			return domain.AnalysisCacheEntry{}, err
		}
	}
	return domain.AnalysisCacheEntry{
		ID:         m.ID,
		CacheType:  domain.AnalysisCacheType(m.CacheType),
		CacheKey:   m.CacheKey,
		AccountIDs: ids,
		Params:     json.RawMessage(m.ParamsJSON),
		Payload:    json.RawMessage(m.PayloadJSON),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}, nil
}
