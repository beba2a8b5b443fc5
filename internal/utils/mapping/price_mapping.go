package mapping

import (
	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
	"github.com/famvest/portfolio_tracker_app/internal/models"
)

// ToModelPricePoint converts a domain PricePoint to a model PricePoint
func ToModelPricePoint(d domain.PricePoint) models.PricePoint {
	return models.PricePoint{
		Symbol:       d.Symbol,
		CurrencyCode: d.CurrencyCode,
		TradeDate:    d.TradeDate,
		Open:         d.Open,
		High:         d.High,
		Low:          d.Low,
		Close:        d.Close,
		Volume:       d.Volume,
		AuditFields:  ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainPricePoint converts a model PricePoint to a domain PricePoint
func ToDomainPricePoint(m models.PricePoint) domain.PricePoint {
	return domain.PricePoint{
		Symbol:       m.Symbol,
		CurrencyCode: m.CurrencyCode,
		TradeDate:    m.TradeDate,
		Open:         m.Open,
		High:         m.High,
		Low:          m.Low,
		Close:        m.Close,
		Volume:       m.Volume,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainPricePoints converts a slice of model PricePoints
func ToDomainPricePoints(ms []models.PricePoint) []domain.PricePoint {
	out := make([]domain.PricePoint, len(ms))
	for i, m := range ms {
		out[i] = ToDomainPricePoint(m)
	}
	return out
}

// ToDomainMarketHoliday converts a model MarketHoliday to a domain MarketHoliday
func ToDomainMarketHoliday(m models.MarketHoliday) domain.MarketHoliday {
	return domain.MarketHoliday{
		Market:      domain.Market(m.Market),
		HolidayDate: m.HolidayDate,
		Name:        m.Name,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}
