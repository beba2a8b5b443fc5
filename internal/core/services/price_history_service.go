package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
	portsrepo "github.com/famvest/portfolio_tracker_app/internal/core/ports/repositories"
	portssvc "github.com/famvest/portfolio_tracker_app/internal/core/ports/services"
	"github.com/famvest/portfolio_tracker_app/internal/middleware"
	"github.com/famvest/portfolio_tracker_app/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// ErrPriceUnavailable is returned when no cached or fetchable price exists
// within the walk-back window. Callers degrade to cost-based valuation.
var ErrPriceUnavailable = errors.New("no usable price available")

// PriceHistoryConfig tunes the cache's coverage and holiday heuristics.
type PriceHistoryConfig struct {
	// CoverageThreshold is the fraction of expected trading days that must
	// be cached before a window is served without a provider refresh.
	CoverageThreshold float64
	// GapExpansionDays widens provider fetches on either side of the
	// requested window so one fetch heals adjacent small gaps.
	GapExpansionDays int
	// MaxGapDays is the largest hole the expansion heuristic tries to heal
	// in one fetch; larger holes mean the symbol simply wasn't listed.
	MaxGapDays int
	// HolidayPromotionCount is how many distinct symbols must show no data
	// for a weekday before it is promoted to a confirmed market holiday.
	HolidayPromotionCount int
	// NearestCloseWindowDays bounds the walk-back when resolving a close
	// for a specific date.
	NearestCloseWindowDays int
}

// DefaultPriceHistoryConfig mirrors the behaviour the valuation paths are
// tuned for.
func DefaultPriceHistoryConfig() PriceHistoryConfig {
	return PriceHistoryConfig{
		CoverageThreshold:      0.70,
		GapExpansionDays:       35,
		MaxGapDays:             30,
		HolidayPromotionCount:  5,
		NearestCloseWindowDays: 7,
	}
}

// priceHistoryService is the staleness-aware historical price cache. Reads
// are always answered from persisted rows; the provider only ever tops the
// cache up, so a provider outage degrades to slightly stale data instead of
// failing valuations.
type priceHistoryService struct {
	priceRepo portsrepo.PriceRepositoryFacade
	provider  portssvc.PriceProvider
	cfg       PriceHistoryConfig
}

// NewPriceHistoryService creates the price cache service.
func NewPriceHistoryService(priceRepo portsrepo.PriceRepositoryFacade, provider portssvc.PriceProvider, cfg PriceHistoryConfig) portssvc.PriceHistorySvc {
	return &priceHistoryService{
		priceRepo: priceRepo,
		provider:  provider,
		cfg:       cfg,
	}
}

var _ portssvc.PriceHistorySvc = (*priceHistoryService)(nil)

// GetHistory returns the daily series for [start, end], refreshing from the
// provider first when cached coverage falls below the threshold.
func (s *priceHistoryService) GetHistory(ctx context.Context, symbol, currencyCode string, start, end time.Time) ([]domain.PricePoint, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	symbol = strings.ToUpper(symbol)
	currencyCode = strings.ToUpper(currencyCode)
	start = domain.NormalizeDate(start)
	end = domain.NormalizeDate(end)
	if end.Before(start) {
		return []domain.PricePoint{}, nil
	}

	cached, err := s.priceRepo.ListPrices(ctx, symbol, currencyCode, start, end)
	if err != nil {
		return nil, err
	}

	sufficient, err := s.hasSufficientCoverage(ctx, symbol, currencyCode, start, end, len(cached))
	if err != nil {
		return nil, err
	}
	if sufficient {
		return cached, nil
	}

	if err := s.refreshWindow(ctx, symbol, currencyCode, start, end); err != nil {
		// Serve what we have; an empty cache plus a dead provider is the
		// only unrecoverable case.
		if len(cached) == 0 {
			return nil, fmt.Errorf("price cache empty for %s and provider refresh failed: %w", symbol, err)
		}
		logger.Warn("Provider refresh failed, serving cached prices",
			slog.String("symbol", symbol), slog.String("error", err.Error()))
		return cached, nil
	}

	return s.priceRepo.ListPrices(ctx, symbol, currencyCode, start, end)
}

// NearestClose returns the close at or before date, walking back over
// weekends and holidays up to the configured window.
func (s *priceHistoryService) NearestClose(ctx context.Context, symbol, currencyCode string, date time.Time) (decimal.Decimal, error) {
	symbol = strings.ToUpper(symbol)
	currencyCode = strings.ToUpper(currencyCode)
	date = domain.NormalizeDate(date)

	if close, ok, err := s.nearestCachedClose(ctx, symbol, currencyCode, date); err != nil {
		return decimal.Zero, err
	} else if ok {
		return close, nil
	}

	// Cache miss inside the window: top up around the date and retry once.
	lookback := date.AddDate(0, 0, -s.cfg.GapExpansionDays)
	if err := s.refreshWindow(ctx, symbol, currencyCode, lookback, date); err != nil {
		logger := middleware.GetLoggerFromCtx(ctx)
		logger.Warn("Provider refresh failed during close lookup",
			slog.String("symbol", symbol), slog.String("error", err.Error()))
	}

	if close, ok, err := s.nearestCachedClose(ctx, symbol, currencyCode, date); err != nil {
		return decimal.Zero, err
	} else if ok {
		return close, nil
	}

	return decimal.Zero, fmt.Errorf("%w: %s at %s", ErrPriceUnavailable, symbol, date.Format("2006-01-02"))
}

// CacheStatistics summarises the persisted cache.
func (s *priceHistoryService) CacheStatistics(ctx context.Context) (*domain.PriceCacheStatistics, error) {
	return s.priceRepo.Statistics(ctx)
}

// RefreshSymbols tops up the recent window for each symbol. Failures are
// logged per symbol and do not abort the sweep.
func (s *priceHistoryService) RefreshSymbols(ctx context.Context, symbols map[string]string) error {
	logger := middleware.GetLoggerFromCtx(ctx)
	today := domain.Today()

	for symbol, currencyCode := range symbols {
		start := today.AddDate(0, 0, -s.cfg.GapExpansionDays)
		latest, err := s.priceRepo.LatestTradeDate(ctx, strings.ToUpper(symbol), strings.ToUpper(currencyCode))
		if err == nil && latest != nil && latest.After(start) {
			start = latest.AddDate(0, 0, 1)
		}
		if start.After(today) {
			continue
		}
		if err := s.refreshWindow(ctx, strings.ToUpper(symbol), strings.ToUpper(currencyCode), start, today); err != nil {
			logger.Warn("Failed to refresh price history",
				slog.String("symbol", symbol), slog.String("error", err.Error()))
		}
	}
	return nil
}

// hasSufficientCoverage compares cached rows against the expected trading
// days in the window, net of confirmed holidays.
func (s *priceHistoryService) hasSufficientCoverage(ctx context.Context, symbol, currencyCode string, start, end time.Time, cachedRows int) (bool, error) {
	expected := accounting.ExpectedTradingDays(start, end)

	market := domain.MarketForSymbol(symbol, currencyCode)
	holidays, err := s.priceRepo.ListHolidayDates(ctx, market, start, end)
	if err != nil {
		return false, err
	}
	expected -= len(holidays)
	if expected < 1 {
		return true, nil
	}

	coverage := float64(cachedRows) / float64(expected)
	return coverage >= s.cfg.CoverageThreshold, nil
}

// refreshWindow fetches [start, end] from the provider expanded by the gap
// margin on both sides, persists the result and records holiday evidence.
func (s *priceHistoryService) refreshWindow(ctx context.Context, symbol, currencyCode string, start, end time.Time) error {
	today := domain.Today()
	fetchStart := start.AddDate(0, 0, -s.cfg.GapExpansionDays)
	fetchEnd := end.AddDate(0, 0, s.cfg.GapExpansionDays)
	if fetchEnd.After(today) {
		fetchEnd = today
	}

	points, err := s.provider.DailyHistory(ctx, symbol, fetchStart, fetchEnd)
	if err != nil {
		return fmt.Errorf("provider fetch for %s failed: %w", symbol, err)
	}
	if len(points) == 0 {
		return nil
	}

	for i := range points {
		points[i].Symbol = symbol
		points[i].CurrencyCode = currencyCode
		points[i].TradeDate = domain.NormalizeDate(points[i].TradeDate)
	}

	if err := s.priceRepo.BulkUpsertPrices(ctx, points); err != nil {
		return err
	}

	s.recordHolidayEvidence(ctx, symbol, currencyCode, points)
	return nil
}

// recordHolidayEvidence inspects the fetched series for weekdays with no
// data between days that do have data. Each such hole is one piece of
// evidence; enough distinct symbols showing the same hole promote the date
// to a confirmed holiday. Evidence failures are logged, never fatal.
func (s *priceHistoryService) recordHolidayEvidence(ctx context.Context, symbol, currencyCode string, points []domain.PricePoint) {
	logger := middleware.GetLoggerFromCtx(ctx)
	market := domain.MarketForSymbol(symbol, currencyCode)

	have := make(map[time.Time]bool, len(points))
	first, last := points[0].TradeDate, points[0].TradeDate
	for _, p := range points {
		have[p.TradeDate] = true
		if p.TradeDate.Before(first) {
			first = p.TradeDate
		}
		if p.TradeDate.After(last) {
			last = p.TradeDate
		}
	}

	for d := first.AddDate(0, 0, 1); d.Before(last); d = d.AddDate(0, 0, 1) {
		if accounting.IsWeekend(d) || have[d] {
			continue
		}

		confirmed, err := s.priceRepo.IsHoliday(ctx, market, d)
		if err != nil || confirmed {
			continue
		}

		if err := s.priceRepo.RecordAttempt(ctx, domain.HolidayAttempt{
			Market:      market,
			HolidayDate: d,
			Symbol:      symbol,
			RecordedAt:  time.Now().UTC(),
		}); err != nil {
			logger.Warn("Failed to record holiday evidence",
				slog.String("market", string(market)),
				slog.String("date", d.Format("2006-01-02")),
				slog.String("error", err.Error()))
			continue
		}

		count, err := s.priceRepo.CountAttemptSymbols(ctx, market, d)
		if err != nil {
			continue
		}
		if count >= s.cfg.HolidayPromotionCount {
			now := time.Now().UTC()
			if err := s.priceRepo.SaveHoliday(ctx, domain.MarketHoliday{
				Market:      market,
				HolidayDate: d,
				AuditFields: domain.AuditFields{
					CreatedAt:     now,
					CreatedBy:     "system",
					LastUpdatedAt: now,
					LastUpdatedBy: "system",
				},
			}); err != nil {
				logger.Warn("Failed to promote holiday",
					slog.String("market", string(market)),
					slog.String("date", d.Format("2006-01-02")),
					slog.String("error", err.Error()))
				continue
			}
			logger.Info("Promoted market holiday",
				slog.String("market", string(market)),
				slog.String("date", d.Format("2006-01-02")),
				slog.Int("evidence_symbols", count))
		}
	}
}

// nearestCachedClose reads the most recent cached close at or before date
// and checks it falls inside the walk-back window.
func (s *priceHistoryService) nearestCachedClose(ctx context.Context, symbol, currencyCode string, date time.Time) (decimal.Decimal, bool, error) {
	pp, err := s.priceRepo.FindNearestCloseOnOrBefore(ctx, symbol, currencyCode, date)
	if err != nil {
		if isNotFound(err) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, err
	}
	ageDays := int(date.Sub(pp.TradeDate).Hours() / 24)
	if ageDays > s.cfg.NearestCloseWindowDays {
		return decimal.Zero, false, nil
	}
	return pp.Close, true, nil
}
