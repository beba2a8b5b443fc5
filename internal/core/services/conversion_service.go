package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
	portsrepo "github.com/famvest/portfolio_tracker_app/internal/core/ports/repositories"
	portssvc "github.com/famvest/portfolio_tracker_app/internal/core/ports/services"
	"github.com/famvest/portfolio_tracker_app/internal/middleware"
	"github.com/famvest/portfolio_tracker_app/internal/utils/cache"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConversionConfig tunes the rate fallback chain.
type ConversionConfig struct {
	// MemoryTTL bounds how long a resolved rate is reused without touching
	// the database.
	MemoryTTL time.Duration
	// DefaultRates is the last-resort table, keyed "FROM/TO". Hitting it is
	// always logged as degraded output.
	DefaultRates map[string]decimal.Decimal
	// RefreshPairs are the currency pairs the daily scheduler keeps warm.
	RefreshPairs [][2]string
}

// DefaultConversionConfig covers the USD/CAD household case.
func DefaultConversionConfig() ConversionConfig {
	return ConversionConfig{
		MemoryTTL: 5 * time.Minute,
		DefaultRates: map[string]decimal.Decimal{
			"USD/CAD": decimal.NewFromFloat(1.35),
			"CAD/USD": decimal.NewFromFloat(0.74),
		},
		RefreshPairs: [][2]string{{"USD", "CAD"}, {"CAD", "USD"}},
	}
}

// conversionService resolves exchange rates through a fallback chain:
// memory cache, persisted same-day rate (direct then inverse), provider
// fetch (persisted on success), then hardcoded defaults as degraded output.
type conversionService struct {
	rateRepo   portsrepo.ExchangeRateRepositoryFacade
	fxProvider portssvc.FXProvider
	memory     *cache.TTLCache
	cfg        ConversionConfig
}

// NewConversionService creates the currency conversion service.
func NewConversionService(rateRepo portsrepo.ExchangeRateRepositoryFacade, fxProvider portssvc.FXProvider, cfg ConversionConfig) portssvc.ConversionSvc {
	if cfg.MemoryTTL <= 0 {
		cfg.MemoryTTL = 5 * time.Minute
	}
	return &conversionService{
		rateRepo:   rateRepo,
		fxProvider: fxProvider,
		memory:     cache.New(cfg.MemoryTTL),
		cfg:        cfg,
	}
}

var _ portssvc.ConversionSvc = (*conversionService)(nil)

// Rate resolves the rate for a pair on a date (today when zero).
func (s *conversionService) Rate(ctx context.Context, fromCode, toCode string, date time.Time) (decimal.Decimal, error) {
	fromCode = strings.ToUpper(fromCode)
	toCode = strings.ToUpper(toCode)
	if fromCode == toCode {
		return decimal.NewFromInt(1), nil
	}
	if date.IsZero() {
		date = domain.Today()
	}
	date = domain.NormalizeDate(date)

	key := fmt.Sprintf("rate:%s/%s@%s", fromCode, toCode, date.Format("2006-01-02"))
	if v, ok := s.memory.Get(key); ok {
		return v.(decimal.Decimal), nil
	}

	rate, err := s.resolveRate(ctx, fromCode, toCode, date)
	if err != nil {
		return decimal.Zero, err
	}

	s.memory.Set(key, rate)
	return rate, nil
}

// AnnualAverageRate resolves the average rate for a calendar year: the
// persisted official figure first, then the mean of persisted dailies, then
// a provider series.
func (s *conversionService) AnnualAverageRate(ctx context.Context, fromCode, toCode string, year int) (decimal.Decimal, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	fromCode = strings.ToUpper(fromCode)
	toCode = strings.ToUpper(toCode)
	if fromCode == toCode {
		return decimal.NewFromInt(1), nil
	}

	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)

	// An official or previously computed figure is stored against Jan 1.
	if persisted, err := s.rateRepo.FindRateForDate(ctx, fromCode, toCode, yearStart, domain.RateSourceAnnualAverage); err == nil {
		return persisted.Rate, nil
	} else if !isNotFound(err) {
		return decimal.Zero, err
	}

	dailies, err := s.rateRepo.ListRatesForYear(ctx, fromCode, toCode, year)
	if err != nil {
		return decimal.Zero, err
	}
	if len(dailies) > 0 {
		sum := decimal.Zero
		for _, r := range dailies {
			sum = sum.Add(r.Rate)
		}
		avg := sum.DivRound(decimal.NewFromInt(int64(len(dailies))), 12)
		s.persistAnnualAverage(ctx, fromCode, toCode, yearStart, avg)
		return avg, nil
	}

	series, err := s.fxProvider.DailyRates(ctx, fromCode, toCode, yearStart, yearEnd)
	if err == nil && len(series) > 0 {
		sum := decimal.Zero
		for _, r := range series {
			sum = sum.Add(r)
		}
		avg := sum.DivRound(decimal.NewFromInt(int64(len(series))), 12)
		s.persistAnnualAverage(ctx, fromCode, toCode, yearStart, avg)
		return avg, nil
	}
	if err != nil {
		logger.Warn("Provider annual rate series failed",
			slog.String("pair", fromCode+"/"+toCode),
			slog.Int("year", year),
			slog.String("error", err.Error()))
	}

	return s.defaultRate(ctx, fromCode, toCode)
}

// Convert applies Rate to an amount. Full precision; display rounding is the
// caller's concern.
func (s *conversionService) Convert(ctx context.Context, amount decimal.Decimal, fromCode, toCode string, date time.Time) (decimal.Decimal, error) {
	if strings.EqualFold(fromCode, toCode) {
		return amount, nil
	}
	rate, err := s.Rate(ctx, fromCode, toCode, date)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate), nil
}

// RefreshDailyRates fetches and persists today's rates for the configured
// pairs. Per-pair failures are logged and do not abort the sweep.
func (s *conversionService) RefreshDailyRates(ctx context.Context) error {
	logger := middleware.GetLoggerFromCtx(ctx)
	today := domain.Today()

	for _, pair := range s.cfg.RefreshPairs {
		rate, err := s.fxProvider.Rate(ctx, pair[0], pair[1])
		if err != nil {
			logger.Warn("Failed to refresh daily rate",
				slog.String("pair", pair[0]+"/"+pair[1]),
				slog.String("error", err.Error()))
			continue
		}
		if err := s.persistRate(ctx, pair[0], pair[1], today, rate, domain.RateSourceAPI); err != nil {
			logger.Warn("Failed to persist daily rate",
				slog.String("pair", pair[0]+"/"+pair[1]),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

// resolveRate walks the persistence and provider steps of the chain.
func (s *conversionService) resolveRate(ctx context.Context, fromCode, toCode string, date time.Time) (decimal.Decimal, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	// Persisted direct rate for the exact date.
	if direct, err := s.rateRepo.FindRateForDate(ctx, fromCode, toCode, date, domain.RateSourceAPI); err == nil {
		return direct.Rate, nil
	} else if !isNotFound(err) {
		return decimal.Zero, err
	}

	// Persisted inverse rate for the exact date.
	if inverse, err := s.rateRepo.FindRateForDate(ctx, toCode, fromCode, date, domain.RateSourceAPI); err == nil {
		if inverse.Rate.IsPositive() {
			return decimal.NewFromInt(1).DivRound(inverse.Rate, 12), nil
		}
	} else if !isNotFound(err) {
		return decimal.Zero, err
	}

	// Provider fetch; persisted on success so the next caller hits the DB.
	if rate, err := s.fetchFromProvider(ctx, fromCode, toCode, date); err == nil {
		if err := s.persistRate(ctx, fromCode, toCode, date, rate, domain.RateSourceAPI); err != nil {
			logger.Warn("Failed to persist fetched rate",
				slog.String("pair", fromCode+"/"+toCode),
				slog.String("error", err.Error()))
		}
		return rate, nil
	} else {
		logger.Warn("Provider rate fetch failed",
			slog.String("pair", fromCode+"/"+toCode),
			slog.String("date", date.Format("2006-01-02")),
			slog.String("error", err.Error()))
	}

	// Most recent persisted rate for the pair, regardless of date.
	if latest, err := s.rateRepo.FindLatestRate(ctx, fromCode, toCode); err == nil {
		logger.Warn("Using most recent persisted rate for older date",
			slog.String("pair", fromCode+"/"+toCode),
			slog.String("wanted", date.Format("2006-01-02")),
			slog.String("have", latest.DateEffective.Format("2006-01-02")))
		return latest.Rate, nil
	} else if !isNotFound(err) {
		return decimal.Zero, err
	}

	return s.defaultRate(ctx, fromCode, toCode)
}

// fetchFromProvider gets today's spot rate directly, or reads a short
// historical series and takes the last observation at or before date.
func (s *conversionService) fetchFromProvider(ctx context.Context, fromCode, toCode string, date time.Time) (decimal.Decimal, error) {
	if date.Equal(domain.Today()) {
		return s.fxProvider.Rate(ctx, fromCode, toCode)
	}

	series, err := s.fxProvider.DailyRates(ctx, fromCode, toCode, date.AddDate(0, 0, -7), date)
	if err != nil {
		return decimal.Zero, err
	}
	var best time.Time
	var rate decimal.Decimal
	found := false
	for d, r := range series {
		d = domain.NormalizeDate(d)
		if d.After(date) {
			continue
		}
		if !found || d.After(best) {
			best, rate, found = d, r, true
		}
	}
	if !found {
		return decimal.Zero, fmt.Errorf("provider returned no observations for %s/%s at %s", fromCode, toCode, date.Format("2006-01-02"))
	}
	return rate, nil
}

// defaultRate is the end of the chain: a hardcoded rate, always logged as
// degraded output so reconciliation can spot it.
func (s *conversionService) defaultRate(ctx context.Context, fromCode, toCode string) (decimal.Decimal, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	pair := fromCode + "/" + toCode

	if rate, ok := s.cfg.DefaultRates[pair]; ok {
		logger.Warn("Falling back to hardcoded default rate, output is degraded",
			slog.String("pair", pair), slog.String("rate", rate.String()))
		return rate, nil
	}
	if inverse, ok := s.cfg.DefaultRates[toCode+"/"+fromCode]; ok && inverse.IsPositive() {
		rate := decimal.NewFromInt(1).DivRound(inverse, 12)
		logger.Warn("Falling back to inverted default rate, output is degraded",
			slog.String("pair", pair), slog.String("rate", rate.String()))
		return rate, nil
	}

	return decimal.Zero, fmt.Errorf("no exchange rate available for %s", pair)
}

func (s *conversionService) persistRate(ctx context.Context, fromCode, toCode string, date time.Time, rate decimal.Decimal, source domain.RateSource) error {
	now := time.Now()
	return s.rateRepo.UpsertRate(ctx, domain.ExchangeRate{
		ExchangeRateID:   uuid.NewString(),
		FromCurrencyCode: fromCode,
		ToCurrencyCode:   toCode,
		Rate:             rate,
		DateEffective:    date,
		Source:           source,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     "system",
			LastUpdatedAt: now,
			LastUpdatedBy: "system",
		},
	})
}

func (s *conversionService) persistAnnualAverage(ctx context.Context, fromCode, toCode string, yearStart time.Time, avg decimal.Decimal) {
	if err := s.persistRate(ctx, fromCode, toCode, yearStart, avg, domain.RateSourceAnnualAverage); err != nil {
		logger := middleware.GetLoggerFromCtx(ctx)
		logger.Warn("Failed to persist annual average rate",
			slog.String("pair", fromCode+"/"+toCode),
			slog.String("error", err.Error()))
	}
}
