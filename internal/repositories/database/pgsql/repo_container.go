package pgsql

import (
	portsrepo "github.com/famvest/portfolio_tracker_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Interface compliance checks for the pgx implementations.
var (
	_ portsrepo.AccountRepositoryFacade       = (*PgxAccountRepository)(nil)
	_ portsrepo.TransactionRepositoryFacade   = (*PgxTransactionRepository)(nil)
	_ portsrepo.ExchangeRateRepositoryFacade  = (*PgxExchangeRateRepository)(nil)
	_ portsrepo.PriceRepositoryFacade         = (*PgxPriceRepository)(nil)
	_ portsrepo.AnalysisCacheRepositoryFacade = (*PgxAnalysisCacheRepository)(nil)
	_ portsrepo.UpstreamTimestampReader       = (*PgxUpstreamTimestampRepository)(nil)
)

// NewRepositoryProvider wires every pgx-backed repository over one pool.
func NewRepositoryProvider(pool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:       newPgxAccountRepository(pool),
		CurrencyRepo:      newPgxCurrencyRepository(pool),
		ExchangeRateRepo:  newPgxExchangeRateRepository(pool),
		TransactionRepo:   newPgxTransactionRepository(pool),
		PriceRepo:         newPgxPriceRepository(pool),
		AnalysisCacheRepo: newPgxAnalysisCacheRepository(pool),
		UpstreamRepo:      newPgxUpstreamTimestampRepository(pool),
		APITokenRepo:      newPgxAPITokenRepository(pool),
	}
}
