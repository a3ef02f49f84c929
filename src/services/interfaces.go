package services

import (
	"errors"
	"time"

	"github.com/username/akciefolio/src/models"
)

// ErrTransactionNotFound is returned by updates and deletes that match no row.
var ErrTransactionNotFound = errors.New("transaction not found")

// LedgerService is the read/write surface over the transaction store plus the
// derived computations. All derived views are recomputed from the full ordered
// history; any write invalidates the memoized results.
type LedgerService interface {
	AddTransaction(tx models.Transaction) (int64, error)
	UpdateTransaction(tx models.Transaction) error
	DeleteTransaction(id int64) error
	ListTransactions() ([]models.Transaction, error)

	ComputeHoldings(asOf time.Time) ([]models.Holding, error)
	ComputeTaxInfo(year int, asOf time.Time) (*models.TaxReport, error)
	ComputeYearlyProfitLoss() ([]models.TaxYearSummary, error)

	InvalidateCache()
}

// PriceService resolves current market prices. A missing or failed quote is a
// normal degraded state surfaced as a nil price, never a pipeline error.
type PriceService interface {
	RefreshPrices(stockNames []string) (map[string]*float64, error)
	GetCachedPrices() (map[string]*float64, error)
}
