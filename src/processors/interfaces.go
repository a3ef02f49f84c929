package processors

import (
	"time"

	"github.com/username/akciefolio/src/models"
)

// LedgerProcessor replays the full ordered transaction history and produces
// the realized sale records plus the remaining open purchase lots. It holds no
// state between calls; every invocation recomputes from scratch.
type LedgerProcessor interface {
	Process(transactions []models.Transaction) ([]models.SaleRecord, []models.PurchaseLot, error)
}

// TaxProcessor classifies realized sales under the holding-period exemption
// and aggregates them per tax year.
type TaxProcessor interface {
	Classify(records []models.SaleRecord) []models.SaleRecord
	YearSummary(records []models.SaleRecord, year int) models.TaxYearSummary
	YearlyProfitLoss(records []models.SaleRecord) []models.TaxYearSummary
	AvailableYears(records []models.SaleRecord, asOf time.Time) []int
}

// HoldingsProcessor folds open purchase lots into per-stock holdings.
type HoldingsProcessor interface {
	Aggregate(lots []models.PurchaseLot, prices map[string]*float64, asOf time.Time) []models.Holding
}
