package services

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/akciefolio/src/database"
	"github.com/username/akciefolio/src/logger"
	"github.com/username/akciefolio/src/models"
	"github.com/username/akciefolio/src/processors"
)

const (
	// Long-lived caches for full recomputation results. Invalidated on every
	// write, so NoExpiration keeps them until the history changes.
	ckSaleRecords = "res_sale_records"
	ckOpenLots    = "res_open_lots"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type ledgerServiceImpl struct {
	ledgerProcessor   processors.LedgerProcessor
	taxProcessor      processors.TaxProcessor
	holdingsProcessor processors.HoldingsProcessor
	priceService      PriceService
	taxFreeLimit      float64
	reportCache       *cache.Cache
}

func NewLedgerService(
	ledgerProcessor processors.LedgerProcessor,
	taxProcessor processors.TaxProcessor,
	holdingsProcessor processors.HoldingsProcessor,
	priceService PriceService,
	taxFreeLimit float64,
	reportCache *cache.Cache,
) LedgerService {
	return &ledgerServiceImpl{
		ledgerProcessor:   ledgerProcessor,
		taxProcessor:      taxProcessor,
		holdingsProcessor: holdingsProcessor,
		priceService:      priceService,
		taxFreeLimit:      taxFreeLimit,
		reportCache:       reportCache,
	}
}

func (s *ledgerServiceImpl) AddTransaction(tx models.Transaction) (int64, error) {
	result, err := database.DB.Exec(
		`INSERT INTO transactions (type, stock_name, date, price, quantity, fees) VALUES (?, ?, ?, ?, ?, ?)`,
		tx.Type, tx.StockName, tx.Date, tx.Price, tx.Quantity, tx.Fees)
	if err != nil {
		return 0, fmt.Errorf("error inserting transaction: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("error reading inserted transaction id: %w", err)
	}

	s.InvalidateCache()
	logger.L.Info("Transaction added", "id", id, "type", tx.Type, "stock", tx.StockName)
	return id, nil
}

func (s *ledgerServiceImpl) UpdateTransaction(tx models.Transaction) error {
	result, err := database.DB.Exec(
		`UPDATE transactions SET type = ?, stock_name = ?, date = ?, price = ?, quantity = ?, fees = ? WHERE id = ?`,
		tx.Type, tx.StockName, tx.Date, tx.Price, tx.Quantity, tx.Fees, tx.ID)
	if err != nil {
		return fmt.Errorf("error updating transaction %d: %w", tx.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking update of transaction %d: %w", tx.ID, err)
	}
	if affected == 0 {
		return ErrTransactionNotFound
	}

	s.InvalidateCache()
	logger.L.Info("Transaction updated", "id", tx.ID, "type", tx.Type, "stock", tx.StockName)
	return nil
}

func (s *ledgerServiceImpl) DeleteTransaction(id int64) error {
	result, err := database.DB.Exec(`DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("error deleting transaction %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking delete of transaction %d: %w", id, err)
	}
	if affected == 0 {
		return ErrTransactionNotFound
	}

	s.InvalidateCache()
	logger.L.Info("Transaction deleted", "id", id)
	return nil
}

// ListTransactions returns the full history ordered by (date, id) — the same
// ordering the FIFO replay depends on.
func (s *ledgerServiceImpl) ListTransactions() ([]models.Transaction, error) {
	rows, err := database.DB.Query(
		`SELECT id, type, stock_name, date, price, quantity, fees, created_at FROM transactions ORDER BY date ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(&tx.ID, &tx.Type, &tx.StockName, &tx.Date, &tx.Price, &tx.Quantity, &tx.Fees, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning transaction row: %w", err)
		}
		transactions = append(transactions, tx)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over transaction rows: %w", err)
	}
	return transactions, nil
}

// InvalidateCache clears all memoized computation results, forcing a complete
// recomputation from the transaction history on the next read.
func (s *ledgerServiceImpl) InvalidateCache() {
	s.reportCache.Delete(ckSaleRecords)
	s.reportCache.Delete(ckOpenLots)
	logger.L.Debug("Invalidated ledger result caches")
}

// getLedgerData returns the classified sale records and open lots, replaying
// the full history on a cache miss.
func (s *ledgerServiceImpl) getLedgerData() ([]models.SaleRecord, []models.PurchaseLot, error) {
	if cachedRecords, recordsFound := s.reportCache.Get(ckSaleRecords); recordsFound {
		if cachedLots, lotsFound := s.reportCache.Get(ckOpenLots); lotsFound {
			logger.L.Debug("Cache hit for ledger data")
			return cachedRecords.([]models.SaleRecord), cachedLots.([]models.PurchaseLot), nil
		}
	}

	logger.L.Info("Cache miss for ledger data, recomputing from transaction history")
	transactions, err := s.ListTransactions()
	if err != nil {
		return nil, nil, err
	}

	records, lots, err := s.ledgerProcessor.Process(transactions)
	if err != nil {
		return nil, nil, err
	}
	records = s.taxProcessor.Classify(records)

	s.reportCache.Set(ckSaleRecords, records, cache.NoExpiration)
	s.reportCache.Set(ckOpenLots, lots, cache.NoExpiration)
	logger.L.Info("Populated ledger result caches", "saleRecords", len(records), "openLots", len(lots))

	return records, lots, nil
}

func (s *ledgerServiceImpl) ComputeHoldings(asOf time.Time) ([]models.Holding, error) {
	_, lots, err := s.getLedgerData()
	if err != nil {
		return nil, err
	}

	prices, err := s.priceService.GetCachedPrices()
	if err != nil {
		// Holdings remain useful without valuation; log and continue.
		logger.L.Warn("Could not load cached prices, holdings will carry no valuation", "error", err)
		prices = map[string]*float64{}
	}

	return s.holdingsProcessor.Aggregate(lots, prices, asOf), nil
}

func (s *ledgerServiceImpl) ComputeTaxInfo(year int, asOf time.Time) (*models.TaxReport, error) {
	records, _, err := s.getLedgerData()
	if err != nil {
		return nil, err
	}

	return &models.TaxReport{
		TaxYearSummary: s.taxProcessor.YearSummary(records, year),
		TaxFreeLimit:   s.taxFreeLimit,
		AvailableYears: s.taxProcessor.AvailableYears(records, asOf),
	}, nil
}

func (s *ledgerServiceImpl) ComputeYearlyProfitLoss() ([]models.TaxYearSummary, error) {
	records, _, err := s.getLedgerData()
	if err != nil {
		return nil, err
	}
	return s.taxProcessor.YearlyProfitLoss(records), nil
}
