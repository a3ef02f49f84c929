package services

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/akciefolio/src/database"
	"github.com/username/akciefolio/src/logger"
	"github.com/username/akciefolio/src/models"
	"github.com/username/akciefolio/src/processors"
)

type stubPriceService struct {
	prices map[string]*float64
}

func (s *stubPriceService) RefreshPrices(stockNames []string) (map[string]*float64, error) {
	return s.prices, nil
}

func (s *stubPriceService) GetCachedPrices() (map[string]*float64, error) {
	if s.prices == nil {
		return map[string]*float64{}, nil
	}
	return s.prices, nil
}

func newTestService(t *testing.T, prices map[string]*float64) LedgerService {
	t.Helper()
	logger.InitLogger("error")
	database.InitDB(filepath.Join(t.TempDir(), "ledger_test.db"))
	t.Cleanup(func() { database.DB.Close() })

	reportCache := cache.New(DefaultCacheExpiration, CacheCleanupInterval)
	return NewLedgerService(
		processors.NewLedgerProcessor(),
		processors.NewTaxProcessor(100000, 3, processors.ProceedsGross),
		processors.NewHoldingsProcessor(3),
		&stubPriceService{prices: prices},
		100000,
		reportCache,
	)
}

func mustAdd(t *testing.T, svc LedgerService, tx models.Transaction) int64 {
	t.Helper()
	id, err := svc.AddTransaction(tx)
	if err != nil {
		t.Fatalf("AddTransaction failed: %v", err)
	}
	return id
}

func TestListTransactions_OrderedByDateThenID(t *testing.T) {
	svc := newTestService(t, nil)

	// Inserted out of chronological order.
	mustAdd(t, svc, models.Transaction{Type: models.TypeBuy, StockName: "CEZ", Date: "2024-03-01", Price: 100, Quantity: 5})
	mustAdd(t, svc, models.Transaction{Type: models.TypeBuy, StockName: "CEZ", Date: "2024-01-01", Price: 90, Quantity: 10})
	mustAdd(t, svc, models.Transaction{Type: models.TypeSell, StockName: "CEZ", Date: "2024-03-01", Price: 110, Quantity: 3})

	transactions, err := svc.ListTransactions()
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(transactions) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(transactions))
	}
	if transactions[0].Date != "2024-01-01" {
		t.Errorf("expected the earliest date first, got %s", transactions[0].Date)
	}
	if transactions[1].ID >= transactions[2].ID {
		t.Errorf("same-day rows must be ordered by id: %d then %d", transactions[1].ID, transactions[2].ID)
	}
}

func TestUpdateAndDeleteTransaction_NotFound(t *testing.T) {
	svc := newTestService(t, nil)

	err := svc.UpdateTransaction(models.Transaction{
		ID: 9999, Type: models.TypeBuy, StockName: "CEZ", Date: "2024-01-01", Price: 100, Quantity: 1,
	})
	if !errors.Is(err, ErrTransactionNotFound) {
		t.Errorf("expected ErrTransactionNotFound on update, got %v", err)
	}

	if err := svc.DeleteTransaction(9999); !errors.Is(err, ErrTransactionNotFound) {
		t.Errorf("expected ErrTransactionNotFound on delete, got %v", err)
	}
}

func TestComputeHoldings_MergesCachedPrices(t *testing.T) {
	price := 120.0
	svc := newTestService(t, map[string]*float64{"CEZ": &price, "KOMB": nil})

	mustAdd(t, svc, models.Transaction{Type: models.TypeBuy, StockName: "CEZ", Date: "2024-01-01", Price: 100, Quantity: 10})
	mustAdd(t, svc, models.Transaction{Type: models.TypeBuy, StockName: "KOMB", Date: "2024-01-01", Price: 500, Quantity: 4})

	holdings, err := svc.ComputeHoldings(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ComputeHoldings failed: %v", err)
	}
	if len(holdings) != 2 {
		t.Fatalf("expected 2 holdings, got %d", len(holdings))
	}
	if holdings[0].TotalValue == nil || *holdings[0].TotalValue != 1200 {
		t.Errorf("CEZ must be valued at 1200, got %+v", holdings[0].TotalValue)
	}
	if holdings[1].TotalValue != nil {
		t.Errorf("KOMB has no quote and must carry nil valuation, got %+v", holdings[1].TotalValue)
	}
}

func TestComputeTaxInfo_MixedExemption(t *testing.T) {
	svc := newTestService(t, nil)

	mustAdd(t, svc, models.Transaction{Type: models.TypeBuy, StockName: "CEZ", Date: "2020-01-01", Price: 100, Quantity: 10})
	mustAdd(t, svc, models.Transaction{Type: models.TypeBuy, StockName: "CEZ", Date: "2021-01-01", Price: 120, Quantity: 5})
	mustAdd(t, svc, models.Transaction{Type: models.TypeSell, StockName: "CEZ", Date: "2024-06-01", Price: 150, Quantity: 12})

	asOf := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	report, err := svc.ComputeTaxInfo(2024, asOf)
	if err != nil {
		t.Fatalf("ComputeTaxInfo failed: %v", err)
	}

	// The 10-unit slice from the 2020 lot is past three years; the 2-unit slice
	// from the 2021 lot is not.
	if report.TotalSalesExempt != 1500 {
		t.Errorf("expected exempt proceeds 1500, got %.2f", report.TotalSalesExempt)
	}
	if report.TotalSales != 300 {
		t.Errorf("expected non-exempt proceeds 300, got %.2f", report.TotalSales)
	}
	if report.RemainingTaxFreeCapacity != 99700 {
		t.Errorf("expected remaining capacity 99700, got %.2f", report.RemainingTaxFreeCapacity)
	}
	if report.TaxFreeLimit != 100000 {
		t.Errorf("expected tax free limit 100000, got %.2f", report.TaxFreeLimit)
	}
	if len(report.AvailableYears) != 1 || report.AvailableYears[0] != 2024 {
		t.Errorf("expected available years [2024], got %v", report.AvailableYears)
	}
}

func TestHistoricalEditInvalidatesDerivedResults(t *testing.T) {
	svc := newTestService(t, nil)

	buyID := mustAdd(t, svc, models.Transaction{Type: models.TypeBuy, StockName: "CEZ", Date: "2024-01-01", Price: 100, Quantity: 10})
	mustAdd(t, svc, models.Transaction{Type: models.TypeSell, StockName: "CEZ", Date: "2024-06-01", Price: 150, Quantity: 5})

	if _, err := svc.ComputeYearlyProfitLoss(); err != nil {
		t.Fatalf("initial computation must succeed: %v", err)
	}

	// Shrink the buy below what the sell consumed; the memoized result must be
	// discarded and the recomputation must fail as a whole.
	err := svc.UpdateTransaction(models.Transaction{
		ID: buyID, Type: models.TypeBuy, StockName: "CEZ", Date: "2024-01-01", Price: 100, Quantity: 3,
	})
	if err != nil {
		t.Fatalf("UpdateTransaction failed: %v", err)
	}

	_, err = svc.ComputeYearlyProfitLoss()
	var insufficientErr *processors.InsufficientHoldingsError
	if !errors.As(err, &insufficientErr) {
		t.Fatalf("expected InsufficientHoldingsError after the edit, got %v", err)
	}
	if insufficientErr.Requested != 5 || insufficientErr.Held != 3 {
		t.Errorf("error detail mismatch: %+v", insufficientErr)
	}

	// Restoring the buy heals the history.
	err = svc.UpdateTransaction(models.Transaction{
		ID: buyID, Type: models.TypeBuy, StockName: "CEZ", Date: "2024-01-01", Price: 100, Quantity: 10,
	})
	if err != nil {
		t.Fatalf("UpdateTransaction failed: %v", err)
	}
	if _, err := svc.ComputeYearlyProfitLoss(); err != nil {
		t.Fatalf("computation must succeed again after the fix: %v", err)
	}
}
