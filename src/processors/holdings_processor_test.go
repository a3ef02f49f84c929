package processors

import (
	"testing"
	"time"

	"github.com/username/akciefolio/src/models"
)

func lot(stock, buyDate string, price float64, qty int) models.PurchaseLot {
	return models.PurchaseLot{
		StockName:        stock,
		BuyDate:          buyDate,
		BuyPrice:         price,
		OriginalQuantity: qty,
		Quantity:         qty,
	}
}

func floatPtr(v float64) *float64 { return &v }

func TestAggregate_WeightedAverageAndCost(t *testing.T) {
	asOf := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	lots := []models.PurchaseLot{
		lot("CEZ", "2023-01-01", 100, 10),
		lot("CEZ", "2024-01-01", 150, 10),
	}

	p := NewHoldingsProcessor(3)
	holdings := p.Aggregate(lots, nil, asOf)
	if len(holdings) != 1 {
		t.Fatalf("expected 1 holding, got %d", len(holdings))
	}
	h := holdings[0]
	if h.Quantity != 20 {
		t.Errorf("expected quantity 20, got %d", h.Quantity)
	}
	if h.TotalCost != 2500 {
		t.Errorf("expected total cost 2500, got %.2f", h.TotalCost)
	}
	if h.AveragePurchasePrice != 125 {
		t.Errorf("expected average price 125, got %.2f", h.AveragePurchasePrice)
	}
}

func TestAggregate_NilPriceLeavesValuationNil(t *testing.T) {
	asOf := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	lots := []models.PurchaseLot{
		lot("CEZ", "2023-01-01", 100, 10),
		lot("KOMB", "2023-01-01", 500, 4),
	}
	prices := map[string]*float64{
		"CEZ":  floatPtr(120),
		"KOMB": nil,
	}

	holdings := NewHoldingsProcessor(3).Aggregate(lots, prices, asOf)
	if len(holdings) != 2 {
		t.Fatalf("expected 2 holdings, got %d", len(holdings))
	}

	cez := holdings[0]
	if cez.CurrentPrice == nil || *cez.CurrentPrice != 120 {
		t.Errorf("CEZ must carry its quote, got %+v", cez.CurrentPrice)
	}
	if cez.TotalValue == nil || *cez.TotalValue != 1200 {
		t.Errorf("expected CEZ total value 1200, got %+v", cez.TotalValue)
	}
	if cez.ProfitLoss == nil || *cez.ProfitLoss != 200 {
		t.Errorf("expected CEZ profit 200, got %+v", cez.ProfitLoss)
	}

	komb := holdings[1]
	if komb.CurrentPrice != nil || komb.TotalValue != nil || komb.ProfitLoss != nil {
		t.Errorf("unknown price must leave valuation nil, got %+v", komb)
	}
	if komb.Quantity != 4 || komb.TotalCost != 2000 {
		t.Errorf("non-valuation fields must still be populated, got %+v", komb)
	}
}

func TestAggregate_ThreeYearQuantity(t *testing.T) {
	asOf := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	lots := []models.PurchaseLot{
		lot("CEZ", "2021-06-01", 100, 5), // exactly 3 years old at asOf
		lot("CEZ", "2021-06-02", 100, 3), // one day short
		lot("CEZ", "2019-01-01", 100, 2), // well past
	}

	holdings := NewHoldingsProcessor(3).Aggregate(lots, nil, asOf)
	if len(holdings) != 1 {
		t.Fatalf("expected 1 holding, got %d", len(holdings))
	}
	h := holdings[0]
	if h.ThreeYearQuantity != 7 {
		t.Errorf("expected three-year quantity 7, got %d", h.ThreeYearQuantity)
	}
	if h.ThreeYearQuantity > h.Quantity {
		t.Errorf("three-year quantity cannot exceed total quantity: %d > %d", h.ThreeYearQuantity, h.Quantity)
	}
}

func TestAggregate_SkipsDrainedLotsAndSortsByName(t *testing.T) {
	asOf := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	drained := lot("ERSTE", "2023-01-01", 100, 10)
	drained.Quantity = 0
	lots := []models.PurchaseLot{
		lot("KOMB", "2023-01-01", 500, 4),
		drained,
		lot("CEZ", "2023-01-01", 100, 10),
	}

	holdings := NewHoldingsProcessor(3).Aggregate(lots, nil, asOf)
	if len(holdings) != 2 {
		t.Fatalf("drained positions must be omitted, got %d holdings", len(holdings))
	}
	if holdings[0].StockName != "CEZ" || holdings[1].StockName != "KOMB" {
		t.Errorf("expected holdings sorted by stock name, got %s, %s", holdings[0].StockName, holdings[1].StockName)
	}
}
