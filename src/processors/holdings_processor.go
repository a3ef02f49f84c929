package processors

import (
	"sort"
	"time"

	"github.com/username/akciefolio/src/models"
	"github.com/username/akciefolio/src/utils"
)

type holdingsProcessorImpl struct {
	exemptionYears int
}

func NewHoldingsProcessor(exemptionYears int) HoldingsProcessor {
	return &holdingsProcessorImpl{exemptionYears: exemptionYears}
}

// Aggregate folds open lots into one holding per stock. Cost basis excludes
// fees; the three-year quantity uses the same calendar-exact age test as sale
// classification, evaluated against asOf. Stocks without a known current price
// get nil valuation fields and are otherwise fully populated.
func (p *holdingsProcessorImpl) Aggregate(lots []models.PurchaseLot, prices map[string]*float64, asOf time.Time) []models.Holding {
	byStock := make(map[string]*models.Holding)

	for _, lot := range lots {
		if lot.Quantity <= 0 {
			continue
		}
		h, ok := byStock[lot.StockName]
		if !ok {
			h = &models.Holding{StockName: lot.StockName}
			byStock[lot.StockName] = h
		}
		h.Quantity += lot.Quantity
		h.TotalCost += float64(lot.Quantity) * lot.BuyPrice
		if heldForYears(utils.ParseDate(lot.BuyDate), asOf, p.exemptionYears) {
			h.ThreeYearQuantity += lot.Quantity
		}
	}

	names := make([]string, 0, len(byStock))
	for name := range byStock {
		names = append(names, name)
	}
	sort.Strings(names)

	holdings := make([]models.Holding, 0, len(names))
	for _, name := range names {
		h := byStock[name]
		h.TotalCost = utils.RoundFloat(h.TotalCost, 2)
		h.AveragePurchasePrice = utils.RoundFloat(h.TotalCost/float64(h.Quantity), 2)

		if price, ok := prices[name]; ok && price != nil {
			value := utils.RoundFloat(*price*float64(h.Quantity), 2)
			profitLoss := utils.RoundFloat(value-h.TotalCost, 2)
			h.CurrentPrice = price
			h.TotalValue = &value
			h.ProfitLoss = &profitLoss
		}

		holdings = append(holdings, *h)
	}

	return holdings
}
