package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/username/akciefolio/src/models"
	"github.com/username/akciefolio/src/processors"
	"github.com/username/akciefolio/src/services"
	"github.com/username/akciefolio/src/utils"
)

type PortfolioHandler struct {
	ledgerService services.LedgerService
	priceService  services.PriceService
}

func NewPortfolioHandler(ledgerService services.LedgerService, priceService services.PriceService) *PortfolioHandler {
	return &PortfolioHandler{
		ledgerService: ledgerService,
		priceService:  priceService,
	}
}

// sendComputeError maps an insufficient-holdings failure to 422 so the client
// can point at the offending transaction; anything else is a 500.
func sendComputeError(w http.ResponseWriter, err error) {
	var insufficientErr *processors.InsufficientHoldingsError
	if errors.As(err, &insufficientErr) {
		utils.SendJSONError(w, insufficientErr.Error(), http.StatusUnprocessableEntity)
		return
	}
	utils.SendJSONError(w, err.Error(), http.StatusInternalServerError)
}

func (h *PortfolioHandler) HandleGetHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.ledgerService.ComputeHoldings(time.Now())
	if err != nil {
		sendComputeError(w, err)
		return
	}
	if holdings == nil {
		holdings = []models.Holding{}
	}
	utils.SendJSON(w, map[string]interface{}{"holdings": holdings}, http.StatusOK)
}

// HandleUpdatePrices refreshes quotes for every stock with an open position.
// Stocks whose quote cannot be fetched stay unavailable; the holdings pipeline
// keeps working without them.
func (h *PortfolioHandler) HandleUpdatePrices(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.ledgerService.ComputeHoldings(time.Now())
	if err != nil {
		sendComputeError(w, err)
		return
	}

	if len(holdings) == 0 {
		utils.SendJSON(w, map[string]interface{}{"message": "No stocks to update"}, http.StatusOK)
		return
	}

	stockNames := make([]string, 0, len(holdings))
	for _, holding := range holdings {
		stockNames = append(stockNames, holding.StockName)
	}

	results, err := h.priceService.RefreshPrices(stockNames)
	if err != nil {
		utils.SendJSONError(w, "error refreshing prices: "+err.Error(), http.StatusInternalServerError)
		return
	}

	updated := 0
	for _, price := range results {
		if price != nil {
			updated++
		}
	}

	utils.SendJSON(w, map[string]interface{}{
		"success": true,
		"updated": updated,
		"failed":  len(stockNames) - updated,
		"results": results,
	}, http.StatusOK)
}
