package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/username/akciefolio/src/models"
	"github.com/username/akciefolio/src/services"
	"github.com/username/akciefolio/src/utils"
)

type TaxHandler struct {
	ledgerService services.LedgerService
}

func NewTaxHandler(ledgerService services.LedgerService) *TaxHandler {
	return &TaxHandler{ledgerService: ledgerService}
}

// HandleGetTaxInfo reports the tax-year summary for the requested year
// (default: the current one) plus the selectable years.
func (h *TaxHandler) HandleGetTaxInfo(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	year := now.Year()
	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		parsed, err := strconv.Atoi(yearStr)
		if err != nil || parsed < 1900 {
			utils.SendJSONError(w, "invalid year parameter", http.StatusBadRequest)
			return
		}
		year = parsed
	}

	report, err := h.ledgerService.ComputeTaxInfo(year, now)
	if err != nil {
		sendComputeError(w, err)
		return
	}
	utils.SendJSON(w, report, http.StatusOK)
}

// HandleGetYearlyProfitLoss reports one realized profit/loss row per year with
// sales, newest year first.
func (h *TaxHandler) HandleGetYearlyProfitLoss(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.ledgerService.ComputeYearlyProfitLoss()
	if err != nil {
		sendComputeError(w, err)
		return
	}
	if summaries == nil {
		summaries = []models.TaxYearSummary{}
	}
	utils.SendJSON(w, map[string]interface{}{"years": summaries}, http.StatusOK)
}
