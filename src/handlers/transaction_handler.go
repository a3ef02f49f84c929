package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/username/akciefolio/src/config"
	"github.com/username/akciefolio/src/logger"
	"github.com/username/akciefolio/src/models"
	"github.com/username/akciefolio/src/services"
	"github.com/username/akciefolio/src/utils"
	"github.com/username/akciefolio/src/validation"
)

type TransactionHandler struct {
	ledgerService services.LedgerService
}

func NewTransactionHandler(ledgerService services.LedgerService) *TransactionHandler {
	return &TransactionHandler{ledgerService: ledgerService}
}

func validationLimits() validation.Limits {
	return validation.Limits{
		MaxStockNameLength: config.Cfg.MaxStockNameLength,
		MaxPrice:           config.Cfg.MaxPrice,
		MaxQuantity:        config.Cfg.MaxQuantity,
		MaxFees:            config.Cfg.MaxFees,
	}
}

// sendValidationError reports a rejected field as a 400 with field-level
// context for the client form.
func sendValidationError(w http.ResponseWriter, vErr *validation.ValidationError) {
	logger.L.Warn("Transaction rejected by validation", "field", vErr.Field, "reason", vErr.Reason)
	utils.SendJSON(w, map[string]interface{}{
		"error": map[string]string{
			"field":  vErr.Field,
			"reason": vErr.Reason,
		},
	}, http.StatusBadRequest)
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request) (models.Transaction, bool) {
	var tx models.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		utils.SendJSONError(w, "invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return tx, false
	}
	tx.StockName = validation.SanitizeStockName(tx.StockName)

	if err := validation.ValidateTransaction(tx, validationLimits(), time.Now()); err != nil {
		var vErr *validation.ValidationError
		if errors.As(err, &vErr) {
			sendValidationError(w, vErr)
		} else {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		}
		return tx, false
	}
	return tx, true
}

func (h *TransactionHandler) HandleAddTransaction(w http.ResponseWriter, r *http.Request) {
	tx, ok := decodeAndValidate(w, r)
	if !ok {
		return
	}

	id, err := h.ledgerService.AddTransaction(tx)
	if err != nil {
		utils.SendJSONError(w, "error adding transaction: "+err.Error(), http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, map[string]interface{}{
		"success":        true,
		"transaction_id": id,
		"message":        "Transaction added successfully",
	}, http.StatusCreated)
}

func (h *TransactionHandler) HandleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		utils.SendJSONError(w, "invalid transaction id", http.StatusBadRequest)
		return
	}

	tx, ok := decodeAndValidate(w, r)
	if !ok {
		return
	}
	tx.ID = id

	if err := h.ledgerService.UpdateTransaction(tx); err != nil {
		if errors.Is(err, services.ErrTransactionNotFound) {
			utils.SendJSONError(w, "transaction not found", http.StatusNotFound)
			return
		}
		utils.SendJSONError(w, "error updating transaction: "+err.Error(), http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, map[string]interface{}{
		"success": true,
		"message": "Transaction updated successfully",
	}, http.StatusOK)
}

func (h *TransactionHandler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		utils.SendJSONError(w, "invalid transaction id", http.StatusBadRequest)
		return
	}

	if err := h.ledgerService.DeleteTransaction(id); err != nil {
		if errors.Is(err, services.ErrTransactionNotFound) {
			utils.SendJSONError(w, "transaction not found", http.StatusNotFound)
			return
		}
		utils.SendJSONError(w, "error deleting transaction: "+err.Error(), http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, map[string]interface{}{
		"success": true,
		"message": "Transaction deleted successfully",
	}, http.StatusOK)
}

func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.ledgerService.ListTransactions()
	if err != nil {
		utils.SendJSONError(w, "error retrieving transactions: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}
	utils.SendJSON(w, map[string]interface{}{"transactions": transactions}, http.StatusOK)
}
