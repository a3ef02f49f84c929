package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/username/akciefolio/src/models"
	"github.com/username/akciefolio/src/utils"
)

// Limits bounds the accepted field values. Zero bounds are never valid; build
// a Limits from config at the call site.
type Limits struct {
	MaxStockNameLength int
	MaxPrice           float64
	MaxQuantity        int
	MaxFees            float64
}

// ValidationError reports a single rejected transaction field with enough
// context for a field-level client message.
type ValidationError struct {
	TransactionID int64
	Field         string
	Reason        string
}

func (e *ValidationError) Error() string {
	if e.TransactionID > 0 {
		return fmt.Sprintf("transaction %d: invalid %s: %s", e.TransactionID, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

var minDate = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// ValidateTransaction checks every field of a transaction against the limits.
// Input that fails here never reaches the ledger.
func ValidateTransaction(tx models.Transaction, limits Limits, today time.Time) error {
	if tx.Type != models.TypeBuy && tx.Type != models.TypeSell {
		return &ValidationError{tx.ID, "type", "must be 'buy' or 'sell'"}
	}

	if strings.TrimSpace(tx.StockName) == "" {
		return &ValidationError{tx.ID, "stock_name", "is required"}
	}
	if len(tx.StockName) > limits.MaxStockNameLength {
		return &ValidationError{tx.ID, "stock_name", fmt.Sprintf("cannot exceed %d characters", limits.MaxStockNameLength)}
	}

	if tx.Date == "" {
		return &ValidationError{tx.ID, "date", "is required"}
	}
	parsed, err := time.Parse(utils.DefaultDateFormat, tx.Date)
	if err != nil {
		return &ValidationError{tx.ID, "date", "invalid format, use YYYY-MM-DD"}
	}
	if parsed.Before(minDate) {
		return &ValidationError{tx.ID, "date", "cannot be before 1900"}
	}
	if parsed.After(today) {
		return &ValidationError{tx.ID, "date", "cannot be in the future"}
	}

	if tx.Price <= 0 {
		return &ValidationError{tx.ID, "price", "must be greater than 0"}
	}
	if tx.Price > limits.MaxPrice {
		return &ValidationError{tx.ID, "price", fmt.Sprintf("cannot exceed %.0f", limits.MaxPrice)}
	}

	if tx.Quantity <= 0 {
		return &ValidationError{tx.ID, "quantity", "must be greater than 0"}
	}
	if tx.Quantity > limits.MaxQuantity {
		return &ValidationError{tx.ID, "quantity", fmt.Sprintf("cannot exceed %d", limits.MaxQuantity)}
	}

	if tx.Fees < 0 {
		return &ValidationError{tx.ID, "fees", "cannot be negative"}
	}
	if tx.Fees > limits.MaxFees {
		return &ValidationError{tx.ID, "fees", fmt.Sprintf("cannot exceed %.0f", limits.MaxFees)}
	}

	return nil
}

// SanitizeStockName strips unprintable and disallowed characters from a stock
// name. Alphanumerics, spaces, dots, dashes, underscores and parentheses pass
// through.
func SanitizeStockName(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r) && r < 128, unicode.IsDigit(r):
			return r
		case r == ' ', r == '.', r == '-', r == '_', r == '(', r == ')':
			return r
		}
		return -1
	}, s)
	return strings.TrimSpace(cleaned)
}
