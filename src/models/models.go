package models

// Transaction types accepted by the ledger.
const (
	TypeBuy  = "buy"
	TypeSell = "sell"
)

// Transaction is a single buy or sell as stored in the transactions table.
// Dates use the YYYY-MM-DD wire format throughout.
type Transaction struct {
	ID        int64   `json:"id"`
	Type      string  `json:"type"`
	StockName string  `json:"stock_name"`
	Date      string  `json:"date"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Fees      float64 `json:"fees"`
	CreatedAt string  `json:"created_at,omitempty"`
}

// PurchaseLot is the unsold remainder of one buy transaction. BuyPrice and
// BuyDate never change for the lifetime of the lot; only Quantity shrinks as
// sells consume it.
type PurchaseLot struct {
	StockName        string  `json:"stock_name"`
	BuyDate          string  `json:"buy_date"`
	BuyPrice         float64 `json:"buy_price"`
	OriginalQuantity int     `json:"original_quantity"`
	Quantity         int     `json:"quantity"`
	// BuyFees is the portion of the originating buy's fees not yet allocated
	// to a sale slice.
	BuyFees float64 `json:"buy_fees"`
}

// SaleRecord is the slice of a sell transaction matched against one purchase
// lot. A sell spanning several lots produces one record per consumed lot.
type SaleRecord struct {
	SaleTransactionID int64   `json:"sale_transaction_id"`
	StockName         string  `json:"stock_name"`
	BuyDate           string  `json:"buy_date"`
	SaleDate          string  `json:"sale_date"`
	Quantity          int     `json:"quantity"`
	SalePrice         float64 `json:"sale_price"`
	BuyPrice          float64 `json:"buy_price"`
	SaleFees          float64 `json:"sale_fees"`
	BuyFees           float64 `json:"buy_fees"`
	HoldingDays       int     `json:"holding_days"`
	Exempt            bool    `json:"exempt_by_holding_period"`
}

// Holding aggregates the open lots of one stock. The valuation pointers stay
// nil when no current price is known; that is a normal state, not an error.
type Holding struct {
	StockName            string   `json:"stock_name"`
	Quantity             int      `json:"quantity"`
	ThreeYearQuantity    int      `json:"three_year_quantity"`
	AveragePurchasePrice float64  `json:"average_purchase_price"`
	TotalCost            float64  `json:"total_cost"`
	CurrentPrice         *float64 `json:"current_price"`
	TotalValue           *float64 `json:"total_value"`
	ProfitLoss           *float64 `json:"profit_loss"`
}

// TaxYearSummary reports realized sales of one calendar year. TotalSales and
// TotalCost cover non-exempt records only (they feed the annual threshold
// test); ProfitLoss is the fee-adjusted result over every record of the year.
// RemainingTaxFreeCapacity goes negative once the limit is exceeded.
type TaxYearSummary struct {
	Year                     int     `json:"year"`
	TotalSales               float64 `json:"total_sales"`
	TotalSalesExempt         float64 `json:"total_sales_three_year_exempt"`
	TotalCost                float64 `json:"total_cost"`
	ProfitLoss               float64 `json:"profit_loss"`
	RemainingTaxFreeCapacity float64 `json:"remaining_tax_free_capacity"`
}

// TaxReport is the tax-info response for one selected year.
type TaxReport struct {
	TaxYearSummary
	TaxFreeLimit   float64 `json:"tax_free_limit"`
	AvailableYears []int   `json:"available_years"`
}

// StockPrice is a cached market quote row.
type StockPrice struct {
	StockName    string   `json:"stock_name"`
	CurrentPrice *float64 `json:"current_price"`
	Status       string   `json:"status"`
	LastUpdated  string   `json:"last_updated"`
}

// Quote statuses stored in the stock_prices table.
const (
	PriceAvailable   = "available"
	PriceUnavailable = "unavailable"
	PriceError       = "error"
)
