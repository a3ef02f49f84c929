package processors

import (
	"errors"
	"fmt"
	"sort"

	"github.com/username/akciefolio/src/models"
	"github.com/username/akciefolio/src/utils"
)

// ErrInsufficientHoldings is the sentinel wrapped by every
// InsufficientHoldingsError.
var ErrInsufficientHoldings = errors.New("insufficient holdings")

// InsufficientHoldingsError reports a sell that would consume more quantity
// than is open for its stock at that point in the chronological history. The
// whole recomputation for the affected history is rejected; no partial sale
// records are returned.
type InsufficientHoldingsError struct {
	StockName     string
	TransactionID int64
	Requested     int
	Held          int
}

func (e *InsufficientHoldingsError) Error() string {
	return fmt.Sprintf("insufficient holdings for %s: transaction %d sells %d but only %d held",
		e.StockName, e.TransactionID, e.Requested, e.Held)
}

func (e *InsufficientHoldingsError) Unwrap() error { return ErrInsufficientHoldings }

type ledgerProcessorImpl struct{}

func NewLedgerProcessor() LedgerProcessor { return &ledgerProcessorImpl{} }

// openLot tracks a purchase lot while the history is replayed. totalFees is
// the originating buy's full fee; feesLeft is the portion not yet allocated to
// a sale slice, so allocations across slices always sum to totalFees exactly.
type openLot struct {
	models.PurchaseLot
	totalFees float64
	feesLeft  float64
}

func (p *ledgerProcessorImpl) Process(transactions []models.Transaction) ([]models.SaleRecord, []models.PurchaseLot, error) {
	grouped := groupTransactionsByStock(transactions)

	names := make([]string, 0, len(grouped))
	for name := range grouped {
		names = append(names, name)
	}
	sort.Strings(names)

	var saleRecords []models.SaleRecord
	var openLots []models.PurchaseLot

	for _, name := range names {
		records, lots, err := replayStock(name, grouped[name])
		if err != nil {
			return nil, nil, err
		}
		saleRecords = append(saleRecords, records...)
		openLots = append(openLots, lots...)
	}

	return saleRecords, openLots, nil
}

// replayStock runs the FIFO match over one stock's full history. Transactions
// are ordered by (date, id); the id tie-break keeps same-day buys and sells in
// insertion order rather than reordering by type.
func replayStock(stockName string, txs []models.Transaction) ([]models.SaleRecord, []models.PurchaseLot, error) {
	sort.SliceStable(txs, func(i, j int) bool {
		if txs[i].Date != txs[j].Date {
			return txs[i].Date < txs[j].Date
		}
		return txs[i].ID < txs[j].ID
	})

	var lots []*openLot
	var records []models.SaleRecord

	for _, tx := range txs {
		switch tx.Type {
		case models.TypeBuy:
			lots = append(lots, &openLot{
				PurchaseLot: models.PurchaseLot{
					StockName:        stockName,
					BuyDate:          tx.Date,
					BuyPrice:         tx.Price,
					OriginalQuantity: tx.Quantity,
					Quantity:         tx.Quantity,
				},
				totalFees: tx.Fees,
				feesLeft:  tx.Fees,
			})
		case models.TypeSell:
			held := 0
			for _, lot := range lots {
				held += lot.Quantity
			}
			if held < tx.Quantity {
				return nil, nil, &InsufficientHoldingsError{
					StockName:     stockName,
					TransactionID: tx.ID,
					Requested:     tx.Quantity,
					Held:          held,
				}
			}
			saleRecords, remaining := consumeLots(lots, tx)
			records = append(records, saleRecords...)
			lots = remaining
		}
	}

	var open []models.PurchaseLot
	for _, lot := range lots {
		if lot.Quantity > 0 {
			result := lot.PurchaseLot
			result.BuyFees = lot.feesLeft
			open = append(open, result)
		}
	}

	return records, open, nil
}

// consumeLots takes from the front of the lot queue until the sell is covered,
// emitting one sale record per consumed slice. Fees on both legs are prorated
// by quantity and rounded per slice; the final slice of each leg absorbs the
// rounding remainder so allocations reconcile exactly.
func consumeLots(lots []*openLot, sale models.Transaction) ([]models.SaleRecord, []*openLot) {
	var records []models.SaleRecord
	remaining := sale.Quantity
	allocatedSaleFees := 0.0

	for remaining > 0 {
		lot := lots[0]
		matched := utils.MinInt(remaining, lot.Quantity)

		var saleFee float64
		if matched == remaining {
			saleFee = utils.RoundFloat(sale.Fees-allocatedSaleFees, 2)
		} else {
			saleFee = utils.ProRataFee(sale.Fees, matched, sale.Quantity)
		}
		allocatedSaleFees += saleFee

		var buyFee float64
		if matched == lot.Quantity {
			buyFee = utils.RoundFloat(lot.feesLeft, 2)
		} else {
			buyFee = utils.ProRataFee(lot.totalFees, matched, lot.OriginalQuantity)
		}
		lot.feesLeft -= buyFee

		records = append(records, models.SaleRecord{
			SaleTransactionID: sale.ID,
			StockName:         sale.StockName,
			BuyDate:           lot.BuyDate,
			SaleDate:          sale.Date,
			Quantity:          matched,
			SalePrice:         sale.Price,
			BuyPrice:          lot.BuyPrice,
			SaleFees:          saleFee,
			BuyFees:           buyFee,
		})

		remaining -= matched
		lot.Quantity -= matched
		if lot.Quantity == 0 {
			lots = lots[1:]
		}
	}

	return records, lots
}

func groupTransactionsByStock(transactions []models.Transaction) map[string][]models.Transaction {
	grouped := make(map[string][]models.Transaction)
	for _, tx := range transactions {
		if tx.StockName == "" {
			continue
		}
		grouped[tx.StockName] = append(grouped[tx.StockName], tx)
	}
	return grouped
}
