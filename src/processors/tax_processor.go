package processors

import (
	"sort"
	"time"

	"github.com/username/akciefolio/src/models"
	"github.com/username/akciefolio/src/utils"
)

// ProceedsPolicy selects how sale proceeds are measured for the annual
// exemption threshold. The legal test is proceeds-based, not gain-based, and
// is kept separate from the fee-adjusted profit/loss figures.
type ProceedsPolicy int

const (
	// ProceedsGross counts price times quantity.
	ProceedsGross ProceedsPolicy = iota
	// ProceedsNetOfFees subtracts the allocated sale fees.
	ProceedsNetOfFees
)

type taxProcessorImpl struct {
	taxFreeLimit   float64
	exemptionYears int
	policy         ProceedsPolicy
}

func NewTaxProcessor(taxFreeLimit float64, exemptionYears int, policy ProceedsPolicy) TaxProcessor {
	return &taxProcessorImpl{
		taxFreeLimit:   taxFreeLimit,
		exemptionYears: exemptionYears,
		policy:         policy,
	}
}

// heldForYears reports whether a lot acquired on buy has reached the exemption
// age at asOf. The boundary is calendar-exact: the anniversary date itself is
// exempt, one day earlier is not. AddDate handles leap-day acquisitions by
// rolling Feb 29 forward to Mar 1.
func heldForYears(buy, asOf time.Time, years int) bool {
	return !asOf.Before(buy.AddDate(years, 0, 0))
}

// Classify stamps every record with its holding period and the exemption
// verdict relative to its own sale date.
func (p *taxProcessorImpl) Classify(records []models.SaleRecord) []models.SaleRecord {
	out := make([]models.SaleRecord, len(records))
	for i, rec := range records {
		buy := utils.ParseDate(rec.BuyDate)
		sale := utils.ParseDate(rec.SaleDate)
		rec.HoldingDays = int(sale.Sub(buy).Hours() / 24)
		rec.Exempt = heldForYears(buy, sale, p.exemptionYears)
		out[i] = rec
	}
	return out
}

// YearSummary folds all records whose sale date falls in the given calendar
// year. Exempt proceeds never count against the tax-free capacity; non-exempt
// proceeds count in full once realized, with no marginal relief. The remaining
// capacity is deliberately not clamped at zero so callers can see by how much
// the limit was exceeded.
func (p *taxProcessorImpl) YearSummary(records []models.SaleRecord, year int) models.TaxYearSummary {
	s := models.TaxYearSummary{Year: year}

	for _, rec := range records {
		if utils.ParseDate(rec.SaleDate).Year() != year {
			continue
		}

		gross := float64(rec.Quantity) * rec.SalePrice
		proceeds := gross
		if p.policy == ProceedsNetOfFees {
			proceeds = gross - rec.SaleFees
		}

		if rec.Exempt {
			s.TotalSalesExempt += proceeds
		} else {
			s.TotalSales += proceeds
			s.TotalCost += float64(rec.Quantity)*rec.BuyPrice + rec.BuyFees
		}

		s.ProfitLoss += (gross - rec.SaleFees) - (float64(rec.Quantity)*rec.BuyPrice + rec.BuyFees)
	}

	s.TotalSales = utils.RoundFloat(s.TotalSales, 2)
	s.TotalSalesExempt = utils.RoundFloat(s.TotalSalesExempt, 2)
	s.TotalCost = utils.RoundFloat(s.TotalCost, 2)
	s.ProfitLoss = utils.RoundFloat(s.ProfitLoss, 2)
	s.RemainingTaxFreeCapacity = utils.RoundFloat(p.taxFreeLimit-s.TotalSales, 2)

	return s
}

// YearlyProfitLoss produces one summary per calendar year with at least one
// realized sale, sorted descending by year.
func (p *taxProcessorImpl) YearlyProfitLoss(records []models.SaleRecord) []models.TaxYearSummary {
	years := make(map[int]bool)
	for _, rec := range records {
		years[utils.ParseDate(rec.SaleDate).Year()] = true
	}

	summaries := make([]models.TaxYearSummary, 0, len(years))
	for year := range years {
		summaries = append(summaries, p.YearSummary(records, year))
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Year > summaries[j].Year
	})
	return summaries
}

// AvailableYears lists every year with at least one realized sale plus the
// as-of year, descending, for year selection.
func (p *taxProcessorImpl) AvailableYears(records []models.SaleRecord, asOf time.Time) []int {
	yearSet := map[int]bool{asOf.Year(): true}
	for _, rec := range records {
		yearSet[utils.ParseDate(rec.SaleDate).Year()] = true
	}

	years := make([]int, 0, len(yearSet))
	for year := range yearSet {
		years = append(years, year)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}
