package dataprocessing

import (
	"github.com/shopspring/decimal"

	"salesreport/internal/errors"
	"salesreport/pkg/contracts/domain"
)

// CurrencyPlaces is the number of decimal places kept for currency values.
const CurrencyPlaces = 2

// KeyFunc extracts the grouping key of a record.
type KeyFunc func(domain.TransactionRecord) string

// BySalesperson groups records by salesperson name.
func BySalesperson(r domain.TransactionRecord) string { return r.Salesperson }

// ByRegion groups records by region name.
func ByRegion(r domain.TransactionRecord) string { return r.Region }

// AggregateByKey groups records by key and sums and counts their amounts.
// Keys are compared verbatim (no case or whitespace folding) and the result
// lists them in first-encounter order. An empty input yields an empty slice.
func AggregateByKey(records []domain.TransactionRecord, key KeyFunc) []domain.GroupAggregate {
	index := make(map[string]int)
	groups := make([]domain.GroupAggregate, 0)

	for _, r := range records {
		k := key(r)
		i, seen := index[k]
		if !seen {
			i = len(groups)
			index[k] = i
			groups = append(groups, domain.GroupAggregate{Key: k, TotalAmount: decimal.Zero})
		}
		groups[i].TotalAmount = groups[i].TotalAmount.Add(r.Amount)
		groups[i].Count++
	}

	return groups
}

// ComputeSummary computes total, mean, maximum, minimum and count of the
// record amounts. Currency values are rounded half-to-even to two places;
// the mean is derived from the unrounded total and rounded once.
//
// Mean, maximum and minimum are undefined over zero records, so an empty
// input fails with an EMPTY_DATASET error.
func ComputeSummary(records []domain.TransactionRecord) (domain.SummaryStatistics, error) {
	if len(records) == 0 {
		return domain.SummaryStatistics{}, errors.NewEmptyDatasetError("cannot compute summary statistics over zero records")
	}

	total := decimal.Zero
	maximum := records[0].Amount
	minimum := records[0].Amount
	for _, r := range records {
		total = total.Add(r.Amount)
		if r.Amount.GreaterThan(maximum) {
			maximum = r.Amount
		}
		if r.Amount.LessThan(minimum) {
			minimum = r.Amount
		}
	}

	count := decimal.NewFromInt(int64(len(records)))
	mean := total.DivRound(count, 16)

	return domain.SummaryStatistics{
		Total:   roundCurrency(total),
		Mean:    roundCurrency(mean),
		Maximum: roundCurrency(maximum),
		Minimum: roundCurrency(minimum),
		Count:   len(records),
	}, nil
}

func roundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(CurrencyPlaces)
}
