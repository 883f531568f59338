package domain

import "github.com/shopspring/decimal"

// RecurringAmount is the slice of a subscription relevant for totals aggregation.
// It is derived, never persisted.
type RecurringAmount struct {
	Amount       decimal.Decimal
	Cycle        BillingCycle
	CurrencyCode string
}

var (
	weeksPerYear  = decimal.NewFromInt(52)
	monthsPerYear = decimal.NewFromInt(12)
)

// MonthlyTotals cycle-normalizes each amount to its monthly cost and sums per currency
func MonthlyTotals(amounts []RecurringAmount) map[string]decimal.Decimal {
	return totals(amounts, monthlyAmount)
}

// YearlyTotals cycle-normalizes each amount to its yearly cost and sums per currency
func YearlyTotals(amounts []RecurringAmount) map[string]decimal.Decimal {
	return totals(amounts, yearlyAmount)
}

func totals(amounts []RecurringAmount, transform func(RecurringAmount) decimal.Decimal) map[string]decimal.Decimal {
	grouped := make(map[string]decimal.Decimal)
	for _, a := range amounts {
		grouped[a.CurrencyCode] = grouped[a.CurrencyCode].Add(transform(a))
	}
	return grouped
}

func monthlyAmount(a RecurringAmount) decimal.Decimal {
	switch a.Cycle {
	case CycleWeekly:
		return a.Amount.Mul(weeksPerYear).Div(monthsPerYear)
	case CycleYearly:
		return a.Amount.Div(monthsPerYear)
	default:
		return a.Amount
	}
}

func yearlyAmount(a RecurringAmount) decimal.Decimal {
	switch a.Cycle {
	case CycleWeekly:
		return a.Amount.Mul(weeksPerYear)
	case CycleMonthly:
		return a.Amount.Mul(monthsPerYear)
	default:
		return a.Amount
	}
}
