package domain

import "fmt"

// BillingCycle represents the recurrence unit of a subscription
type BillingCycle string

const (
	CycleWeekly  BillingCycle = "weekly"
	CycleMonthly BillingCycle = "monthly"
	CycleYearly  BillingCycle = "yearly"
)

// BillingCycles lists all supported cycles in display order
var BillingCycles = []BillingCycle{CycleWeekly, CycleMonthly, CycleYearly}

// Valid returns true if the cycle is one of the supported values
func (c BillingCycle) Valid() bool {
	switch c {
	case CycleWeekly, CycleMonthly, CycleYearly:
		return true
	}
	return false
}

// ParseBillingCycle parses a stored or submitted cycle string
func ParseBillingCycle(s string) (BillingCycle, error) {
	c := BillingCycle(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown billing cycle %q", s)
	}
	return c, nil
}
