package domain

import (
	"encoding/csv"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CSVHeader is the fixed export header row
const CSVHeader = "name,amount,currencyCode,billingCycle,renewalDate,reminderDays,category"

// CSVRow is one exported subscription line
type CSVRow struct {
	Name         string
	Amount       decimal.Decimal
	CurrencyCode string
	BillingCycle BillingCycle
	RenewalDate  time.Time
	ReminderDays int
	Category     *string
}

// MakeCSV renders rows as comma-separated text. Fields containing a comma,
// quote or newline are quoted with inner quotes doubled; dates render as
// YYYY-MM-DD. The header row is always present.
func MakeCSV(rows []CSVRow) string {
	var b strings.Builder
	w := csv.NewWriter(&b)

	_ = w.Write(strings.Split(CSVHeader, ","))
	for _, row := range rows {
		category := ""
		if row.Category != nil {
			category = *row.Category
		}
		_ = w.Write([]string{
			row.Name,
			row.Amount.String(),
			row.CurrencyCode,
			string(row.BillingCycle),
			row.RenewalDate.Format("2006-01-02"),
			strconv.Itoa(row.ReminderDays),
			category,
		})
	}
	w.Flush()

	return strings.TrimSuffix(b.String(), "\n")
}
