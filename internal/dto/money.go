package dto

import "github.com/shopspring/decimal"

// MoneyScale and moneyLimit mirror the NUMERIC(14, 2) amount columns.
const MoneyScale = 2

var moneyLimit = decimal.New(1, 12)

// IsMoney reports whether d can be stored as a ledger amount without
// rounding: at most two fractional digits and a magnitude below 10^12.
func IsMoney(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale)) && d.Abs().LessThan(moneyLimit)
}
