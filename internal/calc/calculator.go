package calc

import (
	"fmt"
	"time"

	"cbrates/internal/domain"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// Result is a completed client calculation: the converted amount plus the
// commission surcharge on top.
type Result struct {
	Amount          decimal.Decimal
	Rate            decimal.Decimal
	Converted       decimal.Decimal
	CommissionPct   decimal.Decimal
	CommissionValue decimal.Decimal
	Total           decimal.Decimal
	Date            domain.BusinessDate
}

type Calculator struct{}

func New() *Calculator { return &Calculator{} }

func (c *Calculator) Convert(amount, rate, commissionPct decimal.Decimal, date domain.BusinessDate) Result {
	converted := amount.Mul(rate)
	commission := converted.Mul(commissionPct).Div(oneHundred)
	return Result{
		Amount:          amount,
		Rate:            rate,
		Converted:       converted,
		CommissionPct:   commissionPct,
		CommissionValue: commission,
		Total:           converted.Add(commission),
		Date:            date,
	}
}

// Format renders the delivery text for a drained pending calculation.
func (c *Calculator) Format(calc domain.PendingCalculation, rate decimal.Decimal, at time.Time) string {
	res := c.Convert(calc.Amount, rate, calc.CommissionPct, calc.TargetDate)
	return fmt.Sprintf(
		"Rate for %s on %s is published: %s.\n"+
			"Amount: %s %s\nConverted: %s\nCommission (%s%%): %s\nTotal due: %s\nCalculated at %s",
		calc.Currency, calc.TargetDate, rate.StringFixed(4),
		calc.Amount.StringFixed(2), calc.Currency,
		res.Converted.StringFixed(2),
		calc.CommissionPct.String(), res.CommissionValue.StringFixed(2),
		res.Total.StringFixed(2),
		at.Format("15:04 02.01.2006"),
	)
}
