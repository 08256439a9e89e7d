package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateEntry is one cached official rate. The (Currency, Date) key is unique
// and the value is immutable once written: a published rate never changes.
type RateEntry struct {
	Currency  Currency
	Date      BusinessDate
	Value     decimal.Decimal
	CreatedAt time.Time
}

// RateKey addresses a rate entry in the cache and the store.
type RateKey struct {
	Currency Currency
	Date     BusinessDate
}

func (k RateKey) String() string {
	return k.Currency.String() + ":" + k.Date.String()
}
