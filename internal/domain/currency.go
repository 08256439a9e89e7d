package domain

import (
	"fmt"
	"strings"
)

type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	CNY Currency = "CNY"
	AED Currency = "AED"
	TRY Currency = "TRY"
)

// SupportedCurrencies lists every currency the CBR feed is queried for.
var SupportedCurrencies = []Currency{USD, EUR, CNY, AED, TRY}

func (c Currency) IsSupported() bool {
	for _, supported := range SupportedCurrencies {
		if c == supported {
			return true
		}
	}
	return false
}

func (c Currency) String() string {
	return string(c)
}

// ParseCurrency normalizes raw input into a supported Currency.
// Unknown codes are rejected at the boundary and never reach storage.
func ParseCurrency(raw string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(raw)))
	if !c.IsSupported() {
		return "", fmt.Errorf("%w: %q", ErrCurrencyUnsupported, raw)
	}
	return c, nil
}
