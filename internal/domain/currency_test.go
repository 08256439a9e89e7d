package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCurrency_NormalizesCase(t *testing.T) {
	c, err := ParseCurrency(" usd ")
	require.NoError(t, err)
	require.Equal(t, USD, c)
}

func TestParseCurrency_RejectsUnknown(t *testing.T) {
	_, err := ParseCurrency("BTC")
	require.ErrorIs(t, err, ErrCurrencyUnsupported)

	_, err = ParseCurrency("")
	require.ErrorIs(t, err, ErrCurrencyUnsupported)
}

func TestIsSupported_CoversWholeEnum(t *testing.T) {
	for _, c := range SupportedCurrencies {
		require.True(t, c.IsSupported())
	}
	require.False(t, Currency("RUB").IsSupported())
}
