package reconcile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizePercent(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"-10%", 10},
		{"10,5%", 10.5},
		{"10%", 10},
		{"22", 22},
		{" 4,00 % ", 4},
		{"", 0},
		{"n/d", 0},
	}
	for _, c := range cases {
		require.Equal(t, c.want, NormalizePercent(c.raw), "raw=%q", c.raw)
	}
}

func TestToAmountDefaultsToZero(t *testing.T) {
	require.Equal(t, 12.5, toAmount("12,5"))
	require.Equal(t, 3.0, toAmount(" 3 "))
	require.Equal(t, 0.0, toAmount("abc"))
	require.Equal(t, 0.0, toAmount(""))
}

func TestFormatAmountRoundTrips(t *testing.T) {
	require.Equal(t, "1.5", formatAmount(1.5))
	require.Equal(t, "0", formatAmount(0))
	require.Equal(t, 1.5, toAmount(formatAmount(1.5)))
}
