package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ratetap/ratetap/internal/provider"
)

func TestNormalizeRoundsSortsAndAppendsBase(t *testing.T) {
	rec, err := Normalize(provider.RawPayload{
		Base: "EUR",
		Date: "2024-01-01",
		Rates: map[string]float64{
			"USD": 1.10,
			"JPY": 160.555,
		},
	})
	require.NoError(t, err)

	require.Equal(t, "2024-01-01", rec.Day())
	require.Equal(t, []string{"USD", "JPY", "EUR"}, rec.Currencies())
	require.Equal(t, 1.1, rec.Entries[0].Rate)
	require.Equal(t, 160.56, rec.Entries[1].Rate)
	require.Equal(t, 1.0, rec.Entries[2].Rate)
}

func TestNormalizeBaseIsExactlyOneEvenWhenQuoted(t *testing.T) {
	rec, err := Normalize(provider.RawPayload{
		Base: "USD",
		Date: "2024-03-05",
		Rates: map[string]float64{
			"USD": 0.997,
			"GBP": 0.79,
		},
	})
	require.NoError(t, err)

	require.Equal(t, []string{"GBP", "USD"}, rec.Currencies())
	seen := 0
	for _, entry := range rec.Entries {
		if entry.Code == "USD" {
			seen++
		}
	}
	require.Equal(t, 1, seen)

	last := rec.Entries[len(rec.Entries)-1]
	require.Equal(t, "USD", last.Code)
	require.Equal(t, 1.0, last.Rate)
}

func TestNormalizeOrdersAscendingByValue(t *testing.T) {
	rec, err := Normalize(provider.RawPayload{
		Base: "EUR",
		Date: "2024-01-01",
		Rates: map[string]float64{
			"JPY": 160.2,
			"KRW": 1450.7,
			"GBP": 0.85,
			"USD": 1.09,
			"CHF": 0.93,
		},
	})
	require.NoError(t, err)

	// All entries except the trailing base are non-decreasing by value.
	quoted := rec.Entries[:len(rec.Entries)-1]
	for i := 1; i < len(quoted); i++ {
		require.LessOrEqual(t, quoted[i-1].Rate, quoted[i].Rate)
	}
	require.Equal(t, []string{"GBP", "CHF", "USD", "JPY", "KRW", "EUR"}, rec.Currencies())
}

func TestNormalizeTiesBreakDeterministically(t *testing.T) {
	rec, err := Normalize(provider.RawPayload{
		Base: "EUR",
		Date: "2024-01-01",
		Rates: map[string]float64{
			"BGN": 1.96,
			"XCD": 1.96,
			"AED": 1.96,
		},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"AED", "BGN", "XCD", "EUR"}, rec.Currencies())
}

func TestNormalizeRejectsMalformedInput(t *testing.T) {
	_, err := Normalize(provider.RawPayload{Base: "", Date: "2024-01-01"})
	require.Error(t, err)

	_, err = Normalize(provider.RawPayload{Base: "EUR", Date: "01/01/2024"})
	require.Error(t, err)

	_, err = Normalize(provider.RawPayload{
		Base:  "EUR",
		Date:  "2024-01-01",
		Rates: map[string]float64{"USD": -1.2},
	})
	require.Error(t, err)
}
