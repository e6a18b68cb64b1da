package words

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToIndianCurrencyWords(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		want   string
	}{
		{name: "zero amount", amount: "0", want: "Zero Rupees Only"},
		{name: "zero with decimals", amount: "0.00", want: "Zero Rupees Only"},
		{name: "rounds down to zero", amount: "0.004", want: "Zero Rupees Only"},
		{name: "one rupee", amount: "1", want: "One Rupees Only"},
		{name: "one rupee fifty paise", amount: "1.50", want: "One Rupees and Fifty Paise Only"},
		{name: "paise only", amount: "0.75", want: "Zero Rupees and Seventy Five Paise Only"},
		{name: "zero paise has no clause", amount: "250.00", want: "Two Hundred and Fifty Rupees Only"},
		{name: "lakh boundary", amount: "100000", want: "One Lakh Rupees Only"},
		{name: "crore boundary", amount: "10000000", want: "One Crore Rupees Only"},
		{
			name:   "indian grouping",
			amount: "1234567.89",
			want:   "Twelve Lakh Thirty Four Thousand Five Hundred and Sixty Seven Rupees and Eighty Nine Paise Only",
		},
		{
			name:   "crore with every group",
			amount: "123456789",
			want:   "Twelve Crore Thirty Four Lakh Fifty Six Thousand Seven Hundred and Eighty Nine Rupees Only",
		},
		{name: "hundred crore stays singular", amount: "1000000000", want: "One Hundred Crore Rupees Only"},
		{name: "paise rounding carries", amount: "1.999", want: "Two Rupees Only"},
		{name: "paise rounding half up", amount: "10.005", want: "Ten Rupees and One Paise Only"},
		{name: "negative round off", amount: "-0.40", want: "Minus Zero Rupees and Forty Paise Only"},
		{name: "negative amount", amount: "-12", want: "Minus Twelve Rupees Only"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToIndianCurrencyWords(decimal.RequireFromString(tt.amount))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvertIntegerToWords(t *testing.T) {
	t.Run("zero is empty", func(t *testing.T) {
		assert.Equal(t, "", ConvertIntegerToWords(0))
	})

	t.Run("below twenty uses the irregular table", func(t *testing.T) {
		for n := int64(1); n <= 19; n++ {
			got := ConvertIntegerToWords(n)
			assert.Equal(t, ones[n], got)
			assert.NotContains(t, got, " ", "n=%d should be a single word", n)
		}
	})

	t.Run("round tens have no ones suffix", func(t *testing.T) {
		for n := int64(20); n <= 90; n += 10 {
			assert.Equal(t, tens[n/10], ConvertIntegerToWords(n))
		}
	})

	cases := map[int64]string{
		21:       "Twenty One",
		99:       "Ninety Nine",
		100:      "One Hundred",
		101:      "One Hundred and One",
		115:      "One Hundred and Fifteen",
		1000:     "One Thousand",
		1001:     "One Thousand and One",
		99999:    "Ninety Nine Thousand Nine Hundred and Ninety Nine",
		200000:   "Two Lakh",
		2500000:  "Twenty Five Lakh",
		10000001: "One Crore and One",
		30050000: "Three Crore Fifty Thousand",
	}
	for n, want := range cases {
		assert.Equal(t, want, ConvertIntegerToWords(n), "n=%d", n)
	}
}

func TestParse(t *testing.T) {
	d, err := Parse(" 1,23,456.50 ")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("123456.5")))

	_, err = Parse("12abc")
	assert.Error(t, err)

	_, err = Parse("")
	assert.Error(t, err)
}
