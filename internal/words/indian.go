// Package words renders monetary amounts as Indian-English currency phrases.
package words

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	crore    = 10000000
	lakh     = 100000
	thousand = 1000
	hundred  = 100
)

var ones = []string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
	"Seventeen", "Eighteen", "Nineteen",
}

var tens = []string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
}

// ZeroPhrase is returned for an amount that rounds to zero
const ZeroPhrase = "Zero Rupees Only"

// groups in the order they are peeled off
var groups = []struct {
	size  int64
	label string
}{
	{crore, "Crore"},
	{lakh, "Lakh"},
	{thousand, "Thousand"},
	{hundred, "Hundred"},
}

// ToIndianCurrencyWords converts an amount to a phrase such as
// "One Lakh Rupees and Fifty Paise Only".
// The amount is rounded to paise before it is split, so paise are always 0-99.
func ToIndianCurrencyWords(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	if rounded.IsZero() {
		return ZeroPhrase
	}

	prefix := ""
	if rounded.IsNegative() {
		prefix = "Minus "
		rounded = rounded.Abs()
	}

	rupees := rounded.Truncate(0)
	paise := rounded.Sub(rupees).Shift(2).IntPart()

	rupeeWords := ConvertIntegerToWords(rupees.IntPart())
	if rupeeWords == "" {
		rupeeWords = "Zero"
	}

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(rupeeWords)
	b.WriteString(" Rupees")

	if paise > 0 {
		b.WriteString(" and ")
		b.WriteString(ConvertIntegerToWords(paise))
		b.WriteString(" Paise")
	}

	b.WriteString(" Only")
	return b.String()
}

// ConvertIntegerToWords spells out n using crore/lakh grouping.
// Zero yields the empty string; callers guard the whole-amount zero case.
func ConvertIntegerToWords(n int64) string {
	if n <= 0 {
		return ""
	}

	parts := make([]string, 0, 8)
	for _, g := range groups {
		if n/g.size > 0 {
			parts = append(parts, ConvertIntegerToWords(n/g.size), g.label)
			n %= g.size
		}
	}

	if n > 0 {
		if len(parts) > 0 {
			parts = append(parts, "and")
		}
		parts = append(parts, belowHundred(n))
	}

	return strings.TrimSpace(strings.Join(parts, " "))
}

func belowHundred(n int64) string {
	if n < 20 {
		return ones[n]
	}
	if n%10 == 0 {
		return tens[n/10]
	}
	return tens[n/10] + " " + ones[n%10]
}

// Parse reads a user-entered amount such as "1,23,456.50".
// Group separators and surrounding spaces are ignored.
func Parse(raw string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	return decimal.NewFromString(cleaned)
}
