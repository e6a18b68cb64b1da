// Package gst computes GST tax amounts and formats rupee totals for display.
package gst

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/garyjia/gst-billing/internal/words"
)

var hundred = decimal.NewFromInt(100)

// Totals is the tax breakdown shown next to the bill form
type Totals struct {
	Base       decimal.Decimal `json:"base"`
	CGST       decimal.Decimal `json:"cgst"`
	SGST       decimal.Decimal `json:"sgst"`
	IGST       decimal.Decimal `json:"igst"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// Compute applies the three GST percentages to base.
// Percentages are given as whole numbers, e.g. 9 for 9%.
func Compute(base, cgstPct, sgstPct, igstPct decimal.Decimal) Totals {
	t := Totals{
		Base: base,
		CGST: base.Mul(cgstPct).Div(hundred),
		SGST: base.Mul(sgstPct).Div(hundred),
		IGST: base.Mul(igstPct).Div(hundred),
	}
	t.GrandTotal = t.Base.Add(t.CGST).Add(t.SGST).Add(t.IGST)
	return t
}

// ComputeRaw is Compute over user-entered strings; unparsable values count as zero.
func ComputeRaw(base, cgst, sgst, igst string) Totals {
	return Compute(parseOrZero(base), parseOrZero(cgst), parseOrZero(sgst), parseOrZero(igst))
}

func parseOrZero(raw string) decimal.Decimal {
	d, err := words.Parse(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatINR renders d as rupees with Indian digit grouping, e.g. ₹1,23,456.78
func FormatINR(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	fixed := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	return sign + "₹" + groupIndian(intPart) + "." + frac
}

// groupIndian puts a comma after the last three digits and then every two.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]

	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}

	return strings.Join(append(parts, tail), ",")
}
