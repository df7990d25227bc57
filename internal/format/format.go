// Package format: Korean-locale number labels shared by the dashboard, CLI and reports.
package format

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.Korean)

var half = decimal.NewFromFloat(0.5)

// Int: thousands grouping, e.g. 1234567 -> "1,234,567".
func Int(n int64) string { return printer.Sprintf("%d", n) }

// Round: nearest integer with halves rounded toward +Inf (browser Math.round).
func Round(x float64) float64 {
	r := math.Floor(x)
	if x-r >= 0.5 {
		r++
	}
	return r
}

// Decimal: grouped integer part plus at most maxFrac fraction digits, trailing zeros dropped.
// Halves round away from zero, matching toLocaleString.
func Decimal(x float64, maxFrac int32) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return "0"
	}
	d := decimal.NewFromFloat(x).Round(maxFrac)
	s := d.String()
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")
	n := decimal.RequireFromString(intPart).IntPart()
	out := Int(n)
	if frac != "" {
		out += "." + frac
	}
	if neg && out != "0" {
		out = "-" + out
	}
	return out
}

// Percent: exactly two fraction digits and a % suffix, e.g. 0.01 -> "0.01%", 0.5 -> "0.50%".
func Percent(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return "0.00%"
	}
	return decimal.NewFromFloat(x).StringFixed(2) + "%"
}

// Won: amount rounded to whole won with grouping and the 원 suffix.
func Won(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "0원"
	}
	d := decimal.NewFromFloat(amount).Add(half).Floor()
	return Int(d.IntPart()) + "원"
}

// Visitors: annual visitors in units of 10,000 (만 명).
func Visitors(n int) string {
	return Decimal(float64(n)/10000, 3) + "만 명"
}

// Count: restaurant count label.
func Count(n int) string {
	return printer.Sprintf("%d", n) + "개"
}
