package inventory

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Missing is the cell text for an attribute the car does not have. It is
// never confused with a present zero.
const Missing = "—"

var printer = message.NewPrinter(language.AmericanEnglish)

// FormatMoney renders an amount in US dollars with zero fraction digits and
// thousands grouping, e.g. 25000 -> "$25,000".
func FormatMoney(v float64) string {
	n := int64(math.Round(v))
	if n < 0 {
		return "-$" + printer.Sprintf("%d", -n)
	}
	return "$" + printer.Sprintf("%d", n)
}

// FormatDistance renders a mileage with grouping and a unit suffix,
// e.g. 12000 -> "12,000 mi".
func FormatDistance(miles int) string {
	return printer.Sprintf("%d mi", miles)
}

// formatNumber renders a float without trailing zeros.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func withUnit(v float64, unit string) string {
	return formatNumber(v) + " " + unit
}
