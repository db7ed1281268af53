package services

import (
	"math"

	"github.com/dustin/go-humanize"
)

// FormatMoney formats amount with thousands separators and exactly two
// decimal places behind symbol, e.g. ₺1,234.50. Negative amounts put the sign
// before the symbol.
func FormatMoney(symbol string, amount float64) string {
	negative := amount < 0
	// Round first so -0.004 does not print as "-₺0.00".
	amount = math.Round(math.Abs(amount)*100) / 100
	result := symbol + humanize.FormatFloat("#,###.##", amount)
	if negative && amount != 0 {
		result = "-" + result
	}
	return result
}

// FormatSize renders a byte count for layer listings, e.g. "12 kB".
func FormatSize(n int) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// FormatWeight renders kilograms with three decimals.
func FormatWeight(kg float64) string {
	return humanize.FormatFloat("#,###.###", kg) + " kg"
}
