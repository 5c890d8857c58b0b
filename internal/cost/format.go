package cost

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatAmount renders an amount with its currency symbol when the unit is
// a known ISO 4217 code, falling back to "12.34 CREDITS" style for
// provider-specific units.
func FormatAmount(amount float64, unit string) string {
	u, err := currency.ParseISO(unit)
	if err != nil {
		return fmt.Sprintf("%.2f %s", amount, strings.ToUpper(unit))
	}
	return printer.Sprintf("%v", currency.Symbol(u.Amount(amount)))
}

// FormatBreakdown renders a per-currency breakdown as a stable
// comma-separated list.
func FormatBreakdown(perCurrency map[string]float64) string {
	if len(perCurrency) == 0 {
		return ""
	}
	units := make([]string, 0, len(perCurrency))
	for unit := range perCurrency {
		units = append(units, unit)
	}
	sort.Strings(units)

	parts := make([]string, 0, len(units))
	for _, unit := range units {
		parts = append(parts, FormatAmount(perCurrency[unit], unit))
	}
	return strings.Join(parts, ", ")
}
