package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseDecimal parses numeric catalog cells such as "40,000.50" or
// "1.234.567". Commas are thousands separators; more than one dot means the
// dots are thousands separators too.
func ParseDecimal(s string) (decimal.Decimal, error) {
	clean := strings.NewReplacer(",", "", "_", "", " ", "").Replace(strings.TrimSpace(s))

	if strings.Count(clean, ".") > 1 {
		clean = strings.ReplaceAll(clean, ".", "")
	}

	return decimal.NewFromString(clean)
}
