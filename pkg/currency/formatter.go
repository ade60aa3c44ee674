package currency

import (
	"fmt"
	"math"
	"strings"
)

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"INR": "₹",
}

// Format renders a whole-unit price such as "$1,234" or "IDR 1.250.000".
// Codes without a known symbol are written as a prefix.
func Format(amount float64, code string) string {
	code = strings.ToUpper(code)
	rounded := math.Round(amount)

	negative := rounded < 0
	if negative {
		rounded = -rounded
	}

	sep := ","
	if code == "IDR" {
		sep = "."
	}
	formatted := addThousandsSeparator(fmt.Sprintf("%.0f", rounded), sep)

	var result string
	if sym, ok := symbols[code]; ok {
		result = sym + formatted
	} else if code != "" {
		result = code + " " + formatted
	} else {
		result = formatted
	}

	if negative {
		result = "-" + result
	}
	return result
}

func addThousandsSeparator(s string, sep string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	numSeps := (n - 1) / 3
	result := make([]byte, n+numSeps)

	j := len(result) - 1
	for i := n - 1; i >= 0; i-- {
		result[j] = s[i]
		j--

		pos := n - i
		if pos%3 == 0 && i > 0 {
			result[j] = sep[0]
			j--
		}
	}

	return string(result)
}
