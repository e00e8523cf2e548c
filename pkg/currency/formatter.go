package currency

import (
	"fmt"
	"math"
	"strings"
)

// zeroDecimal lists ISO 4217 currencies without minor units.
var zeroDecimal = map[string]bool{
	"JPY": true,
	"KRW": true,
	"IDR": true,
	"VND": true,
	"CLP": true,
	"ISK": true,
}

// Format renders an amount as "EUR 1,234.50". Zero-decimal currencies are
// rounded to whole units.
func Format(amount float64, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))

	negative := amount < 0
	if negative {
		amount = -amount
	}

	var intStr, fracStr string
	if zeroDecimal[code] {
		intStr = fmt.Sprintf("%.0f", math.Round(amount))
	} else {
		cents := math.Round(amount * 100)
		intStr = fmt.Sprintf("%.0f", math.Floor(cents/100))
		fracStr = fmt.Sprintf("%02.0f", math.Mod(cents, 100))
	}

	result := addThousandsSeparator(intStr, ",")
	if fracStr != "" {
		result += "." + fracStr
	}
	if code != "" {
		result = code + " " + result
	}
	if negative {
		result = "-" + result
	}

	return result
}

// MinorUnits converts an amount into the smallest currency unit, as hosted
// checkout services expect.
func MinorUnits(amount float64, code string) int64 {
	if zeroDecimal[strings.ToUpper(code)] {
		return int64(math.Round(amount))
	}
	return int64(math.Round(amount * 100))
}

// FromMinorUnits is the inverse of MinorUnits.
func FromMinorUnits(units int64, code string) float64 {
	if zeroDecimal[strings.ToUpper(code)] {
		return float64(units)
	}
	return float64(units) / 100
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
