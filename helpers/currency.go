package helpers

import "fmt"

// FormatUSD formats a dollar amount with thousand separators and two decimals
func FormatUSD(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	dollars := int64(amount)
	cents := int64((amount-float64(dollars))*100 + 0.5)
	if cents >= 100 {
		dollars++
		cents -= 100
	}

	str := fmt.Sprintf("%d", dollars)
	length := len(str)

	var result string
	for i, digit := range str {
		if i > 0 && (length-i)%3 == 0 {
			result += ","
		}
		result += string(digit)
	}

	if negative {
		return fmt.Sprintf("-$%s.%02d", result, cents)
	}
	return fmt.Sprintf("$%s.%02d", result, cents)
}
