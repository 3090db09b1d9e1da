package utils

import "fmt"

// FormatCents renders an amount of cents as dollars, e.g. 40000 -> "$400.00".
func FormatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign, c = "-", -c
	}
	return fmt.Sprintf("%s$%d.%02d", sign, c/100, c%100)
}
