package pto

import (
	"math"
	"math/big"
	"strconv"
)

// HoursPerDay converts leave days into hours.
const HoursPerDay = 8

// roundHalfUp rounds halves toward positive infinity, so -2.5 becomes -2.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

func roundTo(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return roundHalfUp(v*scale) / scale
}

// formatNumber renders v in its shortest form: 80, 32.5, 0.25.
func formatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func daysToHours(days float64) float64 {
	return roundTo(days*HoursPerDay, 2)
}

func formatHours(days float64) string {
	return formatNumber(daysToHours(days))
}

// formatFixed1 renders v with one decimal, rounding the exact binary value
// of v and breaking exact ties away from zero. 0.15 (stored just below)
// gives "0.1", 0.25 gives "0.3".
func formatFixed1(v float64) string {
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	tenths := new(big.Float).SetPrec(128).SetFloat64(v)
	tenths.Mul(tenths, big.NewFloat(10))
	whole, _ := tenths.Int(nil)
	rest := new(big.Float).SetPrec(128).Sub(tenths, new(big.Float).SetInt(whole))
	if rest.Cmp(big.NewFloat(0.5)) >= 0 {
		whole.Add(whole, big.NewInt(1))
	}

	digits := whole.String()
	if len(digits) < 2 {
		digits = "0" + digits
	}
	return sign + digits[:len(digits)-1] + "." + digits[len(digits)-1:]
}

func percentage(part, whole float64) int {
	if whole <= 0 {
		return 0
	}
	return int(roundHalfUp(part / whole * 100))
}
