package scraper

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var nonNumeric = regexp.MustCompile(`[^0-9.]`)

// unitToKg converts common pack units to kilograms.
var unitToKg = map[string]float64{
	"g":         0.001,
	"gram":      0.001,
	"grams":     0.001,
	"kg":        1.0,
	"kilogram":  1.0,
	"kilograms": 1.0,
	"lb":        0.453592,
	"pound":     0.453592,
	"pounds":    0.453592,
	"oz":        0.0283495,
	"ounce":     0.0283495,
	"ounces":    0.0283495,
}

// parsePrice extracts a price value from free text such as "EGP 12.50" or
// "12,50 EGP". Comma decimal separators are normalized.
func parsePrice(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty price")
	}
	s = strings.ReplaceAll(s, ",", ".")
	s = nonNumeric.ReplaceAllString(s, "")
	if s == "" {
		return 0, fmt.Errorf("no digits in price %q", raw)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", raw, err)
	}
	return v, nil
}

// PricePerKg derives a per-kilogram price from a pack size and unit.
// Returns nil when the unit is unknown or the size cannot be parsed.
func PricePerKg(price float64, packSize, packUnit string) *float64 {
	factor, ok := unitToKg[strings.ToLower(strings.TrimSpace(packUnit))]
	if !ok {
		return nil
	}

	size, err := parsePrice(packSize)
	if err != nil || size <= 0 {
		return nil
	}

	weightKg := size * factor
	if weightKg <= 0 {
		return nil
	}

	v := math.Round(price/weightKg*100) / 100
	return &v
}
