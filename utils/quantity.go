package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// gram suffixes users actually type, longest first so "gramos" is not
// half-eaten by "gr".
var gramSuffixes = []string{"gramos", "grams", "gram", "gr", "g"}

// ParseQuantityGrams accepts "150", "150g", "150 gr", "150 gramos" and
// returns the numeric grams. Rejects non-positive and absurdly large
// values.
func ParseQuantityGrams(s string) (float64, error) {
	cleaned := strings.ToLower(strings.TrimSpace(s))
	for _, suffix := range gramSuffixes {
		cleaned = strings.ReplaceAll(cleaned, suffix, "")
	}
	cleaned = strings.TrimSpace(strings.ReplaceAll(cleaned, ",", "."))
	if cleaned == "" {
		return 0, fmt.Errorf("empty quantity")
	}
	grams, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("not a quantity: %q", s)
	}
	if grams <= 0 {
		return 0, fmt.Errorf("quantity must be positive")
	}
	if grams > 10000 {
		return 0, fmt.Errorf("quantity %0.f g is implausibly large", grams)
	}
	return grams, nil
}
