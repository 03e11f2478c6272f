package statement

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// currencyMarkers are stripped from amount strings before parsing. Longer
// markers come first so "Rs." does not leave a stray dot behind.
var currencyMarkers = []string{"Rs.", "rs.", "INR", "inr", "Rs", "rs", "$", "₹"}

var nonNumericRe = regexp.MustCompile(`[^\d.\-]`)

// ParseAmount converts a free-form amount like "Rs. 1,250.75" or "-$45.00"
// to a float. Anything that cannot be read degrades to 0.
func ParseAmount(s string) Parsed[float64] {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return defaulted(0.0, "empty amount")
	}

	cleaned = strings.ReplaceAll(cleaned, ",", "")
	for _, marker := range currencyMarkers {
		cleaned = strings.ReplaceAll(cleaned, marker, "")
	}
	cleaned = nonNumericRe.ReplaceAllString(cleaned, "")

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return defaulted(0.0, "unparseable amount "+strconv.Quote(s))
	}
	if v == 0 {
		// normalises -0
		v = 0
	}
	return ok(v)
}
