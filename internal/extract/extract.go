// Package extract turns free-text answers into bounded numeric values.
package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Field selects the bounds applied to an extracted number.
type Field string

const (
	Age      Field = "age"
	Income   Field = "income"
	Budget   Field = "budget"
	Term     Field = "term"
	Coverage Field = "coverage"
)

const (
	crore    = 10_000_000
	lakh     = 100_000
	thousand = 1_000
)

var (
	numberRe   = regexp.MustCompile(`\d+(?:\.\d+)?`)
	currencyRe = regexp.MustCompile(`₹|\brs\.?|\brupees?\b|\binr\b`)
	croreRe    = regexp.MustCompile(`crore|(?:\d|\b)cr\b`)
	lakhRe     = regexp.MustCompile(`lakh|(?:\d|\b)lacs?\b`)
	thousandRe = regexp.MustCompile(`\d\s*(?:k|thousand)\b`)
	buttonRe   = regexp.MustCompile(`^\d+\.\s*`)
)

// Extract parses the first number in text, applies Indian multiplier words
// and validates it against the field's range. Unknown fields return the
// parsed number unchecked.
func Extract(text string, field Field) (int64, bool) {
	t := strings.ToLower(text)
	t = strings.ReplaceAll(t, ",", "")
	t = currencyRe.ReplaceAllString(t, " ")

	raw := numberRe.FindString(t)
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}

	switch {
	case croreRe.MatchString(t):
		f *= crore
	case lakhRe.MatchString(t):
		f *= lakh
	case thousandRe.MatchString(t):
		f *= thousand
	}
	v := int64(math.Round(f))

	if !inRange(v, field) {
		return 0, false
	}
	return v, true
}

func inRange(v int64, field Field) bool {
	switch field {
	case Age:
		return v >= 18 && v <= 80
	case Income:
		return v >= 50_000
	case Budget:
		return v >= 500
	case Term:
		return v >= 1 && v <= 50
	case Coverage:
		return v >= 100_000
	}
	return true
}

// CleanOption strips the "1. " numbering some clients prefix to button labels.
func CleanOption(text string) string {
	return buttonRe.ReplaceAllString(strings.TrimSpace(text), "")
}
