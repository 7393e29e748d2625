package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const numberPattern = `(\d+(?:[.,']\d+)*)`

var (
	// $1,234.56  Rs. 500  ₹ 2,500  €1.234,56  USD 300
	prefixAmountRe = regexp.MustCompile(`(?i)(?:US\$|\$|₹|€|£|\b(?:USD|INR|EUR|GBP|Rs)\.?)\s?` + numberPattern)
	// 500.00 EUR  2,500 rupees
	suffixAmountRe = regexp.MustCompile(`(?i)` + numberPattern + `\s?(?:€|\b(?:USD|INR|EUR|GBP|rupees|dollars)\b)`)
)

type amountMatch struct {
	span
	value float64
}

// extractAmounts returns currency-marked monetary values in order of appearance
func extractAmounts(text string) []float64 {
	var matches []amountMatch

	collect := func(re *regexp.Regexp) {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			if v, ok := parseAmount(text[m[2]:m[3]]); ok {
				matches = append(matches, amountMatch{span{m[0], m[1]}, v})
			}
		}
	}
	collect(prefixAmountRe)
	collect(suffixAmountRe)

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].start != matches[j].start {
			return matches[i].start < matches[j].start
		}
		return matches[i].end > matches[j].end
	})

	amounts := make([]float64, 0, len(matches))
	lastEnd := -1
	for _, m := range matches {
		if m.start < lastEnd {
			continue
		}
		amounts = append(amounts, m.value)
		lastEnd = m.end
	}
	return amounts
}

// parseAmount reads a number written with either decimal convention.
// With both separators the rightmost is the decimal mark. A lone comma followed by
// one or two digits is a decimal comma; otherwise commas, apostrophes and repeated
// dots group thousands.
func parseAmount(s string) (float64, bool) {
	s = strings.ReplaceAll(s, "'", "")
	lastDot := strings.LastIndexByte(s, '.')
	lastComma := strings.LastIndexByte(s, ',')

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 <= 2 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
