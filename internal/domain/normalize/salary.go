package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

// salaryToken matches one money amount: optional currency symbol, digits with
// optional thousands separators or decimal part, optional k suffix.
var salaryToken = regexp.MustCompile(`[$€£]?\s*(\d{1,3}(?:,\d{3})+|\d+(?:\.\d+)?)\s*([kK])?`)

// rangeSeparators are the tokens accepted between the two ends of a salary range.
var rangeSeparators = []string{"–", "—", "-", " to ", " up to "}

// minPlausibleSalary filters out numbers that are clearly not annual salaries
// (years, team sizes, "401k" is excluded separately).
const minPlausibleSalary = 1000

// Salary extracts salaryMin/salaryMax in whole currency units from free text.
// Ranges ("$80k–$100k", "80,000-100,000") populate both ends; a single
// plausible value populates the minimum only. Returns (nil, nil) when nothing
// parseable is found; never errors.
func Salary(text string) (salaryMin, salaryMax *int) {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return nil, nil
	}
	cleaned = strings.ReplaceAll(cleaned, "401k", "")
	cleaned = strings.ReplaceAll(cleaned, "401K", "")

	values := extractAmounts(cleaned)
	if len(values) == 0 {
		return nil, nil
	}

	if len(values) >= 2 && hasRangeSeparator(cleaned) {
		lo, hi := values[0], values[1]
		if hi < lo {
			lo, hi = hi, lo
		}
		return &lo, &hi
	}

	// Ambiguous single value: assign to the minimum only.
	return &values[0], nil
}

// extractAmounts returns all plausible salary amounts found in the text, in
// order of appearance.
func extractAmounts(text string) []int {
	matches := salaryToken.FindAllStringSubmatch(text, -1)
	values := make([]int, 0, len(matches))
	for _, m := range matches {
		raw := strings.ReplaceAll(m[1], ",", "")
		amount, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		if m[2] != "" {
			amount *= 1000
		}
		v := int(amount)
		if v < minPlausibleSalary {
			continue
		}
		values = append(values, v)
	}
	return values
}

func hasRangeSeparator(text string) bool {
	lower := strings.ToLower(text)
	for _, sep := range rangeSeparators {
		if strings.Contains(lower, sep) {
			return true
		}
	}
	return false
}
