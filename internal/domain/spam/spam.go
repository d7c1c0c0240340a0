// Package spam assigns a 0-100 risk score to job postings using heuristic
// signals. Scoring only flags; it never discards data — visibility policy
// belongs to the caller.
package spam

import (
	"net/url"
	"sort"
	"strings"

	"github.com/jobscout/jobscout/internal/domain/model"
)

// MaxScore caps the summed rule weights.
const MaxScore = 100

// DefaultThreshold is the score at or above which a posting is flagged as
// likely spam. Flagged jobs are retained, not deleted.
const DefaultThreshold = 70

// Result is the outcome of scoring one posting.
type Result struct {
	Score      int
	Indicators []string
}

// Flagged reports whether the score reaches the given threshold.
func (r Result) Flagged(threshold int) bool {
	return r.Score >= threshold
}

// rule is one heuristic signal with its weight contribution.
type rule struct {
	name   string
	weight int
	match  func(*model.Job) bool
}

var spamKeywords = []string{
	"get rich", "quick money", "easy money", "earn from home today",
	"no interview", "immediate start no experience", "wire transfer",
	"payment upfront", "training fee", "unlimited earning",
}

// lowQualityHosts are aggregator domains that repost stale or fabricated
// listings.
var lowQualityHosts = []string{
	"jobspider", "click2apply", "applytracking", "hotjobads",
	"fastjobstoday", "jobrapido",
}

var rules = []rule{
	{
		name:   "missing_company",
		weight: 25,
		match: func(j *model.Job) bool {
			return strings.TrimSpace(j.Company) == ""
		},
	},
	{
		name:   "short_description",
		weight: 20,
		match: func(j *model.Job) bool {
			return len(strings.Fields(j.Description)) < 15
		},
	},
	{
		name:   "shouty_title",
		weight: 20,
		match:  shoutyTitle,
	},
	{
		name:   "spam_keywords",
		weight: 30,
		match: func(j *model.Job) bool {
			text := strings.ToLower(j.Title + " " + j.Description)
			for _, kw := range spamKeywords {
				if strings.Contains(text, kw) {
					return true
				}
			}
			return false
		},
	},
	{
		name:   "no_experience_for_senior_role",
		weight: 25,
		match: func(j *model.Job) bool {
			title := strings.ToLower(j.Title)
			if !strings.Contains(title, "senior") && !strings.Contains(title, "lead") &&
				!strings.Contains(title, "principal") {
				return false
			}
			desc := strings.ToLower(j.Description)
			return strings.Contains(desc, "no experience needed") ||
				strings.Contains(desc, "no experience required")
		},
	},
	{
		name:   "implausible_salary",
		weight: 25,
		match:  implausibleSalary,
	},
	{
		name:   "low_quality_url",
		weight: 20,
		match:  lowQualityURL,
	},
}

// Score evaluates every rule against the job and returns the capped sum of
// triggered weights plus the triggered rule names, sorted for determinism.
func Score(job *model.Job) Result {
	var total int
	var indicators []string

	for _, r := range rules {
		if r.match(job) {
			total += r.weight
			indicators = append(indicators, r.name)
		}
	}

	if total > MaxScore {
		total = MaxScore
	}
	sort.Strings(indicators)
	return Result{Score: total, Indicators: indicators}
}

// shoutyTitle fires when more than half of the title's multi-letter words are
// fully capitalized.
func shoutyTitle(j *model.Job) bool {
	words := strings.Fields(j.Title)
	var counted, caps int
	for _, w := range words {
		letters := strings.Map(func(r rune) rune {
			if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
				return r
			}
			return -1
		}, w)
		if len(letters) < 2 {
			continue
		}
		counted++
		if letters == strings.ToUpper(letters) {
			caps++
		}
	}
	return counted >= 2 && caps*2 > counted
}

// implausibleSalary fires on salaries far outside plausible bounds for any
// role: below a living wage posted as annual, or absurdly high.
func implausibleSalary(j *model.Job) bool {
	if j.SalaryMin != nil && (*j.SalaryMin < 5000 || *j.SalaryMin > 2000000) {
		return true
	}
	if j.SalaryMax != nil && *j.SalaryMax > 5000000 {
		return true
	}
	return false
}

func lowQualityURL(j *model.Job) bool {
	if j.URL == "" {
		return false
	}
	u, err := url.Parse(j.URL)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Host)
	for _, bad := range lowQualityHosts {
		if strings.Contains(host, bad) {
			return true
		}
	}
	return false
}
