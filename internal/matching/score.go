// Package matching computes the deterministic weighted match score between
// a vacancy's requirements and a candidate's attributes.
package matching

import (
	"math"
	"strings"
)

// Maximum contribution per factor.
const (
	experienceMax   = 30
	titleMax        = 30
	availabilityMax = 20
	salaryMax       = 20

	// salaryNeutral applies when either side of the salary comparison is
	// missing.
	salaryNeutral = 10
)

// Job is the vacancy side of the comparison.
type Job struct {
	Title         string
	RequiredYears int
	SalaryMin     int64
}

// Candidate is the applicant side of the comparison. Zero ExpectedSalary
// means the candidate did not state one.
type Candidate struct {
	Title          string
	Years          int
	Availability   string
	ExpectedSalary int64
}

// Score maps (job requirements, candidate attributes) to an integer in
// [0,100]. Pure and deterministic: identical inputs always yield identical
// output.
func Score(job Job, c Candidate) int {
	total := experienceScore(job.RequiredYears, c.Years) +
		titleScore(job.Title, c.Title) +
		availabilityScore(c.Availability) +
		salaryScore(job.SalaryMin, c.ExpectedSalary)

	score := int(math.Round(total))
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// experienceScore awards up to 30 points. Meeting or exceeding the
// requirement gives full marks; falling short scales 20 by the fraction
// covered.
func experienceScore(required, years int) float64 {
	if required <= 0 || years >= required {
		return experienceMax
	}
	s := 20.0 * float64(years) / float64(required)
	if s < 0 {
		s = 0
	}
	return s
}

// titleScore awards 30 for an exact case-insensitive match, otherwise 30
// scaled by the share of meaningful words (length > 3) the two titles have
// in common, relative to the larger word set.
func titleScore(vacancyTitle, candidateTitle string) float64 {
	vt := strings.TrimSpace(strings.ToLower(vacancyTitle))
	ct := strings.TrimSpace(strings.ToLower(candidateTitle))
	if vt == "" || ct == "" {
		return 0
	}
	if vt == ct {
		return titleMax
	}

	vw := wordSet(vt)
	cw := wordSet(ct)
	denom := len(vw)
	if len(cw) > denom {
		denom = len(cw)
	}
	if denom == 0 {
		return 0
	}

	shared := 0
	for w := range vw {
		if len(w) > 3 && cw[w] {
			shared++
		}
	}
	return math.Round(titleMax * float64(shared) / float64(denom))
}

// availabilityScore gives full marks to immediate availability, half to any
// other stated availability and nothing when absent.
func availabilityScore(availability string) float64 {
	a := strings.TrimSpace(availability)
	if a == "" {
		return 0
	}
	if strings.Contains(strings.ToLower(a), "inmediata") {
		return availabilityMax
	}
	return 10
}

// salaryScore compares the candidate's expectation against the vacancy
// minimum: 20 minus 40 times the relative difference, floored at 0. A
// missing figure on either side yields the flat neutral value.
func salaryScore(salaryMin, expected int64) float64 {
	if salaryMin <= 0 || expected <= 0 {
		return salaryNeutral
	}
	diff := math.Abs(float64(expected-salaryMin)) / float64(salaryMin)
	s := float64(salaryMax) - 40.0*diff
	if s < 0 {
		s = 0
	}
	return s
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		w = strings.Trim(w, ".,;:()[]")
		if w != "" {
			set[w] = true
		}
	}
	return set
}
