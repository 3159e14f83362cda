package matching

import (
	"fmt"
	"math"
	"strings"

	"github.com/arkx-app/odoo-matchmaker/internal/db"
)

// Dimension weights. They sum to 1.0, so with every dimension bounded to
// [0,100] the weighted total is bounded the same way.
const (
	weightModuleFit = 0.30
	weightIndustry  = 0.25
	weightBudget    = 0.20
	weightCapacity  = 0.10
	weightRating    = 0.15
)

// Breakdown keys as they appear in the stored score breakdown.
const (
	DimModuleFit = "moduleFit"
	DimIndustry  = "industryMatch"
	DimBudget    = "budgetFit"
	DimCapacity  = "capacity"
	DimRating    = "rating"
)

// ScoreResult is the outcome of scoring one (brief, partner) pair.
type ScoreResult struct {
	Score     int
	Breakdown map[string]int
	Reasons   []string
}

// Score computes the compatibility score between a client brief and a
// partner profile. Pure and deterministic: no I/O, no side effects, never
// errors. Missing inputs default to neutral sub-scores.
//
// clientIndustry is the industry the brief's owner stated at signup; the
// industry dimension compares it directly against the partner's industry.
func Score(brief *db.Brief, clientIndustry string, partner *db.Partner) ScoreResult {
	moduleFit := scoreModuleFit(brief.Modules, partner.Services)
	industry := scoreIndustry(clientIndustry, partner.Industry)
	budget := scoreBudgetFit(brief, partner)
	capacity := scoreCapacity(partner.Capacity)
	rating := scoreRating(partner.Rating)

	total := int(math.Round(
		weightModuleFit*float64(moduleFit) +
			weightIndustry*float64(industry) +
			weightBudget*float64(budget) +
			weightCapacity*float64(capacity) +
			weightRating*float64(rating),
	))

	return ScoreResult{
		Score: total,
		Breakdown: map[string]int{
			DimModuleFit: moduleFit,
			DimIndustry:  industry,
			DimBudget:    budget,
			DimCapacity:  capacity,
			DimRating:    rating,
		},
		Reasons: buildReasons(moduleFit, industry, budget, capacity, partner.Rating),
	}
}

// scoreModuleFit is the fraction of required modules covered by the
// partner's services, matched by case-insensitive substring containment in
// either direction. A brief with no modules scores a neutral 50.
func scoreModuleFit(modules, services []string) int {
	if len(modules) == 0 {
		return 50
	}

	matched := 0
	for _, m := range modules {
		mod := strings.ToLower(strings.TrimSpace(m))
		if mod == "" {
			continue
		}
		for _, s := range services {
			svc := strings.ToLower(strings.TrimSpace(s))
			if svc == "" {
				continue
			}
			if strings.Contains(svc, mod) || strings.Contains(mod, svc) {
				matched++
				break
			}
		}
	}

	return int(math.Round(float64(matched) / float64(len(modules)) * 100))
}

// scoreIndustry compares the partner's industry against the client's stated
// industry: exact match 100, partial substring match 60, no match 40.
// Neutral 50 when either side left the field blank.
func scoreIndustry(clientIndustry, partnerIndustry string) int {
	ci := strings.ToLower(strings.TrimSpace(clientIndustry))
	pi := strings.ToLower(strings.TrimSpace(partnerIndustry))

	switch {
	case ci == "" || pi == "":
		return 50
	case ci == pi:
		return 100
	case strings.Contains(ci, pi) || strings.Contains(pi, ci):
		return 60
	default:
		return 40
	}
}

// scoreBudgetFit maps the partner's average hourly rate through a symmetric
// closeness function peaking at 100 when it sits at the brief's budget
// midpoint, decaying linearly with relative divergence, floored at 50.
func scoreBudgetFit(brief *db.Brief, partner *db.Partner) int {
	budgetMid := float64(brief.BudgetMin+brief.BudgetMax) / 2
	rateMid := partner.AvgRate()
	if budgetMid <= 0 || rateMid <= 0 {
		return 50
	}

	closeness := 100 - math.Abs(rateMid-budgetMid)/budgetMid*100
	if closeness < 50 {
		return 50
	}
	return int(math.Round(closeness))
}

func scoreCapacity(capacity string) int {
	switch strings.ToLower(strings.TrimSpace(capacity)) {
	case db.CapacityAvailable:
		return 100
	case db.CapacityLimited:
		return 60
	case db.CapacityFull, "booked":
		return 30
	default:
		return 50
	}
}

// scoreRating scales the 1-5 star rating linearly onto 0-100.
func scoreRating(rating float64) int {
	s := int(math.Round(rating * 20))
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// buildReasons emits a human-readable reason per dimension that clears its
// threshold, falling back to a single generic reason when none do.
func buildReasons(moduleFit, industry, budget, capacity int, rating float64) []string {
	var reasons []string

	if moduleFit > 70 {
		reasons = append(reasons, "Strong coverage of your required modules")
	}
	if industry > 60 {
		reasons = append(reasons, "Experienced in your industry")
	}
	if budget > 70 {
		reasons = append(reasons, "Hourly rates align with your budget")
	}
	if capacity == 100 {
		reasons = append(reasons, "Available to start immediately")
	}
	if rating*20 >= 80 {
		reasons = append(reasons, fmt.Sprintf("%d-star rated partner", int(math.Round(rating))))
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "Good overall match")
	}
	return reasons
}
