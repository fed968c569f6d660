// Package score derives the composite readiness score from a submitted
// answers mapping. Calculate is a pure function: no state, no I/O, identical
// input always yields identical output.
//
// Four categories contribute to the total, each bounded by its own maximum:
//
//   - site (max 25):         lot_size
//   - permitting (max 18):   fixed contribution until zoning data is wired in
//   - architecture (max 22): primary_use
//   - resources (max 23):    budget_range + financing
//
// Unknown or missing answer keys never fail a call; every category has a
// defined default contribution.
package score

import "github.com/adulab/go-assessment-backend/internal/domain"

// Answer keys consumed by the calculator. Other keys are carried along in
// the stored answers snapshot but do not influence the score.
const (
	KeyLotSize    = "lot_size"
	KeyPrimaryUse = "primary_use"
	KeyBudget     = "budget_range"
	KeyFinancing  = "financing"
)

// Score-band labels, highest qualifying band wins.
const (
	CategoryExcellent = "Excellent Potential"
	CategoryGood      = "Good Potential"
	CategoryModerate  = "Moderate Challenges"
	CategoryRoadblock = "Major Roadblocks"
)

// Calculate computes the score record for the given answers.
func Calculate(answers domain.Answers) domain.Score {
	b := domain.Breakdown{
		Site:         siteScore(answers[KeyLotSize]),
		Permitting:   18,
		Architecture: architectureScore(answers[KeyPrimaryUse]),
		Resources:    resourcesScore(answers[KeyBudget], answers[KeyFinancing]),
	}
	total := b.Site + b.Permitting + b.Architecture + b.Resources
	return domain.Score{
		Total:     total,
		Breakdown: b,
		Category:  Category(total),
	}
}

// Category maps a total score onto its band label. Bands are closed-open
// intervals: ≥76, ≥51, ≥26, else roadblocks.
func Category(total int) string {
	switch {
	case total >= 76:
		return CategoryExcellent
	case total >= 51:
		return CategoryGood
	case total >= 26:
		return CategoryModerate
	default:
		return CategoryRoadblock
	}
}

func siteScore(lotSize string) int {
	switch lotSize {
	case "xlarge":
		return 25
	case "large":
		return 20
	case "medium":
		return 15
	case "small":
		return 10
	default:
		return 12
	}
}

func architectureScore(primaryUse string) int {
	switch primaryUse {
	case "rental":
		return 22
	case "family":
		return 20
	case "office":
		return 18
	default:
		return 19
	}
}

func resourcesScore(budget, financing string) int {
	switch {
	case budget == "luxury" && financing != "unsure":
		return 23
	case budget == "premium":
		return 20
	case budget == "standard":
		return 17
	default:
		return 14
	}
}
