package score

import (
	"reflect"
	"testing"

	"github.com/adulab/go-assessment-backend/internal/domain"
)

func TestCalculate_KnownSubmission(t *testing.T) {
	got := Calculate(domain.Answers{
		"lot_size":     "large",
		"primary_use":  "rental",
		"budget_range": "luxury",
		"financing":    "approved",
	})

	want := domain.Breakdown{Site: 20, Permitting: 18, Architecture: 22, Resources: 23}
	if got.Breakdown != want {
		t.Fatalf("breakdown = %+v, want %+v", got.Breakdown, want)
	}
	if got.Total != 83 {
		t.Fatalf("total = %d, want 83", got.Total)
	}
	if got.Category != CategoryExcellent {
		t.Fatalf("category = %q, want %q", got.Category, CategoryExcellent)
	}
}

func TestCalculate_Deterministic(t *testing.T) {
	answers := domain.Answers{
		"lot_size":     "medium",
		"primary_use":  "office",
		"budget_range": "standard",
		"financing":    "unsure",
		"extra_key":    "ignored",
	}
	a := Calculate(answers)
	b := Calculate(answers)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same input produced different scores: %+v vs %+v", a, b)
	}
}

func TestCalculate_UnknownAndMissingKeysUseDefaults(t *testing.T) {
	got := Calculate(domain.Answers{})
	want := domain.Breakdown{Site: 12, Permitting: 18, Architecture: 19, Resources: 14}
	if got.Breakdown != want {
		t.Fatalf("defaults breakdown = %+v, want %+v", got.Breakdown, want)
	}
	if got.Total != 63 {
		t.Fatalf("defaults total = %d, want 63", got.Total)
	}

	// Garbage values behave like missing ones.
	garbage := Calculate(domain.Answers{
		"lot_size":     "gigantic",
		"primary_use":  "spaceport",
		"budget_range": "??",
	})
	if garbage.Breakdown != want {
		t.Fatalf("garbage breakdown = %+v, want %+v", garbage.Breakdown, want)
	}
}

func TestCalculate_SiteMonotonicInLotSize(t *testing.T) {
	// Larger lots never score lower, other answers held fixed.
	ordered := []string{"small", "medium", "large", "xlarge"}
	prev := -1
	for _, size := range ordered {
		s := Calculate(domain.Answers{"lot_size": size})
		if s.Breakdown.Site < prev {
			t.Fatalf("site score decreased at lot_size=%q: %d < %d", size, s.Breakdown.Site, prev)
		}
		prev = s.Breakdown.Site
	}
}

func TestCalculate_LuxuryBudgetRequiresCommittedFinancing(t *testing.T) {
	committed := Calculate(domain.Answers{"budget_range": "luxury", "financing": "approved"})
	unsure := Calculate(domain.Answers{"budget_range": "luxury", "financing": "unsure"})
	if committed.Breakdown.Resources != 23 {
		t.Fatalf("luxury+approved resources = %d, want 23", committed.Breakdown.Resources)
	}
	if unsure.Breakdown.Resources != 14 {
		t.Fatalf("luxury+unsure resources = %d, want 14", unsure.Breakdown.Resources)
	}
}

func TestCategory_Bands(t *testing.T) {
	tests := []struct {
		total int
		want  string
	}{
		{0, CategoryRoadblock},
		{25, CategoryRoadblock},
		{26, CategoryModerate},
		{50, CategoryModerate},
		{51, CategoryGood},
		{75, CategoryGood},
		{76, CategoryExcellent},
		{88, CategoryExcellent},
	}
	for _, tc := range tests {
		if got := Category(tc.total); got != tc.want {
			t.Fatalf("Category(%d) = %q, want %q", tc.total, got, tc.want)
		}
	}
}
