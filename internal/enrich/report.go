// Package enrich runs the asynchronous enrichment of freshly created
// assessments: generating the detailed report and driving the record to a
// terminal status.
package enrich

import (
	"context"
	"time"

	"github.com/adulab/go-assessment-backend/internal/domain"
)

// ReportGenerator produces the detailed report for an assessment. The
// generation step is external and of unspecified duration; implementations
// must honor ctx so the worker's per-job timeout can cut them off.
type ReportGenerator interface {
	Generate(ctx context.Context, answers domain.Answers) (*domain.Report, error)
}

// StaticGenerator is the placeholder generator used until the AI pipeline
// is integrated. It sleeps for Delay (simulating the external call) and
// returns fixed report content.
type StaticGenerator struct {
	Delay time.Duration
}

// Generate returns canned report content after the configured delay.
func (g StaticGenerator) Generate(ctx context.Context, _ domain.Answers) (*domain.Report, error) {
	if g.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(g.Delay):
		}
	}
	return &domain.Report{
		KeyFindings: []string{
			"Your property shows strong potential for ADU development",
			"Zoning regulations in your area are ADU-friendly",
			"Your budget aligns well with typical construction costs",
		},
		Snapshot: domain.ReportSnapshot{
			EstimatedCost:      "$150,000 - $200,000",
			EstimatedTimeline:  "6-8 months",
			PermitDifficulty:   "Moderate",
			ReturnOnInvestment: "7-10 years",
		},
	}, nil
}
