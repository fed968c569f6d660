// Package services – AssessmentService
//
// This file implements AssessmentService, the application-level component
// that owns the assessment lifecycle: validating a submission, deriving its
// score, persisting the record together with its public-access token in one
// transaction, dispatching detached enrichment, and resolving reads by id or
// by token.
//
// Side effects: CRM contact sync is fired on intake and its failure is
// swallowed (logged only); it is not a correctness dependency.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// assessment identifiers.
package services

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adulab/go-assessment-backend/internal/domain"
	"github.com/adulab/go-assessment-backend/internal/notify"
	"github.com/adulab/go-assessment-backend/internal/repo"
	"github.com/adulab/go-assessment-backend/internal/score"
	"github.com/adulab/go-assessment-backend/internal/token"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rs/zerolog/log"
)

// tokenRetries bounds regeneration on storage-level token collisions. The
// per-attempt collision odds are negligible for a 12-char base-36 token; the
// bound only guarantees the loop terminates.
const tokenRetries = 5

// Enricher dispatches detached enrichment work for a freshly created
// assessment. Enqueue must return promptly and must never surface the
// job's own failures to the caller.
type Enricher interface {
	Enqueue(assessmentID string, answers domain.Answers)
}

// AssessmentService coordinates intake, reads, and token resolution.
type AssessmentService struct {
	DB *gorm.DB

	// TokenTTL is the public-token lifetime (default 90 days when zero).
	TokenTTL time.Duration
	// TokenLength overrides the generated token length when > 0.
	TokenLength int

	// Optional guards on the submitted answers mapping.
	MaxAnswerKeys int
	MaxValueRunes int

	// Enricher receives the detached enrichment job after commit.
	Enricher Enricher
	// CRM receives the fire-and-forget contact sync on intake.
	CRM notify.CRM
}

// IntakeResult is what a successful submission returns to the client.
type IntakeResult struct {
	Assessment *domain.Assessment
	Token      *domain.PublicToken
}

// Intake validates the answers, derives the score, and writes the
// assessment (status=processing, tier1) and its public token in one atomic
// unit. Enrichment is dispatched after the transaction commits so the
// worker can never observe an uncommitted record. submittedAt is the
// client's claimed submission time, recorded for tracing only; the stored
// timestamps are server-side.
func (s *AssessmentService) Intake(ctx context.Context, userID *string, answers domain.Answers, submittedAt time.Time) (*IntakeResult, error) {
	tr := otel.Tracer("services/AssessmentService")
	ctx, span := tr.Start(ctx, "Intake",
		trace.WithAttributes(attribute.Int("answers.count", len(answers))),
	)
	defer span.End()

	if err := s.validateAnswers(answers); err != nil {
		return nil, err
	}

	sc := score.Calculate(answers)
	id := uuid.NewString()
	span.SetAttributes(
		attribute.String("assessment.id", id),
		attribute.Int("score.total", sc.Total),
		attribute.String("submitted_at", submittedAt.UTC().Format(time.RFC3339)),
	)

	var result IntakeResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := repo.CreateAssessment(ctx, tx, id, userID, answers, sc)
		if err != nil {
			return err
		}
		result.Assessment = a

		for attempt := 0; attempt < tokenRetries; attempt++ {
			tok, err := token.Generate(s.TokenLength)
			if err != nil {
				return err
			}
			rec, err := repo.CreateToken(ctx, tx, tok, id, s.tokenTTL())
			if errors.Is(err, repo.ErrDuplicate) {
				continue
			}
			if err != nil {
				return err
			}
			result.Token = rec
			return nil
		}
		return ErrTokenExhausted
	})
	if err != nil {
		return nil, err
	}

	// Non-critical side effect: sync the lead into the CRM. Never fails
	// the intake.
	if s.CRM != nil {
		if err := s.CRM.CreateContact(ctx, answers); err != nil {
			log.Warn().Err(err).Str("assessment_id", id).Msg("crm contact sync failed")
		}
	}

	if s.Enricher != nil {
		s.Enricher.Enqueue(id, answers)
	}

	assessmentsCreatedTotal.Inc()
	return &result, nil
}

// Read fetches a full assessment by id.
func (s *AssessmentService) Read(ctx context.Context, id string) (*domain.Assessment, error) {
	tr := otel.Tracer("services/AssessmentService")
	ctx, span := tr.Start(ctx, "Read",
		trace.WithAttributes(attribute.String("assessment.id", id)),
	)
	defer span.End()

	a, err := repo.GetAssessment(ctx, s.DB, id)
	if repo.IsNotFound(err) {
		return nil, ErrAssessmentNotFound
	}
	return a, err
}

// Resolve returns the assessment referenced by a public token. Tokens past
// their expiry are indistinguishable from absent ones: both yield
// ErrTokenNotFound, regardless of whether the sweeper has removed the row.
func (s *AssessmentService) Resolve(ctx context.Context, tok string) (*domain.Assessment, error) {
	tr := otel.Tracer("services/AssessmentService")
	ctx, span := tr.Start(ctx, "Resolve")
	defer span.End()

	rec, err := repo.ResolveToken(ctx, s.DB, tok, time.Now())
	if repo.IsNotFound(err) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("assessment.id", rec.AssessmentID))

	a, err := repo.GetAssessment(ctx, s.DB, rec.AssessmentID)
	if repo.IsNotFound(err) {
		// Token outliving its assessment means creation atomicity was
		// violated out-of-band; treat as not found rather than leaking.
		return nil, ErrTokenNotFound
	}
	return a, err
}

func (s *AssessmentService) validateAnswers(answers domain.Answers) error {
	if len(answers) == 0 {
		return ErrInvalidInput
	}
	if s.MaxAnswerKeys > 0 && len(answers) > s.MaxAnswerKeys {
		return ErrInvalidInput
	}
	if s.MaxValueRunes > 0 {
		for k, v := range answers {
			if utf8.RuneCountInString(k) > s.MaxValueRunes || utf8.RuneCountInString(v) > s.MaxValueRunes {
				return ErrInvalidInput
			}
		}
	}
	return nil
}

func (s *AssessmentService) tokenTTL() time.Duration {
	if s.TokenTTL > 0 {
		return s.TokenTTL
	}
	return 90 * 24 * time.Hour
}
