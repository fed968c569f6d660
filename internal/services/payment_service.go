// Package services – PaymentService
//
// This file implements the payment reconciler: it maps one external
// checkout-session event to exactly one payment ledger entry and exactly one
// tier upgrade, no matter how many times the event is delivered. Signature
// verification of the raw webhook payload happens at the transport layer
// (webhookauth); by the time Reconcile runs, the event is authentic.
//
// Ordering: the ledger append happens-before the tier upgrade. The two
// writes are deliberately not one transaction: if the process dies between
// them, the replayed event observes the existing ledger entry (Ignored) and
// still re-attempts the upgrade, whose monotonic guard makes the retry
// harmless. The upgrade therefore eventually lands under at-least-once
// delivery.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/adulab/go-assessment-backend/internal/domain"
	"github.com/adulab/go-assessment-backend/internal/notify"
	"github.com/adulab/go-assessment-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rs/zerolog/log"
)

// PaymentEvent is the decoded, already-authenticated webhook payload.
type PaymentEvent struct {
	EventType    string
	SessionID    string
	AssessmentID string
	ProductID    string
	Amount       int64
	Currency     string
}

// Outcome classifies a reconciliation result.
type Outcome string

const (
	// OutcomeOK: a new ledger entry was written and the upgrade applied.
	OutcomeOK Outcome = "ok"
	// OutcomeIgnored: the session id was already processed (replay) or the
	// event type is not one this core reconciles.
	OutcomeIgnored Outcome = "ignored"
)

// completedEventType is the only event type that upgrades a tier; everything
// else is acknowledged and ignored, matching the upstream provider contract.
const completedEventType = "checkout.session.completed"

// PaymentService reconciles external payment events against assessments.
type PaymentService struct {
	DB *gorm.DB

	// TierByProduct maps a product/price identifier to the tier it
	// unlocks. Unmapped products default to DefaultTier.
	TierByProduct map[string]domain.Tier
	// DefaultTier is used when the product id has no mapping (tier2 when
	// zero).
	DefaultTier domain.Tier

	// Mailer receives the fire-and-forget payment receipt.
	Mailer notify.Mailer
}

// Reconcile processes one authenticated payment event.
//
// Results:
//   - (OutcomeOK, nil): first delivery, ledger entry written, tier upgraded.
//   - (OutcomeIgnored, nil): replay or irrelevant event type; no new state,
//     but the tier upgrade was still re-attempted for replays.
//   - ErrInvalidInput: required event fields are missing.
//   - ErrAssessmentNotFound: the event references an unknown assessment; the
//     event is rejected and no ledger entry is written.
func (s *PaymentService) Reconcile(ctx context.Context, evt PaymentEvent) (Outcome, error) {
	tr := otel.Tracer("services/PaymentService")
	ctx, span := tr.Start(ctx, "Reconcile",
		trace.WithAttributes(
			attribute.String("payment.session_id", evt.SessionID),
			attribute.String("assessment.id", evt.AssessmentID),
			attribute.String("payment.event_type", evt.EventType),
		),
	)
	defer span.End()

	if strings.TrimSpace(evt.SessionID) == "" || strings.TrimSpace(evt.AssessmentID) == "" {
		return "", ErrInvalidInput
	}
	if evt.EventType != completedEventType {
		log.Debug().Str("event_type", evt.EventType).Msg("unhandled payment event type")
		return OutcomeIgnored, nil
	}

	// Reject events for assessments we do not know (fail safe): a ledger
	// entry must never reference a phantom record.
	if _, err := repo.GetAssessment(ctx, s.DB, evt.AssessmentID); err != nil {
		if repo.IsNotFound(err) {
			return "", ErrAssessmentNotFound
		}
		return "", err
	}

	tier := s.tierFor(evt.ProductID)
	if !tier.Valid() {
		return "", ErrInvalidTier
	}

	outcome := OutcomeOK
	_, err := repo.CreatePayment(ctx, s.DB, evt.SessionID, evt.AssessmentID, evt.Amount, evt.Currency)
	switch {
	case errors.Is(err, repo.ErrDuplicate):
		// Already processed. Fall through to the upgrade anyway so a crash
		// between ledger append and upgrade heals on replay.
		outcome = OutcomeIgnored
	case err != nil:
		return "", err
	}

	if err := repo.UpgradeTier(ctx, s.DB, evt.AssessmentID, tier, time.Now()); err != nil {
		if repo.IsNotFound(err) {
			return "", ErrAssessmentNotFound
		}
		return "", err
	}

	if outcome == OutcomeOK && s.Mailer != nil {
		if err := s.Mailer.SendPaymentReceipt(ctx, evt.AssessmentID, evt.SessionID); err != nil {
			log.Warn().Err(err).Str("session_id", evt.SessionID).Msg("payment receipt email failed")
		}
	}

	paymentEventsTotal.WithLabelValues(string(outcome)).Inc()
	span.SetAttributes(attribute.String("payment.outcome", string(outcome)))
	return outcome, nil
}

func (s *PaymentService) tierFor(productID string) domain.Tier {
	if t, ok := s.TierByProduct[productID]; ok {
		return t
	}
	if s.DefaultTier.Valid() {
		return s.DefaultTier
	}
	return domain.Tier2
}
