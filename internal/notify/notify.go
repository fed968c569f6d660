// Package notify holds the outbound side-effect clients: CRM contact sync
// and email notification. Both are explicitly non-critical: failures are
// logged and swallowed, never surfaced to callers and never retried by this
// core. The default implementations only log; real clients are injected by
// the host process.
package notify

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/adulab/go-assessment-backend/internal/domain"
)

// CRM syncs a submitted questionnaire into the sales CRM as a lead contact.
type CRM interface {
	CreateContact(ctx context.Context, answers domain.Answers) error
}

// Mailer sends lifecycle notifications for an assessment.
type Mailer interface {
	// SendAssessmentReady notifies that enrichment completed.
	SendAssessmentReady(ctx context.Context, assessmentID string) error
	// SendPaymentReceipt confirms a tier-upgrading payment.
	SendPaymentReceipt(ctx context.Context, assessmentID, sessionID string) error
}

// LogCRM is the no-op CRM used in development and tests. It records the
// would-be contact and reports success.
type LogCRM struct{}

// CreateContact logs the contact payload and returns nil.
func (LogCRM) CreateContact(_ context.Context, answers domain.Answers) error {
	log.Info().
		Str("primary_use", answers["primary_use"]).
		Str("lot_size", answers["lot_size"]).
		Str("budget_range", answers["budget_range"]).
		Msg("crm contact creation placeholder")
	return nil
}

// LogMailer is the no-op Mailer used in development and tests.
type LogMailer struct{}

// SendAssessmentReady logs the notification and returns nil.
func (LogMailer) SendAssessmentReady(_ context.Context, assessmentID string) error {
	log.Info().Str("assessment_id", assessmentID).Msg("would send assessment-ready email")
	return nil
}

// SendPaymentReceipt logs the notification and returns nil.
func (LogMailer) SendPaymentReceipt(_ context.Context, assessmentID, sessionID string) error {
	log.Info().
		Str("assessment_id", assessmentID).
		Str("session_id", sessionID).
		Msg("would send payment receipt email")
	return nil
}
