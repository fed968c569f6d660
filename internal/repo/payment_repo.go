// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the append-only
// Payment ledger. The session id primary key is the idempotency boundary for
// webhook replays: duplicate inserts surface as ErrDuplicate and the caller
// treats the event as already processed.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/adulab/go-assessment-backend/internal/domain"
)

// CreatePayment appends a payment ledger entry keyed by the external
// session id. A replayed session id returns ErrDuplicate; the uniqueness
// constraint lives in the database, so concurrent duplicate deliveries
// cannot both succeed.
func CreatePayment(ctx context.Context, db *gorm.DB, sessionID, assessmentID string, amount int64, currency string) (*domain.Payment, error) {
	rec := &domain.Payment{
		SessionID:    sessionID,
		AssessmentID: assessmentID,
		Amount:       amount,
		Currency:     currency,
		Status:       "completed",
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// GetPayment fetches a ledger entry by session id, or ErrNotFound.
func GetPayment(ctx context.Context, db *gorm.DB, sessionID string) (*domain.Payment, error) {
	var rec domain.Payment
	err := db.WithContext(ctx).Where("session_id = ?", sessionID).First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CountPayments returns the total number of ledger entries for an
// assessment. Used by tests and operational checks; the reconciler itself
// never needs it.
func CountPayments(ctx context.Context, db *gorm.DB, assessmentID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("assessment_id = ?", assessmentID).
		Count(&n).Error
	return n, err
}
