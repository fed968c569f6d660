// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Assessment
// model and its status/tier state machine.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only persistence
// and the conditional updates that make per-assessment writes linearizable.
//
// State-machine semantics:
//   - MarkCompleted / MarkError only touch rows still in 'processing'; a
//     terminal row is left untouched and the call reports a no-op success,
//     so worker retries can never corrupt a finished record.
//   - UpgradeTier only applies strictly-higher tiers (tier < new), which
//     makes duplicate payment deliveries and out-of-order upgrades safe.
//
// Both guards are single conditional UPDATE statements keyed by the
// assessment id, with no read-modify-write and no global lock.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/adulab/go-assessment-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateAssessment inserts a new Assessment row in 'processing' status at
// tier1. The caller supplies the id (UUID) and the immutable answers/score
// snapshot; CreatedAt is set to UTC here.
func CreateAssessment(ctx context.Context, db *gorm.DB, id string, userID *string, answers domain.Answers, sc domain.Score) (*domain.Assessment, error) {
	a := &domain.Assessment{
		ID:        id,
		UserID:    userID,
		Answers:   answers,
		Score:     sc,
		Status:    domain.StatusProcessing,
		Tier:      domain.Tier1,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

// GetAssessment fetches a single assessment by id, or ErrNotFound.
func GetAssessment(ctx context.Context, db *gorm.DB, id string) (*domain.Assessment, error) {
	var a domain.Assessment
	err := db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// MarkCompleted transitions an assessment from 'processing' to 'completed',
// attaching the report and the processed timestamp. If the row is already
// terminal the call is a no-op success; if the row does not exist it
// returns ErrNotFound.
func MarkCompleted(ctx context.Context, db *gorm.DB, id string, report *domain.Report) error {
	// Map-based Updates skip GORM's field serializer, so the report column
	// is marshaled here.
	buf, err := json.Marshal(report)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.Assessment{}).
		Where("id = ? AND status = ?", id, domain.StatusProcessing).
		Updates(map[string]any{
			"status":       domain.StatusCompleted,
			"report":       string(buf),
			"processed_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ensureExists(ctx, db, id)
	}
	return nil
}

// MarkError transitions an assessment from 'processing' to 'error' with a
// human-readable cause. Same idempotency rule as MarkCompleted.
func MarkError(ctx context.Context, db *gorm.DB, id, detail string) error {
	now := time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.Assessment{}).
		Where("id = ? AND status = ?", id, domain.StatusProcessing).
		Updates(map[string]any{
			"status":       domain.StatusError,
			"error_detail": detail,
			"processed_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ensureExists(ctx, db, id)
	}
	return nil
}

// UpgradeTier sets the tier and paid timestamp only when newTier is strictly
// higher than the stored tier. Equal or lower tiers are no-op successes, so
// the operation is safe under duplicate webhook delivery. A missing row
// returns ErrNotFound.
func UpgradeTier(ctx context.Context, db *gorm.DB, id string, newTier domain.Tier, paidAt time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Assessment{}).
		Where("id = ? AND tier < ?", id, newTier).
		Updates(map[string]any{
			"tier":    newTier,
			"paid_at": paidAt.UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ensureExists(ctx, db, id)
	}
	return nil
}

// ensureExists distinguishes "guard declined" from "row missing" after a
// conditional update touched zero rows.
func ensureExists(ctx context.Context, db *gorm.DB, id string) error {
	var n int64
	if err := db.WithContext(ctx).
		Model(&domain.Assessment{}).
		Where("id = ?", id).
		Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// IsNotFound reports whether err is the repository not-found sentinel.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
