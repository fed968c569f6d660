// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// PublicToken model: creation alongside an assessment, expiry-aware lookup,
// and the bulk sweep of expired rows.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/adulab/go-assessment-backend/internal/domain"
)

// ErrDuplicate indicates a write collided with an existing primary key
// (token string or payment session id).
var ErrDuplicate = errors.New("duplicate")

// CreateToken inserts a public-access token for an assessment with the given
// lifetime. It is meant to run inside the same transaction as
// CreateAssessment so the pair commits or rolls back as one unit. A token
// collision surfaces as ErrDuplicate; callers regenerate and retry.
func CreateToken(ctx context.Context, db *gorm.DB, tok, assessmentID string, ttl time.Duration) (*domain.PublicToken, error) {
	now := time.Now().UTC()
	rec := &domain.PublicToken{
		Token:        tok,
		AssessmentID: assessmentID,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// ResolveToken returns the token record when it exists and has not logically
// expired as of now. Expired-but-unswept tokens return ErrNotFound: logical
// expiry is checked at read time, independent of physical sweep timing.
func ResolveToken(ctx context.Context, db *gorm.DB, tok string, now time.Time) (*domain.PublicToken, error) {
	if strings.TrimSpace(tok) == "" {
		return nil, ErrNotFound
	}
	var rec domain.PublicToken
	err := db.WithContext(ctx).
		Where("token = ? AND expires_at > ?", tok, now.UTC()).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// SweepExpiredTokens bulk-deletes tokens whose expiry is strictly before now
// and returns the number of rows removed. Safe to run concurrently with
// creation and resolution: it only removes rows ResolveToken already refuses.
func SweepExpiredTokens(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("expires_at < ?", now.UTC()).
		Delete(&domain.PublicToken{})
	return res.RowsAffected, res.Error
}

// isUniqueViolation detects primary-key/unique-index conflicts.
// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}
