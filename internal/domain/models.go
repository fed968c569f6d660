// Package domain defines the persistence models for assessments, public
// access tokens, and payments. These types are mapped with GORM and form
// the core data layer of the assessment backend.
package domain

import "time"

// Status is the lifecycle state of an assessment. The only legal transitions
// are processing → completed and processing → error; both targets are
// terminal.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Terminal reports whether s is a terminal state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Answers is the immutable snapshot of the submitted questionnaire,
// stored as a JSON column.
type Answers map[string]string

// Breakdown holds the four category sub-scores.
type Breakdown struct {
	Site         int `json:"site"`
	Permitting   int `json:"permitting"`
	Architecture int `json:"architecture"`
	Resources    int `json:"resources"`
}

// Score is the derived score record for an assessment: per-category
// breakdown, their sum, and the label for the total-score band.
type Score struct {
	Total     int       `json:"total"`
	Breakdown Breakdown `json:"breakdown"`
	Category  string    `json:"category"`
}

// ReportSnapshot carries the headline numbers of a generated report.
type ReportSnapshot struct {
	EstimatedCost      string `json:"estimated_cost"`
	EstimatedTimeline  string `json:"estimated_timeline"`
	PermitDifficulty   string `json:"permit_difficulty"`
	ReturnOnInvestment string `json:"return_on_investment"`
}

// Report is the enrichment output attached to a completed assessment.
type Report struct {
	KeyFindings []string       `json:"key_findings"`
	Snapshot    ReportSnapshot `json:"project_snapshot"`
}

// Assessment is the central record representing one questionnaire
// submission and its derived score and report.
//
// Fields:
//   - ID: stable UUID primary key (char(36)), immutable.
//   - UserID: optional owner reference; nil for anonymous submissions.
//   - Answers: raw submitted answers, never mutated after creation.
//   - Score: derived score record (JSON column).
//   - Status: state machine per Status; Report is present iff completed.
//   - Tier: access level (int-backed enum); never downgrades.
//   - Report / ErrorDetail: set exactly once by the enrichment worker.
//   - ProcessedAt: set when the record reaches a terminal status.
//   - PaidAt: set by the payment reconciler alongside a tier upgrade.
type Assessment struct {
	ID          string     `json:"id"           gorm:"type:char(36);primaryKey"`
	UserID      *string    `json:"user_id,omitempty" gorm:"type:varchar(64);index:idx_user_assessments"`
	Answers     Answers    `json:"answers"      gorm:"serializer:json;type:text;not null"`
	Score       Score      `json:"score"        gorm:"serializer:json;type:text;not null"`
	Status      Status     `json:"status"       gorm:"type:varchar(16);not null;check:status IN ('processing','completed','error')"`
	Tier        Tier       `json:"tier"         gorm:"type:smallint;not null;default:1"`
	Report      *Report    `json:"report,omitempty" gorm:"serializer:json;type:text"`
	ErrorDetail string     `json:"error_detail,omitempty" gorm:"type:text"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
}

// TableName returns the database table name for Assessment.
func (Assessment) TableName() string { return "assessments" }

// PublicToken is a time-bounded capability granting anonymous read access
// to one assessment. The token string itself is the primary key. Tokens are
// created atomically with their assessment, never updated, and bulk-deleted
// by the sweeper once expired. Expiry is logical at read time: a token past
// ExpiresAt must not resolve even if the sweeper has not removed it yet.
type PublicToken struct {
	Token        string    `json:"token"         gorm:"type:varchar(64);primaryKey"`
	AssessmentID string    `json:"assessment_id" gorm:"type:char(36);not null;index"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"    gorm:"not null;index"`
}

// TableName returns the database table name for PublicToken.
func (PublicToken) TableName() string { return "public_tokens" }

// Payment is an append-only ledger entry for one confirmed checkout
// session. SessionID is the external payment-session identifier and doubles
// as the idempotency key: the primary-key constraint is what makes replayed
// webhook deliveries collapse into a single record.
type Payment struct {
	SessionID    string    `json:"session_id"    gorm:"type:varchar(128);primaryKey"`
	AssessmentID string    `json:"assessment_id" gorm:"type:char(36);not null;index"`
	Amount       int64     `json:"amount"        gorm:"not null"`
	Currency     string    `json:"currency"      gorm:"type:varchar(8);not null"`
	Status       string    `json:"status"        gorm:"type:varchar(16);not null"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName returns the database table name for Payment.
func (Payment) TableName() string { return "payments" }
