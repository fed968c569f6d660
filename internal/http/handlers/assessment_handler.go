// Assessment HTTP handlers.
//
// This file exposes REST endpoints for the assessment lifecycle:
//   - POST /assessments                  (submit answers, start enrichment)
//   - GET  /assessments/{id}             (full record, owner view)
//   - GET  /public/assessments/{token}   (public-safe view via share token)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/adulab/go-assessment-backend/internal/domain"
	"github.com/adulab/go-assessment-backend/internal/http/webhookauth"
	"github.com/adulab/go-assessment-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// AssessmentService defines the lifecycle operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AssessmentService interface {
	// Intake validates and stores a submission, returning the created
	// record and its public token.
	Intake(ctx context.Context, userID *string, answers domain.Answers, submittedAt time.Time) (*services.IntakeResult, error)
	// Read returns the full assessment by id.
	Read(ctx context.Context, id string) (*domain.Assessment, error)
	// Resolve returns the assessment referenced by a live public token.
	Resolve(ctx context.Context, token string) (*domain.Assessment, error)
}

// PaymentService defines the reconciliation operation for authenticated
// payment events.
type PaymentService interface {
	// Reconcile applies one payment event exactly once.
	Reconcile(ctx context.Context, evt services.PaymentEvent) (services.Outcome, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for assessments and payment webhooks.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	assessSvc AssessmentService
	paySvc    PaymentService
	verifier  webhookauth.Verifier
}

// New constructs a Handlers instance bound to the given services and webhook
// verifier.
func New(assessSvc AssessmentService, paySvc PaymentService, verifier webhookauth.Verifier) *Handlers {
	return &Handlers{assessSvc: assessSvc, paySvc: paySvc, verifier: verifier}
}

// userID extracts an optional authenticated user id from Gin context (set by
// upstream middleware), falling back to the "X-User-ID" header. Submissions
// without either stay anonymous: the return is nil, not a placeholder.
func userID(c *gin.Context) *string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return &s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return &h
		}
	}
	return nil
}

//
// DTOs
//

// CreateAssessmentRequest is the JSON payload for submitting answers.
type CreateAssessmentRequest struct {
	// Answers maps question keys to the selected answer values.
	Answers map[string]string `json:"answers" binding:"required"`
	// SubmittedAt optionally records the client-side submission time
	// (RFC 3339); server-side timestamps remain authoritative.
	SubmittedAt time.Time `json:"submitted_at"`
}

// CreateAssessmentResponse returns the created record's identifiers and the
// immediately available score. The detailed report follows asynchronously.
type CreateAssessmentResponse struct {
	AssessmentID string       `json:"assessment_id"`
	Token        string       `json:"token"`
	Status       string       `json:"status"`
	Score        domain.Score `json:"score"`
}

// PublicAssessmentResponse is the share-link view of an assessment. It omits
// the owner id and the raw answers.
type PublicAssessmentResponse struct {
	AssessmentID string         `json:"assessment_id"`
	Status       domain.Status  `json:"status"`
	Tier         domain.Tier    `json:"tier"`
	Score        domain.Score   `json:"score"`
	Report       *domain.Report `json:"report,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

//
// Handlers
//

// CreateAssessment godoc
// @ID          createAssessment
// @Summary     Submit an assessment
// @Description Scores the submitted answers, stores the assessment with a public share token, and starts report enrichment in the background.
// @Tags        Assessments
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "Optional owner id"  example(user123)
// @Param       body       body    handlers.CreateAssessmentRequest  true  "Submission payload"
//
// @Success     201  {object}  handlers.CreateAssessmentResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /assessments [post]
func (h *Handlers) CreateAssessment(c *gin.Context) {
	var req CreateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	submittedAt := req.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now().UTC()
	}

	res, err := h.assessSvc.Intake(c.Request.Context(), userID(c), req.Answers, submittedAt)
	if err != nil {
		switch err {
		case services.ErrInvalidInput:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "answers required")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeIntakeFailed, err.Error())
		}
		return
	}

	ok(c, http.StatusCreated, CreateAssessmentResponse{
		AssessmentID: res.Assessment.ID,
		Token:        res.Token.Token,
		Status:       string(res.Assessment.Status),
		Score:        res.Assessment.Score,
	})
}

// GetAssessment godoc
// @ID          getAssessment
// @Summary     Fetch an assessment
// @Description Returns the full assessment record, including answers and enrichment state.
// @Tags        Assessments
// @Produce     json
//
// @Param       id  path  string  true  "Assessment ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.Assessment
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Assessment not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /assessments/{id} [get]
func (h *Handlers) GetAssessment(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "assessment id must be a UUID")
		return
	}

	a, err := h.assessSvc.Read(c.Request.Context(), id)
	if err != nil {
		switch err {
		case services.ErrAssessmentNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "assessment not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, a)
}

// ResolveAssessment godoc
// @ID          resolveAssessment
// @Summary     Fetch an assessment by public token
// @Description Returns the public-safe view of the assessment a share token points to. Expired tokens behave exactly like unknown ones.
// @Tags        Assessments
// @Produce     json
//
// @Param       token  path  string  true  "Public share token"  example(k3x9q2m7ab1z)
//
// @Success     200  {object}  handlers.PublicAssessmentResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Token unknown or expired"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /public/assessments/{token} [get]
func (h *Handlers) ResolveAssessment(c *gin.Context) {
	tok := strings.TrimSpace(c.Param("token"))

	a, err := h.assessSvc.Resolve(c.Request.Context(), tok)
	if err != nil {
		switch err {
		case services.ErrTokenNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "token not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, PublicAssessmentResponse{
		AssessmentID: a.ID,
		Status:       a.Status,
		Tier:         a.Tier,
		Score:        a.Score,
		Report:       a.Report,
		CreatedAt:    a.CreatedAt,
	})
}
