// Payment webhook handler.
//
// This file exposes the inbound payment endpoint:
//   - POST /webhooks/payment
//
// Every delivery is authenticated against the shared webhook secret before
// the payload is even decoded: the HMAC covers the raw body, so reading and
// verifying must happen before binding. Replays of already-processed
// sessions are acknowledged with the same 200 envelope as first deliveries,
// which is what keeps the provider from retrying forever.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adulab/go-assessment-backend/internal/http/middleware"
	"github.com/adulab/go-assessment-backend/internal/http/webhookauth"
	"github.com/adulab/go-assessment-backend/internal/services"
)

// PaymentWebhookRequest is the decoded payment event payload.
type PaymentWebhookRequest struct {
	EventType    string `json:"event_type" example:"checkout.session.completed"`
	SessionID    string `json:"session_id" example:"cs_a1b2c3"`
	AssessmentID string `json:"assessment_id" format:"uuid"`
	ProductID    string `json:"product_id" example:"price_premium"`
	Amount       int64  `json:"amount" example:"49900"`
	Currency     string `json:"currency" example:"usd"`
}

// PaymentWebhookResponse acknowledges a delivery.
type PaymentWebhookResponse struct {
	Received bool `json:"received" example:"true"`
}

// HandlePaymentWebhook godoc
// @ID          paymentWebhook
// @Summary     Receive a payment event
// @Description Verifies the delivery signature, then reconciles the event: first delivery upgrades the assessment tier, replays are acknowledged without new state.
// @Tags        Payments
// @Accept      json
// @Produce     json
//
// @Param       X-Webhook-Timestamp  header  string  true  "Unix seconds the delivery was signed"  example(1756720800)
// @Param       X-Webhook-Signature  header  string  true  "Hex HMAC-SHA256 of timestamp.body"
// @Param       body                 body    handlers.PaymentWebhookRequest  true  "Payment event"
//
// @Success     200  {object}  handlers.PaymentWebhookResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad signature or payload"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown assessment"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /webhooks/payment [post]
func (h *Handlers) HandlePaymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unreadable request body")
		return
	}

	if err := h.verifier.Verify(
		c.GetHeader(webhookauth.HeaderTimestamp),
		c.GetHeader(webhookauth.HeaderSignature),
		body,
		time.Now(),
	); err != nil {
		// Security event: a failed signature is either misconfiguration or
		// someone probing the endpoint.
		middleware.LoggerFrom(c).Warn().
			Err(err).
			Str("remote_ip", c.ClientIP()).
			Msg("webhook signature verification failed")
		fail(c, http.StatusBadRequest, ErrCodeInvalidSignature, "webhook signature verification failed")
		return
	}

	var req PaymentWebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	_, err = h.paySvc.Reconcile(c.Request.Context(), services.PaymentEvent{
		EventType:    req.EventType,
		SessionID:    req.SessionID,
		AssessmentID: req.AssessmentID,
		ProductID:    req.ProductID,
		Amount:       req.Amount,
		Currency:     req.Currency,
	})
	if err != nil {
		switch err {
		case services.ErrInvalidInput:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session_id and assessment_id required")
		case services.ErrAssessmentNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "assessment not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeReconcileFailed, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, PaymentWebhookResponse{Received: true})
}
