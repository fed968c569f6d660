// Package webhookauth authenticates inbound payment webhooks. Deliveries
// carry a Unix-seconds timestamp header and a hex HMAC-SHA256 signature of
// "<timestamp>.<raw body>"; the timestamp bounds replay of captured
// deliveries.
package webhookauth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Header names the payment provider attaches to every delivery.
const (
	HeaderTimestamp = "X-Webhook-Timestamp"
	HeaderSignature = "X-Webhook-Signature"
)

var (
	ErrBadTimestamp  = errors.New("webhookauth: malformed timestamp")
	ErrStaleDelivery = errors.New("webhookauth: timestamp outside tolerance")
	ErrBadSignature  = errors.New("webhookauth: signature mismatch")
)

// DefaultTolerance is how far a delivery timestamp may drift from server
// time in either direction.
const DefaultTolerance = 5 * time.Minute

// Verifier checks delivery signatures against a shared secret.
type Verifier struct {
	Secret    string
	Tolerance time.Duration // zero means DefaultTolerance
}

// Verify authenticates one delivery. timestamp and signature are the raw
// header values; body is the unmodified request payload.
func (v Verifier) Verify(timestamp, signature string, body []byte, now time.Time) error {
	ts := strings.TrimSpace(timestamp)
	sig := strings.TrimSpace(signature)

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ErrBadTimestamp
	}

	tol := v.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	drift := now.UTC().Sub(time.Unix(unix, 0).UTC())
	if drift > tol || drift < -tol {
		return ErrStaleDelivery
	}

	got, err := hex.DecodeString(sig)
	if err != nil {
		return ErrBadSignature
	}
	if !hmac.Equal(got, digest(v.Secret, ts, body)) {
		return ErrBadSignature
	}
	return nil
}

// SignHex returns the hex signature a sender would attach for the given
// timestamp header and body. Used by tests and local tooling.
func SignHex(secret, timestamp string, body []byte) string {
	return hex.EncodeToString(digest(secret, timestamp, body))
}

func digest(secret, timestamp string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte{'.'})
	mac.Write(body)
	return mac.Sum(nil)
}
