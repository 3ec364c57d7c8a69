package payment

import (
	"time"

	"github.com/stripe/stripe-go/v76/webhook"
)

// SignPayload builds a Stripe-Signature header for payload, as the provider would when
// delivering a webhook signed with secret at time ts. Used for local tooling and tests.
func SignPayload(payload []byte, secret string, ts time.Time) string {
	if ts.IsZero() {
		ts = time.Now()
	}
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: ts,
	})
	return signed.Header
}
