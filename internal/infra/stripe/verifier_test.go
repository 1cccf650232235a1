package stripe

import (
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"payment-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v79/webhook"
)

const testSecret = "whsec_test_secret"

func signedHeader(t *testing.T, payload []byte, secret string) string {
	t.Helper()
	now := time.Now()
	sig := webhook.ComputeSignature(now, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(sig))
}

func completedPayload(orderID string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_1",
		"api_version": "2024-06-20",
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_test_1",
				"object": "checkout.session",
				"amount_total": 2500,
				"payment_intent": "pi_123",
				"metadata": {"order_id": %q}
			}
		}
	}`, orderID))
}

func TestWebhookVerifier_VerifyAndParse(t *testing.T) {
	v := NewWebhookVerifier(testSecret)

	t.Run("valid completed event", func(t *testing.T) {
		payload := completedPayload("42")
		event, err := v.VerifyAndParse(payload, signedHeader(t, payload, testSecret))
		assert.NoError(t, err)

		completed, ok := event.(domain.CheckoutCompleted)
		assert.True(t, ok)
		assert.Equal(t, uint64(42), completed.OrderID)
		assert.Equal(t, "pi_123", completed.TransactionID)
		assert.Equal(t, int64(2500), completed.AmountCents)
	})

	t.Run("tampered body fails the signature check", func(t *testing.T) {
		payload := completedPayload("42")
		header := signedHeader(t, payload, testSecret)

		tampered := completedPayload("43")
		event, err := v.VerifyAndParse(tampered, header)
		assert.Nil(t, event)
		assert.ErrorIs(t, err, domain.ErrSignatureMismatch)
	})

	t.Run("wrong secret fails the signature check", func(t *testing.T) {
		payload := completedPayload("42")
		event, err := v.VerifyAndParse(payload, signedHeader(t, payload, "whsec_other"))
		assert.Nil(t, event)
		assert.ErrorIs(t, err, domain.ErrSignatureMismatch)
	})

	t.Run("garbage signature header rejected", func(t *testing.T) {
		payload := completedPayload("42")
		event, err := v.VerifyAndParse(payload, "not-a-signature")
		assert.Nil(t, event)
		assert.ErrorIs(t, err, domain.ErrSignatureMismatch)
	})

	t.Run("unparseable body with a valid signature is an invalid payload", func(t *testing.T) {
		payload := []byte("{not json")
		event, err := v.VerifyAndParse(payload, signedHeader(t, payload, testSecret))
		assert.Nil(t, event)
		assert.ErrorIs(t, err, domain.ErrInvalidPayload)
	})

	t.Run("missing order_id metadata is an invalid payload", func(t *testing.T) {
		payload := []byte(`{
			"id": "evt_2",
			"api_version": "2024-06-20",
			"type": "checkout.session.completed",
			"data": {"object": {"id": "cs_test_2", "object": "checkout.session", "metadata": {}}}
		}`)
		event, err := v.VerifyAndParse(payload, signedHeader(t, payload, testSecret))
		assert.Nil(t, event)
		assert.ErrorIs(t, err, domain.ErrInvalidPayload)
	})

	t.Run("unhandled event types are accepted and ignored", func(t *testing.T) {
		payload := []byte(`{
			"id": "evt_3",
			"api_version": "2024-06-20",
			"type": "invoice.paid",
			"data": {"object": {"id": "in_1", "object": "invoice"}}
		}`)
		event, err := v.VerifyAndParse(payload, signedHeader(t, payload, testSecret))
		assert.NoError(t, err)

		ignored, ok := event.(domain.IgnoredEvent)
		assert.True(t, ok)
		assert.Equal(t, "invoice.paid", ignored.Type)
	})
}
