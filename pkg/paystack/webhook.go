package paystack

import (
	"encoding/json"
	"fmt"

	"github.com/propscout/propscout-backend/pkg/security"
)

// VerifySignature checks the webhook signature header against body.
func VerifySignature(body []byte, secret, signature string) bool {
	return security.VerifySHA512(body, secret, signature)
}

// Sign computes the header value the gateway would send for body.
func Sign(body []byte, secret string) string {
	return security.SignSHA512(body, secret)
}

// ParseEvent decodes a webhook body that already passed signature checks.
func ParseEvent(body []byte) (*Event, error) {
	var evt Event
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, fmt.Errorf("decode paystack event: %w", err)
	}
	if evt.Event == "" {
		return nil, fmt.Errorf("paystack event name missing")
	}
	return &evt, nil
}
