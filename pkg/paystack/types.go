package paystack

import (
	"bytes"
	"encoding/json"
)

// EventChargeSuccess is the only webhook event that mutates state.
const EventChargeSuccess = "charge.success"

// SignatureHeader carries the hex HMAC-SHA512 of the raw webhook body.
const SignatureHeader = "x-paystack-signature"

// Metadata travels with a transaction from initialization to the webhook.
type Metadata struct {
	TransactionType string `json:"transaction_type,omitempty"`
	PropertyID      string `json:"property_id,omitempty"`
	UserID          string `json:"user_id,omitempty"`
	Plan            string `json:"plan,omitempty"`
	ScheduledDate   string `json:"scheduled_date,omitempty"`
	Instructions    string `json:"instructions,omitempty"`
}

// UnmarshalJSON accepts both an object and the JSON-encoded string form the
// gateway echoes back for some integrations.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return err
		}
		if inner == "" {
			return nil
		}
		data = []byte(inner)
	}
	type alias Metadata
	var out alias
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*m = Metadata(out)
	return nil
}

type InitializeRequest struct {
	Email       string   `json:"email"`
	AmountKobo  int64    `json:"amount"`
	Currency    string   `json:"currency,omitempty"`
	Reference   string   `json:"reference"`
	CallbackURL string   `json:"callback_url,omitempty"`
	Metadata    Metadata `json:"metadata"`
}

type InitializeResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type Transaction struct {
	Reference  string   `json:"reference"`
	Status     string   `json:"status"`
	AmountKobo int64    `json:"amount"`
	Currency   string   `json:"currency"`
	Metadata   Metadata `json:"metadata"`
	Customer   struct {
		Email string `json:"email"`
	} `json:"customer"`
}

// Event is the webhook envelope.
type Event struct {
	Event string      `json:"event"`
	Data  Transaction `json:"data"`
}

type envelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}
