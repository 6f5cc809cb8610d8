package payments

import (
	"github.com/google/uuid"
)

// InitializeInput is the client request to start a checkout.
type InitializeInput struct {
	PropertyID      uuid.UUID `json:"property_id" validate:"required"`
	TransactionType string    `json:"transaction_type" validate:"required,oneof=SUBSCRIPTION VISIT"`
	Plan            string    `json:"plan,omitempty"`
	ScheduledDate   string    `json:"scheduled_date,omitempty"`
	Instructions    string    `json:"instructions,omitempty"`
}

type InitializeResult struct {
	AuthorizationURL string `json:"authorization_url"`
	Reference        string `json:"reference"`
	AmountKobo       int64  `json:"amount_kobo"`
	Currency         string `json:"currency"`
}
