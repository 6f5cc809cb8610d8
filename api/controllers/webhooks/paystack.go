package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/propscout/propscout-backend/api/responses"
	pkgerrors "github.com/propscout/propscout-backend/pkg/errors"
	"github.com/propscout/propscout-backend/pkg/logger"
	"github.com/propscout/propscout-backend/pkg/paystack"
)

// maxPayloadBytes bounds a single webhook body.
const maxPayloadBytes = 1 << 20

type PaystackWebhookService interface {
	HandleDelivery(ctx context.Context, body []byte, signature string) (string, error)
}

// PaystackWebhook verifies and applies gateway notifications. Replays and
// events we do not act on are acknowledged with 200 so the gateway stops
// retrying them.
func PaystackWebhook(svc PaystackWebhookService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		signature := r.Header.Get(paystack.SignatureHeader)
		if signature == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "paystack signature missing"))
			return
		}

		outcome, err := svc.HandleDelivery(ctx, payload, signature)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": outcome})
	}
}
