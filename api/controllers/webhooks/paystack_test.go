package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/propscout/propscout-backend/pkg/errors"
	"github.com/propscout/propscout-backend/pkg/paystack"
)

type fakePaystackService struct {
	calls     int
	body      []byte
	signature string
	outcome   string
	err       error
}

func (f *fakePaystackService) HandleDelivery(_ context.Context, body []byte, signature string) (string, error) {
	f.calls++
	f.body = body
	f.signature = signature
	return f.outcome, f.err
}

func TestPaystackWebhookPassesRawBodyAndSignature(t *testing.T) {
	svc := &fakePaystackService{outcome: "processed"}
	payload := []byte(`{"event":"charge.success","data":{"reference":"ps_1"}}`)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(payload))
	req.Header.Set(paystack.SignatureHeader, "abc123")
	rec := httptest.NewRecorder()
	PaystackWebhook(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if !bytes.Equal(svc.body, payload) {
		t.Fatalf("body was altered before verification: %s", svc.body)
	}
	if svc.signature != "abc123" {
		t.Fatalf("unexpected signature %q", svc.signature)
	}

	var envelope struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Status != "processed" {
		t.Fatalf("unexpected status %q", envelope.Data.Status)
	}
}

func TestPaystackWebhookMissingSignature(t *testing.T) {
	svc := &fakePaystackService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	PaystackWebhook(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if svc.calls != 0 {
		t.Fatalf("service should not run without a signature")
	}
}

func TestPaystackWebhookInvalidSignature(t *testing.T) {
	svc := &fakePaystackService{outcome: "invalid_signature", err: pkgerrors.New(pkgerrors.CodeValidation, "invalid webhook signature")}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader([]byte(`{}`)))
	req.Header.Set(paystack.SignatureHeader, "bad")
	rec := httptest.NewRecorder()
	PaystackWebhook(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPaystackWebhookProcessingFailure(t *testing.T) {
	svc := &fakePaystackService{outcome: "failed", err: pkgerrors.New(pkgerrors.CodeInternal, "db down")}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader([]byte(`{}`)))
	req.Header.Set(paystack.SignatureHeader, "sig")
	rec := httptest.NewRecorder()
	PaystackWebhook(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 so the gateway retries, got %d", rec.Code)
	}
}
