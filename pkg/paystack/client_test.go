package paystack

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/propscout/propscout-backend/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(config.PaystackConfig{SecretKey: "sk_test_abc", BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestInitializeTransaction(t *testing.T) {
	var got InitializeRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/transaction/initialize" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk_test_abc" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = w.Write([]byte(`{"status":true,"message":"Authorization URL created","data":{"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"ps_1"}}`))
	})

	res, err := client.InitializeTransaction(context.Background(), InitializeRequest{
		Email:      "client@example.com",
		AmountKobo: 750000,
		Reference:  "ps_1",
		Metadata:   Metadata{TransactionType: "VISIT", PropertyID: "p1", ScheduledDate: "2025-01-01"},
	})
	if err != nil {
		t.Fatalf("InitializeTransaction: %v", err)
	}
	if res.AuthorizationURL != "https://checkout.paystack.com/abc" || res.Reference != "ps_1" {
		t.Fatalf("unexpected result %+v", res)
	}
	if got.AmountKobo != 750000 || got.Metadata.TransactionType != "VISIT" || got.Metadata.ScheduledDate != "2025-01-01" {
		t.Fatalf("request not forwarded intact: %+v", got)
	}
}

func TestInitializeTransactionGatewayError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status":false,"message":"Invalid key"}`))
	})

	_, err := client.InitializeTransaction(context.Background(), InitializeRequest{Email: "a@b.c", AmountKobo: 100, Reference: "r"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized || apiErr.Message != "Invalid key" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
}

func TestInitializeTransactionValidatesInput(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("gateway should not be called")
	})
	if _, err := client.InitializeTransaction(context.Background(), InitializeRequest{Email: "a@b.c", Reference: "r"}); err == nil {
		t.Fatal("expected error for zero amount")
	}
}

func TestVerifyTransaction(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/verify/ps_9" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"status":true,"message":"ok","data":{"reference":"ps_9","status":"success","amount":500,"metadata":""}}`))
	})

	tx, err := client.VerifyTransaction(context.Background(), "ps_9")
	if err != nil {
		t.Fatalf("VerifyTransaction: %v", err)
	}
	if tx.Status != "success" || tx.AmountKobo != 500 {
		t.Fatalf("unexpected transaction %+v", tx)
	}
}

func TestNewClientRequiresSecret(t *testing.T) {
	if _, err := NewClient(config.PaystackConfig{}); err == nil {
		t.Fatal("expected error without secret key")
	}
}
