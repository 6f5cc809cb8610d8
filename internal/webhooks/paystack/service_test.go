package paystackwebhook

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/propscout/propscout-backend/internal/achievements"
	"github.com/propscout/propscout-backend/internal/activity"
	"github.com/propscout/propscout-backend/internal/earnings"
	"github.com/propscout/propscout-backend/internal/media"
	"github.com/propscout/propscout-backend/internal/properties"
	"github.com/propscout/propscout-backend/internal/subscriptions"
	"github.com/propscout/propscout-backend/internal/visits"
	"github.com/propscout/propscout-backend/pkg/config"
	"github.com/propscout/propscout-backend/pkg/db"
	"github.com/propscout/propscout-backend/pkg/db/dbtest"
	"github.com/propscout/propscout-backend/pkg/db/models"
	"github.com/propscout/propscout-backend/pkg/enums"
	pkgerrors "github.com/propscout/propscout-backend/pkg/errors"
	"github.com/propscout/propscout-backend/pkg/metrics"
	"github.com/propscout/propscout-backend/pkg/paystack"
)

const testSecret = "sk_test_webhook"

type secretVerifier struct{}

func (secretVerifier) VerifySignature(body []byte, signature string) bool {
	return paystack.VerifySignature(body, testSecret, signature)
}

type noopUploader struct{}

func (noopUploader) UploadVisitProof(context.Context, uuid.UUID, media.UploadInput) (*media.StoredObject, error) {
	return nil, errors.New("not used")
}

type memoryStore struct {
	mu   sync.Mutex
	keys map[string]string
	err  error
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = "1"
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.keys, k)
	}
	return nil
}

type fixture struct {
	conn     *gorm.DB
	svc      *Service
	store    *memoryStore
	registry *prometheus.Registry
	owner    models.User
	property models.Property
}

func newFixture(t *testing.T, withGuard bool) *fixture {
	t.Helper()
	conn := dbtest.Open(t)

	recorder, err := activity.NewService(activity.NewRepository(conn))
	require.NoError(t, err)
	earningsSvc, err := earnings.NewService(earnings.NewRepository(conn), config.PricingConfig{ScoutVisitPayout: "5000"})
	require.NoError(t, err)
	achievementsSvc, err := achievements.NewService(achievements.NewRepository(conn))
	require.NoError(t, err)
	visitSvc, err := visits.NewService(visits.ServiceParams{
		Repo:         visits.NewRepository(conn),
		DB:           db.Wrap(conn),
		Properties:   properties.NewRepository(conn),
		Media:        media.NewRepository(conn),
		Uploader:     noopUploader{},
		Earnings:     earningsSvc,
		Achievements: achievementsSvc,
		Activity:     recorder,
		ClaimWindow:  time.Hour,
	})
	require.NoError(t, err)
	subSvc, err := subscriptions.NewService(subscriptions.NewRepository(conn), properties.NewRepository(conn), recorder, 30)
	require.NoError(t, err)

	store := &memoryStore{keys: map[string]string{}}
	var guard *IdempotencyGuard
	if withGuard {
		guard, err = NewIdempotencyGuard(store, time.Hour, "paystack-webhook")
		require.NoError(t, err)
	}

	registry := prometheus.NewRegistry()
	svc, err := NewService(ServiceParams{
		Verifier:          secretVerifier{},
		Events:            NewEventRepository(conn),
		Subscriptions:     subSvc,
		Visits:            visitSvc,
		TransactionRunner: db.Wrap(conn),
		Guard:             guard,
		Metrics:           metrics.NewWebhookMetrics(registry),
	})
	require.NoError(t, err)

	owner := dbtest.CreateUser(t, conn, enums.RoleClient)
	return &fixture{
		conn:     conn,
		svc:      svc,
		store:    store,
		registry: registry,
		owner:    owner,
		property: dbtest.CreateProperty(t, conn, owner.ID),
	}
}

func (f *fixture) payload(t *testing.T, event, reference string, meta paystack.Metadata) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"event": event,
		"data": map[string]any{
			"reference": reference,
			"status":    "success",
			"amount":    750000,
			"currency":  "NGN",
			"metadata":  meta,
		},
	})
	require.NoError(t, err)
	return body
}

func (f *fixture) visitMeta() paystack.Metadata {
	return paystack.Metadata{
		TransactionType: "VISIT",
		PropertyID:      f.property.ID.String(),
		UserID:          f.owner.ID.String(),
		ScheduledDate:   "2025-07-01",
		Instructions:    "photograph the gate",
	}
}

func countRows(t *testing.T, conn *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(model).Count(&n).Error)
	return n
}

func TestInvalidSignatureMutatesNothing(t *testing.T) {
	f := newFixture(t, true)
	body := f.payload(t, paystack.EventChargeSuccess, "ps_sig", f.visitMeta())

	outcome, err := f.svc.HandleDelivery(context.Background(), body, paystack.Sign(body, "wrong-secret"))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.Equal(t, metrics.OutcomeInvalidSignature, outcome)

	assert.Zero(t, countRows(t, f.conn, &models.VisitRequest{}))
	assert.Zero(t, countRows(t, f.conn, &models.PaymentWebhookEvent{}))
	assert.Empty(t, f.store.keys)
}

func TestReplayCreatesExactlyOneVisit(t *testing.T) {
	for _, withGuard := range []bool{true, false} {
		f := newFixture(t, withGuard)
		body := f.payload(t, paystack.EventChargeSuccess, "ps_replay", f.visitMeta())
		sig := paystack.Sign(body, testSecret)

		outcome, err := f.svc.HandleDelivery(context.Background(), body, sig)
		require.NoError(t, err)
		assert.Equal(t, metrics.OutcomeProcessed, outcome)

		for i := 0; i < 3; i++ {
			outcome, err = f.svc.HandleDelivery(context.Background(), body, sig)
			require.NoError(t, err)
			assert.Equal(t, metrics.OutcomeDuplicate, outcome)
		}

		var list []models.VisitRequest
		require.NoError(t, f.conn.Find(&list).Error)
		require.Len(t, list, 1)
		assert.Equal(t, enums.VisitStatusPending, list[0].Status)
		require.NotNil(t, list[0].PaymentReference)
		assert.Equal(t, "ps_replay", *list[0].PaymentReference)
		assert.Equal(t, int64(1), countRows(t, f.conn, &models.PaymentWebhookEvent{}))
	}
}

func TestLegacyPayloadWithScheduledDateIsVisit(t *testing.T) {
	f := newFixture(t, false)
	meta := f.visitMeta()
	meta.TransactionType = ""
	body := f.payload(t, paystack.EventChargeSuccess, "ps_legacy", meta)

	_, err := f.svc.HandleDelivery(context.Background(), body, paystack.Sign(body, testSecret))
	require.NoError(t, err)
	assert.Equal(t, int64(1), countRows(t, f.conn, &models.VisitRequest{}))
}

func TestChargeActivatesSubscription(t *testing.T) {
	f := newFixture(t, true)
	reference := "ps_sub"
	pending := models.Subscription{
		ID:                 uuid.New(),
		PropertyID:         f.property.ID,
		UserID:             f.owner.ID,
		Plan:               enums.SubscriptionPlanBasic,
		Status:             enums.SubscriptionStatusPending,
		AmountKobo:         1500000,
		PaymentReference:   &reference,
		CurrentPeriodStart: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		CurrentPeriodEnd:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, f.conn.Create(&pending).Error)

	body := f.payload(t, paystack.EventChargeSuccess, reference, paystack.Metadata{
		TransactionType: "SUBSCRIPTION",
		PropertyID:      f.property.ID.String(),
		UserID:          f.owner.ID.String(),
		Plan:            "BASIC",
	})
	outcome, err := f.svc.HandleDelivery(context.Background(), body, paystack.Sign(body, testSecret))
	require.NoError(t, err)
	assert.Equal(t, metrics.OutcomeProcessed, outcome)

	var stored models.Subscription
	require.NoError(t, f.conn.First(&stored, "id = ?", pending.ID).Error)
	assert.Equal(t, enums.SubscriptionStatusActive, stored.Status)
	assert.Zero(t, countRows(t, f.conn, &models.VisitRequest{}))
}

func TestOtherEventsAreIgnored(t *testing.T) {
	f := newFixture(t, true)
	body := f.payload(t, "transfer.success", "trf_1", paystack.Metadata{})

	outcome, err := f.svc.HandleDelivery(context.Background(), body, paystack.Sign(body, testSecret))
	require.NoError(t, err)
	assert.Equal(t, metrics.OutcomeIgnored, outcome)
	assert.Zero(t, countRows(t, f.conn, &models.PaymentWebhookEvent{}))
}

func TestUnusableVisitMetadataIsAcknowledged(t *testing.T) {
	cases := map[string]func(*paystack.Metadata){
		"property id":      func(m *paystack.Metadata) { m.PropertyID = "not-a-uuid" },
		"user id":          func(m *paystack.Metadata) { m.UserID = "" },
		"unknown property": func(m *paystack.Metadata) { m.PropertyID = uuid.NewString() },
		"scheduled date":   func(m *paystack.Metadata) { m.ScheduledDate = "01/07/2025" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, true)
			meta := f.visitMeta()
			mutate(&meta)
			body := f.payload(t, paystack.EventChargeSuccess, "ps_bad", meta)
			sig := paystack.Sign(body, testSecret)

			outcome, err := f.svc.HandleDelivery(context.Background(), body, sig)
			require.NoError(t, err)
			assert.Equal(t, metrics.OutcomeFailed, outcome)
			assert.Zero(t, countRows(t, f.conn, &models.VisitRequest{}))
			assert.Equal(t, int64(1), countRows(t, f.conn, &models.PaymentWebhookEvent{}))
			assert.Len(t, f.store.keys, 1)

			f.store.keys = map[string]string{}
			outcome, err = f.svc.HandleDelivery(context.Background(), body, sig)
			require.NoError(t, err)
			assert.Equal(t, metrics.OutcomeDuplicate, outcome)
		})
	}
}

func TestChargeWithoutReferenceIsAcknowledged(t *testing.T) {
	f := newFixture(t, true)
	body := f.payload(t, paystack.EventChargeSuccess, "", f.visitMeta())

	outcome, err := f.svc.HandleDelivery(context.Background(), body, paystack.Sign(body, testSecret))
	require.NoError(t, err)
	assert.Equal(t, metrics.OutcomeFailed, outcome)
	assert.Zero(t, countRows(t, f.conn, &models.PaymentWebhookEvent{}))
}

func TestTransientFailureClearsGuard(t *testing.T) {
	f := newFixture(t, true)
	require.NoError(t, f.conn.Migrator().DropTable(&models.PaymentWebhookEvent{}))
	body := f.payload(t, paystack.EventChargeSuccess, "ps_retry", f.visitMeta())

	outcome, err := f.svc.HandleDelivery(context.Background(), body, paystack.Sign(body, testSecret))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInternal, pkgerrors.CodeOf(err))
	assert.Equal(t, metrics.OutcomeFailed, outcome)
	assert.Empty(t, f.store.keys)
	assert.Zero(t, countRows(t, f.conn, &models.VisitRequest{}))
}

func TestGuardOutageFallsBackToDatabase(t *testing.T) {
	f := newFixture(t, true)
	f.store.err = errors.New("redis down")
	body := f.payload(t, paystack.EventChargeSuccess, "ps_outage", f.visitMeta())
	sig := paystack.Sign(body, testSecret)

	_, err := f.svc.HandleDelivery(context.Background(), body, sig)
	require.NoError(t, err)
	outcome, err := f.svc.HandleDelivery(context.Background(), body, sig)
	require.NoError(t, err)
	assert.Equal(t, metrics.OutcomeDuplicate, outcome)
	assert.Equal(t, int64(1), countRows(t, f.conn, &models.VisitRequest{}))
}

func TestIdempotencyGuard(t *testing.T) {
	_, err := NewIdempotencyGuard(nil, time.Minute, "scope")
	require.Error(t, err)

	store := &memoryStore{keys: map[string]string{}}
	guard, err := NewIdempotencyGuard(store, time.Minute, "scope")
	require.NoError(t, err)

	seen, err := guard.CheckAndMark(context.Background(), "evt")
	require.NoError(t, err)
	assert.False(t, seen)
	seen, err = guard.CheckAndMark(context.Background(), "evt")
	require.NoError(t, err)
	assert.True(t, seen)

	require.NoError(t, guard.Delete(context.Background(), "evt"))
	seen, err = guard.CheckAndMark(context.Background(), "evt")
	require.NoError(t, err)
	assert.False(t, seen)

	_, err = guard.CheckAndMark(context.Background(), "")
	require.Error(t, err)
}
