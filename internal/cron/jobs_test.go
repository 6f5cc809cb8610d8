package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/propscout/propscout-backend/pkg/logger"
)

type fakeExpirer struct {
	rows  int64
	err   error
	calls int
}

func (f *fakeExpirer) ExpireLapsed(context.Context) (int64, error) {
	f.calls++
	return f.rows, f.err
}

type fakeReleaser struct {
	batches []int
	err     error
	limits  []int
}

func (f *fakeReleaser) ReleaseExpiredClaims(_ context.Context, limit int) (int, error) {
	f.limits = append(f.limits, limit)
	if len(f.batches) == 0 {
		return 0, f.err
	}
	next := f.batches[0]
	f.batches = f.batches[1:]
	return next, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test"})
}

func TestSubscriptionExpiryJob(t *testing.T) {
	expirer := &fakeExpirer{rows: 3}
	job, err := NewSubscriptionExpiryJob(SubscriptionExpiryJobParams{Logger: testLogger(), Subscriptions: expirer})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if job.Name() != "subscription_expiry" {
		t.Fatalf("unexpected name %q", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if expirer.calls != 1 {
		t.Fatalf("expected one call, got %d", expirer.calls)
	}

	expirer.err = errors.New("db down")
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	if _, err := NewSubscriptionExpiryJob(SubscriptionExpiryJobParams{Logger: testLogger()}); err == nil {
		t.Fatal("expected missing dependency error")
	}
}

func TestClaimExpiryJobDrainsBatches(t *testing.T) {
	releaser := &fakeReleaser{batches: []int{2, 2, 1}}
	job, err := NewClaimExpiryJob(ClaimExpiryJobParams{Logger: testLogger(), Visits: releaser, BatchSize: 2})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(releaser.limits) != 3 {
		t.Fatalf("expected three batches, got %d", len(releaser.limits))
	}
	for _, limit := range releaser.limits {
		if limit != 2 {
			t.Fatalf("expected batch size 2, got %d", limit)
		}
	}
}

func TestClaimExpiryJobStopsOnError(t *testing.T) {
	releaser := &fakeReleaser{batches: []int{5}, err: errors.New("boom")}
	job, err := NewClaimExpiryJob(ClaimExpiryJobParams{Logger: testLogger(), Visits: releaser, BatchSize: 5})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(releaser.limits) != 2 {
		t.Fatalf("expected to stop after the failing batch, got %d calls", len(releaser.limits))
	}
}

func TestClaimExpiryJobHonorsCancel(t *testing.T) {
	releaser := &fakeReleaser{}
	job, err := NewClaimExpiryJob(ClaimExpiryJobParams{Logger: testLogger(), Visits: releaser})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := job.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(releaser.limits) != 0 {
		t.Fatal("expected no release calls after cancel")
	}
}
