package cron

import (
	"context"
	"fmt"

	"github.com/propscout/propscout-backend/pkg/logger"
)

type subscriptionExpirer interface {
	ExpireLapsed(ctx context.Context) (int64, error)
}

type SubscriptionExpiryJobParams struct {
	Logger        *logger.Logger
	Subscriptions subscriptionExpirer
}

// NewSubscriptionExpiryJob marks ACTIVE subscriptions past their period end
// as EXPIRED. There is no renewal.
func NewSubscriptionExpiryJob(params SubscriptionExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscriptions service required")
	}
	return &subscriptionExpiryJob{logg: params.Logger, subs: params.Subscriptions}, nil
}

type subscriptionExpiryJob struct {
	logg *logger.Logger
	subs subscriptionExpirer
}

func (j *subscriptionExpiryJob) Name() string { return "subscription_expiry" }

func (j *subscriptionExpiryJob) Run(ctx context.Context) error {
	expired, err := j.subs.ExpireLapsed(ctx)
	if err != nil {
		return fmt.Errorf("expire subscriptions: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "rows_expired", expired), "subscription expiry complete")
	return nil
}
