package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/propscout/propscout-backend/pkg/logger"
)

const (
	defaultClaimBatch = 100
	maxClaimBatches   = 20
)

type claimReleaser interface {
	ReleaseExpiredClaims(ctx context.Context, limit int) (int, error)
}

type ClaimExpiryJobParams struct {
	Logger    *logger.Logger
	Visits    claimReleaser
	BatchSize int
}

// NewClaimExpiryJob returns ASSIGNED visits whose claim window lapsed to the
// job board.
func NewClaimExpiryJob(params ClaimExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Visits == nil {
		return nil, fmt.Errorf("visits service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultClaimBatch
	}
	return &claimExpiryJob{logg: params.Logger, visits: params.Visits, batch: batch}, nil
}

type claimExpiryJob struct {
	logg   *logger.Logger
	visits claimReleaser
	batch  int
}

func (j *claimExpiryJob) Name() string { return "claim_expiry" }

func (j *claimExpiryJob) Run(ctx context.Context) error {
	var (
		total int
		errs  error
	)
	for i := 0; i < maxClaimBatches; i++ {
		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, err)
			break
		}
		released, err := j.visits.ReleaseExpiredClaims(ctx, j.batch)
		total += released
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("batch %d: %w", i, err))
			break
		}
		if released < j.batch {
			break
		}
	}
	j.logg.Info(j.logg.WithField(ctx, "claims_released", total), "claim expiry complete")
	return errs
}
