//go:build integration

package visits

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/propscout/propscout-backend/internal/achievements"
	"github.com/propscout/propscout-backend/internal/activity"
	"github.com/propscout/propscout-backend/internal/earnings"
	"github.com/propscout/propscout-backend/internal/media"
	"github.com/propscout/propscout-backend/internal/properties"
	"github.com/propscout/propscout-backend/pkg/config"
	"github.com/propscout/propscout-backend/pkg/db"
	"github.com/propscout/propscout-backend/pkg/db/dbtest"
	"github.com/propscout/propscout-backend/pkg/db/models"
	"github.com/propscout/propscout-backend/pkg/enums"
	pkgerrors "github.com/propscout/propscout-backend/pkg/errors"
	"github.com/propscout/propscout-backend/pkg/migrate"
)

func startPostgres(t *testing.T) *db.Client {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("propscout"),
		postgres.WithUsername("propscout"),
		postgres.WithPassword("propscout"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	client, err := db.New(ctx, config.DBConfig{DSN: dsn, MaxOpenConns: 32, MaxIdleConns: 32}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.DB().DB()
	require.NoError(t, err)
	runner, err := migrate.NewRunner(sqlDB, migrate.Embedded())
	require.NoError(t, err)
	_, err = runner.Up(ctx)
	require.NoError(t, err)
	return client
}

func TestClaimRaceOnPostgres(t *testing.T) {
	ctx := context.Background()
	client := startPostgres(t)
	conn := client.DB()

	activitySvc, err := activity.NewService(activity.NewRepository(conn))
	require.NoError(t, err)
	earningsSvc, err := earnings.NewService(earnings.NewRepository(conn), config.PricingConfig{Currency: "NGN", ScoutVisitPayout: "5000.00"})
	require.NoError(t, err)
	achievementsSvc, err := achievements.NewService(achievements.NewRepository(conn))
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Repo:         NewRepository(conn),
		DB:           client,
		Properties:   properties.NewRepository(conn),
		Media:        media.NewRepository(conn),
		Uploader:     &stubUploader{url: "https://storage.googleapis.com/propscout-it/proof.jpg"},
		Earnings:     earningsSvc,
		Achievements: achievementsSvc,
		Activity:     activitySvc,
		ClaimWindow:  time.Hour,
	})
	require.NoError(t, err)

	owner := dbtest.CreateUser(t, conn, enums.RoleClient)
	property := dbtest.CreateProperty(t, conn, owner.ID)
	visit, err := svc.Create(ctx, owner.ID, CreateVisitInput{
		PropertyID:    property.ID,
		ScheduledDate: time.Now().UTC().AddDate(0, 0, 2).Format(DateLayout),
	})
	require.NoError(t, err)

	const scouts = 25
	ids := make([]uuid.UUID, scouts)
	for i := range ids {
		ids[i] = dbtest.CreateUser(t, conn, enums.RoleScout).ID
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		wins    int
		taken   int
		unknown []error
	)
	start := make(chan struct{})
	for _, id := range ids {
		wg.Add(1)
		go func(scoutID uuid.UUID) {
			defer wg.Done()
			<-start
			_, err := svc.Claim(ctx, scoutID, visit.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case pkgerrors.As(err).Code() == pkgerrors.CodeAlreadyTaken:
				taken++
			default:
				unknown = append(unknown, err)
			}
		}(id)
	}
	close(start)
	wg.Wait()

	require.Empty(t, unknown)
	require.Equal(t, 1, wins)
	require.Equal(t, scouts-1, taken)

	var assigned int64
	require.NoError(t, conn.Model(&models.VisitRequest{}).
		Where("id = ? AND status = ? AND assigned_scout_id IS NOT NULL", visit.ID, enums.VisitStatusAssigned).
		Count(&assigned).Error)
	require.Equal(t, int64(1), assigned)
}

func TestDeletingScoutKeepsClaimedVisit(t *testing.T) {
	ctx := context.Background()
	client := startPostgres(t)
	conn := client.DB()

	activitySvc, err := activity.NewService(activity.NewRepository(conn))
	require.NoError(t, err)
	earningsSvc, err := earnings.NewService(earnings.NewRepository(conn), config.PricingConfig{Currency: "NGN", ScoutVisitPayout: "5000.00"})
	require.NoError(t, err)
	achievementsSvc, err := achievements.NewService(achievements.NewRepository(conn))
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Repo:         NewRepository(conn),
		DB:           client,
		Properties:   properties.NewRepository(conn),
		Media:        media.NewRepository(conn),
		Uploader:     &stubUploader{url: "https://storage.googleapis.com/propscout-it/proof.jpg"},
		Earnings:     earningsSvc,
		Achievements: achievementsSvc,
		Activity:     activitySvc,
		ClaimWindow:  time.Hour,
	})
	require.NoError(t, err)

	owner := dbtest.CreateUser(t, conn, enums.RoleClient)
	property := dbtest.CreateProperty(t, conn, owner.ID)
	visit, err := svc.Create(ctx, owner.ID, CreateVisitInput{PropertyID: property.ID, ScheduledDate: "2025-01-01"})
	require.NoError(t, err)
	scout := dbtest.CreateUser(t, conn, enums.RoleScout)
	_, err = svc.Claim(ctx, scout.ID, visit.ID)
	require.NoError(t, err)

	require.NoError(t, conn.Delete(&models.User{}, "id = ?", scout.ID).Error)

	var stored models.VisitRequest
	require.NoError(t, conn.First(&stored, "id = ?", visit.ID).Error)
	require.Equal(t, enums.VisitStatusAssigned, stored.Status)
	require.Nil(t, stored.AssignedScoutID)
}
