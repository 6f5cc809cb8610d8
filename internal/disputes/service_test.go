package disputes

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/propscout/propscout-backend/internal/activity"
	"github.com/propscout/propscout-backend/internal/properties"
	"github.com/propscout/propscout-backend/internal/visits"
	"github.com/propscout/propscout-backend/pkg/db"
	"github.com/propscout/propscout-backend/pkg/db/dbtest"
	"github.com/propscout/propscout-backend/pkg/db/models"
	"github.com/propscout/propscout-backend/pkg/enums"
	pkgerrors "github.com/propscout/propscout-backend/pkg/errors"
)

type fixture struct {
	conn     *gorm.DB
	svc      Service
	owner    models.User
	scout    models.User
	admin    models.User
	stranger models.User
	visit    models.VisitRequest
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.Open(t)
	recorder, err := activity.NewService(activity.NewRepository(conn))
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Repo:       NewRepository(conn),
		Visits:     visits.NewRepository(conn),
		Properties: properties.NewRepository(conn),
		Activity:   recorder,
		DB:         db.Wrap(conn),
	})
	require.NoError(t, err)

	owner := dbtest.CreateUser(t, conn, enums.RoleClient)
	scout := dbtest.CreateUser(t, conn, enums.RoleScout)
	property := dbtest.CreateProperty(t, conn, owner.ID)
	claimed := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	visit := models.VisitRequest{
		ID:              uuid.New(),
		PropertyID:      property.ID,
		RequestedBy:     owner.ID,
		Status:          enums.VisitStatusAssigned,
		Source:          enums.VisitSourceClient,
		ScheduledDate:   time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
		AssignedScoutID: &scout.ID,
		ClaimedAt:       &claimed,
	}
	require.NoError(t, conn.Create(&visit).Error)

	return &fixture{
		conn:     conn,
		svc:      svc,
		owner:    owner,
		scout:    scout,
		admin:    dbtest.CreateUser(t, conn, enums.RoleAdmin),
		stranger: dbtest.CreateUser(t, conn, enums.RoleClient),
		visit:    visit,
	}
}

func TestFileDispute(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	desc := "  photos were of the wrong house "

	dispute, err := f.svc.File(ctx, f.owner.ID, FileInput{VisitRequestID: f.visit.ID, Reason: " Wrong property ", Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, enums.DisputeStatusOpen, dispute.Status)
	assert.Equal(t, "Wrong property", dispute.Reason)
	require.NotNil(t, dispute.Description)
	assert.Equal(t, "photos were of the wrong house", *dispute.Description)

	var feed int64
	require.NoError(t, f.conn.Model(&models.ActivityFeedEntry{}).
		Where("user_id = ? AND type = ?", f.owner.ID, enums.ActivityTypeDisputeFiled).Count(&feed).Error)
	assert.Equal(t, int64(1), feed)

	_, err = f.svc.File(ctx, f.scout.ID, FileInput{VisitRequestID: f.visit.ID, Reason: "Client was rude"})
	require.NoError(t, err)
}

func TestDuplicateDisputeRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.File(ctx, f.owner.ID, FileInput{VisitRequestID: f.visit.ID, Reason: "Blurry"})
	require.NoError(t, err)
	_, err = f.svc.File(ctx, f.owner.ID, FileInput{VisitRequestID: f.visit.ID, Reason: "Still blurry"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeAlreadyTaken, pkgerrors.As(err).Code())
	assert.Equal(t, 400, pkgerrors.MetadataFor(pkgerrors.As(err).Code()).HTTPStatus)

	var count int64
	require.NoError(t, f.conn.Model(&models.Dispute{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestFileRejectsOutsiders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.File(ctx, f.stranger.ID, FileInput{VisitRequestID: f.visit.ID, Reason: "Nosy"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	_, err = f.svc.File(ctx, f.owner.ID, FileInput{VisitRequestID: uuid.New(), Reason: "Missing"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	_, err = f.svc.File(ctx, f.owner.ID, FileInput{VisitRequestID: f.visit.ID, Reason: "  "})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestListAndGetVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dispute, err := f.svc.File(ctx, f.owner.ID, FileInput{VisitRequestID: f.visit.ID, Reason: "Late"})
	require.NoError(t, err)

	for _, user := range []models.User{f.owner, f.scout, f.admin} {
		list, err := f.svc.List(ctx, user.ID, user.Role, nil)
		require.NoError(t, err)
		assert.Len(t, list, 1, "role %s", user.Role)

		got, err := f.svc.Get(ctx, user.ID, user.Role, dispute.ID)
		require.NoError(t, err)
		assert.Equal(t, dispute.ID, got.ID)
	}

	list, err := f.svc.List(ctx, f.stranger.ID, enums.RoleClient, nil)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.svc.Get(ctx, f.stranger.ID, enums.RoleClient, dispute.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	resolved := enums.DisputeStatusResolved
	list, err = f.svc.List(ctx, f.admin.ID, enums.RoleAdmin, &resolved)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAdminUpdateLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dispute, err := f.svc.File(ctx, f.owner.ID, FileInput{VisitRequestID: f.visit.ID, Reason: "Late"})
	require.NoError(t, err)

	reviewed, err := f.svc.Update(ctx, f.admin.ID, dispute.ID, UpdateInput{Status: "in_review"})
	require.NoError(t, err)
	assert.Equal(t, enums.DisputeStatusInReview, reviewed.Status)
	assert.Nil(t, reviewed.ResolvedAt)

	note := "Scout re-visited at no cost"
	resolved, err := f.svc.Update(ctx, f.admin.ID, dispute.ID, UpdateInput{Status: "RESOLVED", Resolution: &note})
	require.NoError(t, err)
	assert.Equal(t, enums.DisputeStatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, f.admin.ID, *resolved.ResolvedBy)
	require.NotNil(t, resolved.Resolution)
	assert.Equal(t, note, *resolved.Resolution)

	_, err = f.svc.Update(ctx, f.admin.ID, dispute.ID, UpdateInput{Status: "OPEN"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	_, err = f.svc.Update(ctx, f.admin.ID, dispute.ID, UpdateInput{Status: "ESCALATED"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = f.svc.Update(ctx, f.admin.ID, uuid.New(), UpdateInput{Status: "CLOSED"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	var updates int64
	require.NoError(t, f.conn.Model(&models.ActivityFeedEntry{}).
		Where("user_id = ? AND type = ?", f.owner.ID, enums.ActivityTypeDisputeUpdated).Count(&updates).Error)
	assert.Equal(t, int64(2), updates)

	open, err := NewRepository(f.conn).CountUnresolved(ctx)
	require.NoError(t, err)
	assert.Zero(t, open)
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to enums.DisputeStatus
		want     bool
	}{
		{enums.DisputeStatusOpen, enums.DisputeStatusInReview, true},
		{enums.DisputeStatusOpen, enums.DisputeStatusResolved, true},
		{enums.DisputeStatusOpen, enums.DisputeStatusClosed, true},
		{enums.DisputeStatusInReview, enums.DisputeStatusClosed, true},
		{enums.DisputeStatusInReview, enums.DisputeStatusOpen, false},
		{enums.DisputeStatusResolved, enums.DisputeStatusClosed, false},
		{enums.DisputeStatusClosed, enums.DisputeStatusOpen, false},
		{enums.DisputeStatusOpen, enums.DisputeStatusOpen, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
