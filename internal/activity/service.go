package activity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propscout/propscout-backend/pkg/db/models"
	"github.com/propscout/propscout-backend/pkg/enums"
	pkgerrors "github.com/propscout/propscout-backend/pkg/errors"
	"github.com/propscout/propscout-backend/pkg/pagination"
)

// Recorder appends feed entries inside the caller's transaction.
type Recorder interface {
	Record(ctx context.Context, tx *gorm.DB, entry Entry) error
}

// Service lists a user's feed and records new entries.
type Service interface {
	Recorder
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

// Entry is the input for a single feed row.
type Entry struct {
	UserID         uuid.UUID
	Type           enums.ActivityType
	Message        string
	PropertyID     *uuid.UUID
	VisitRequestID *uuid.UUID
}

type ListParams struct {
	UserID uuid.UUID
	Limit  int
	Cursor string
}

type ListResult struct {
	Items  []models.ActivityFeedEntry `json:"items"`
	Cursor string                     `json:"cursor"`
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "activity repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Record(ctx context.Context, tx *gorm.DB, entry Entry) error {
	if entry.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "activity user id required")
	}
	if !entry.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid activity type")
	}
	message := strings.TrimSpace(entry.Message)
	if message == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "activity message required")
	}

	row := &models.ActivityFeedEntry{
		ID:             uuid.New(),
		UserID:         entry.UserID,
		Type:           entry.Type,
		Message:        message,
		PropertyID:     entry.PropertyID,
		VisitRequestID: entry.VisitRequestID,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.repo.WithTx(tx).Create(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record activity")
	}
	return nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	query := listParams{UserID: params.UserID, Limit: params.Limit}
	if params.Cursor != "" {
		cursor, err := pagination.Decode(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list activity")
	}

	cursor := ""
	if next != nil {
		cursor = next.Encode()
	}
	if rows == nil {
		rows = []models.ActivityFeedEntry{}
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}
