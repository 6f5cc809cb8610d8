package disputes

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propscout/propscout-backend/pkg/db/models"
	"github.com/propscout/propscout-backend/pkg/enums"
)

const maxListLimit = 200

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, dispute *models.Dispute) error {
	return r.db.WithContext(ctx).Create(dispute).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	var dispute models.Dispute
	if err := r.db.WithContext(ctx).First(&dispute, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &dispute, nil
}

func (r *Repository) ExistsForReporter(ctx context.Context, visitID, reporterID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Dispute{}).
		Where("visit_request_id = ? AND reporter_id = ?", visitID, reporterID).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Dispute, error) {
	limit := filter.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	q := r.db.WithContext(ctx).Model(&models.Dispute{})
	if filter.ParticipantID != nil {
		q = q.Joins("JOIN visit_requests ON visit_requests.id = disputes.visit_request_id").
			Joins("JOIN properties ON properties.id = visit_requests.property_id").
			Where("disputes.reporter_id = ? OR visit_requests.assigned_scout_id = ? OR properties.owner_id = ?",
				*filter.ParticipantID, *filter.ParticipantID, *filter.ParticipantID)
	}
	if filter.Status != nil {
		q = q.Where("disputes.status = ?", *filter.Status)
	}
	var list []models.Dispute
	err := q.Select("disputes.*").
		Order("disputes.created_at DESC, disputes.id DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&list).Error
	return list, err
}

// UpdateStatus applies an admin decision only if the row is still in the
// status the caller validated against.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, from enums.DisputeStatus, updates map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Dispute{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// CountUnresolved counts disputes in OPEN or IN_REVIEW.
func (r *Repository) CountUnresolved(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Dispute{}).
		Where("status IN ?", []enums.DisputeStatus{enums.DisputeStatusOpen, enums.DisputeStatusInReview}).
		Count(&total).Error
	return total, err
}

func resolutionUpdates(status enums.DisputeStatus, resolution *string, adminID uuid.UUID, at time.Time) map[string]any {
	updates := map[string]any{
		"status":     status,
		"updated_at": at,
	}
	if resolution != nil {
		updates["resolution"] = *resolution
	}
	if status.IsTerminal() {
		updates["resolved_by"] = adminID
		updates["resolved_at"] = at
	}
	return updates
}
