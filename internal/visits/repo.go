package visits

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propscout/propscout-backend/pkg/db/models"
	"github.com/propscout/propscout-backend/pkg/enums"
)

const maxListLimit = 200

// Repository exposes visit persistence. Every status change is a conditional
// UPDATE whose RowsAffected tells the caller whether it won.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, visit *models.VisitRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.VisitRequest, error)
	FindByPaymentReference(ctx context.Context, reference string) (*models.VisitRequest, error)
	ClaimPending(ctx context.Context, id, scoutID uuid.UUID, claimedAt, expiresAt time.Time) (int64, error)
	CompleteAssigned(ctx context.Context, id, scoutID uuid.UUID, completedAt time.Time) (int64, error)
	ReleaseAssigned(ctx context.Context, id uuid.UUID, at time.Time) (int64, error)
	SetRating(ctx context.Context, id uuid.UUID, rating int) (int64, error)
	ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]models.VisitRequest, error)
	ListAssigned(ctx context.Context, scoutID uuid.UUID) ([]models.VisitRequest, error)
	ListJobs(ctx context.Context) ([]Job, error)
	List(ctx context.Context, filter ListFilter) ([]models.VisitRequest, error)
	ListExpiredClaims(ctx context.Context, now time.Time, limit int) ([]models.VisitRequest, error)
	CountCompletedByScout(ctx context.Context, scoutID uuid.UUID) (int64, error)
	CountByStatus(ctx context.Context) (map[enums.VisitStatus]int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, visit *models.VisitRequest) error {
	return r.db.WithContext(ctx).Create(visit).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.VisitRequest, error) {
	var visit models.VisitRequest
	if err := r.db.WithContext(ctx).First(&visit, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &visit, nil
}

func (r *repository) FindByPaymentReference(ctx context.Context, reference string) (*models.VisitRequest, error) {
	var visit models.VisitRequest
	if err := r.db.WithContext(ctx).First(&visit, "payment_reference = ?", reference).Error; err != nil {
		return nil, err
	}
	return &visit, nil
}

func (r *repository) ClaimPending(ctx context.Context, id, scoutID uuid.UUID, claimedAt, expiresAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.VisitRequest{}).
		Where("id = ? AND status = ?", id, enums.VisitStatusPending).
		Updates(map[string]any{
			"status":            enums.VisitStatusAssigned,
			"assigned_scout_id": scoutID,
			"claimed_at":        claimedAt,
			"claim_expires_at":  expiresAt,
			"updated_at":        claimedAt,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) CompleteAssigned(ctx context.Context, id, scoutID uuid.UUID, completedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.VisitRequest{}).
		Where("id = ? AND status = ? AND assigned_scout_id = ?", id, enums.VisitStatusAssigned, scoutID).
		Updates(map[string]any{
			"status":           enums.VisitStatusCompleted,
			"completed_at":     completedAt,
			"claim_expires_at": nil,
			"updated_at":       completedAt,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) ReleaseAssigned(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.VisitRequest{}).
		Where("id = ? AND status = ? AND claim_expires_at < ?", id, enums.VisitStatusAssigned, at).
		Updates(map[string]any{
			"status":            enums.VisitStatusPending,
			"assigned_scout_id": nil,
			"claimed_at":        nil,
			"claim_expires_at":  nil,
			"updated_at":        at,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) SetRating(ctx context.Context, id uuid.UUID, rating int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.VisitRequest{}).
		Where("id = ? AND status = ?", id, enums.VisitStatusCompleted).
		Updates(map[string]any{
			"client_rating": rating,
			"updated_at":    time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *repository) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]models.VisitRequest, error) {
	var list []models.VisitRequest
	err := r.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("scheduled_date DESC, created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *repository) ListAssigned(ctx context.Context, scoutID uuid.UUID) ([]models.VisitRequest, error) {
	var list []models.VisitRequest
	err := r.db.WithContext(ctx).
		Where("assigned_scout_id = ?", scoutID).
		Order("scheduled_date ASC, created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *repository) ListJobs(ctx context.Context) ([]Job, error) {
	var jobs []Job
	err := r.db.WithContext(ctx).
		Table("visit_requests AS v").
		Select(`v.id, v.property_id, v.scheduled_date, v.instructions, v.created_at,
			p.name AS property_name, p.address, p.city, p.state, p.lat AS latitude, p.lng AS longitude`).
		Joins("JOIN properties AS p ON p.id = v.property_id").
		Where("v.status = ?", enums.VisitStatusPending).
		Order("v.created_at ASC, v.id ASC").
		Scan(&jobs).Error
	return jobs, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.VisitRequest, error) {
	limit := filter.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	query := r.db.WithContext(ctx).Model(&models.VisitRequest{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	var list []models.VisitRequest
	err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(filter.Offset).Find(&list).Error
	return list, err
}

func (r *repository) ListExpiredClaims(ctx context.Context, now time.Time, limit int) ([]models.VisitRequest, error) {
	var list []models.VisitRequest
	err := r.db.WithContext(ctx).
		Where("status = ? AND claim_expires_at < ?", enums.VisitStatusAssigned, now).
		Order("claim_expires_at ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *repository) CountCompletedByScout(ctx context.Context, scoutID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.VisitRequest{}).
		Where("assigned_scout_id = ? AND status = ?", scoutID, enums.VisitStatusCompleted).
		Count(&total).Error
	return total, err
}

func (r *repository) CountByStatus(ctx context.Context) (map[enums.VisitStatus]int64, error) {
	var rows []struct {
		Status enums.VisitStatus
		Total  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.VisitRequest{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[enums.VisitStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}
