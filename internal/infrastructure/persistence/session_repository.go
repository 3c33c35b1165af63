package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/identity"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSessionRepository stores the device sessions tokens are bound to
type GormSessionRepository struct {
	db *gorm.DB
}

var _ identity.SessionRepository = (*GormSessionRepository)(nil)

func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

func (r *GormSessionRepository) Create(ctx context.Context, session *identity.Session) error {
	return r.db.WithContext(ctx).Create(models.SessionModelFromDomain(session)).Error
}

func (r *GormSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Session, error) {
	var row models.SessionModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, missing(err, shared.ErrNotFound)
	}
	return row.ToDomain(), nil
}

// FindByUser orders by last use; sessions never used sort by creation
func (r *GormSessionRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]identity.Session, error) {
	var rows []models.SessionModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("COALESCE(last_used_at, created_at) DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	sessions := make([]identity.Session, 0, len(rows))
	for i := range rows {
		sessions = append(sessions, *rows[i].ToDomain())
	}
	return sessions, nil
}

func (r *GormSessionRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.SessionModel{}).
		Where("id = ?", id).
		UpdateColumn("last_used_at", at).Error
}

func (r *GormSessionRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return affected(r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Delete(&models.SessionModel{}), shared.ErrNotFound)
}

func (r *GormSessionRepository) DeleteAllForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return r.deleteSelected(ctx, userID, func(ids []uuid.UUID) []uuid.UUID { return ids })
}

func (r *GormSessionRepository) DeleteExpired(ctx context.Context, userID uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND expires_at <= ?", userID, now).
		Delete(&models.SessionModel{}).Error
}

// TrimOldest keeps the keep newest sessions by creation time
func (r *GormSessionRepository) TrimOldest(ctx context.Context, userID uuid.UUID, keep int) ([]uuid.UUID, error) {
	return r.deleteSelected(ctx, userID, func(newestFirst []uuid.UUID) []uuid.UUID {
		if keep = max(keep, 0); len(newestFirst) <= keep {
			return nil
		}
		return newestFirst[keep:]
	})
}

// deleteSelected lists the user's session ids newest first, deletes the
// ones pick returns and reports them, all in one transaction
func (r *GormSessionRepository) deleteSelected(ctx context.Context, userID uuid.UUID, pick func([]uuid.UUID) []uuid.UUID) ([]uuid.UUID, error) {
	var removed []uuid.UUID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uuid.UUID
		if err := tx.Model(&models.SessionModel{}).
			Where("user_id = ?", userID).
			Order("created_at DESC").
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if removed = pick(ids); len(removed) == 0 {
			return nil
		}
		return tx.Where("id IN ?", removed).Delete(&models.SessionModel{}).Error
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}
