package repositories

import (
	"context"

	"github.com/anonto42/wisora/internal/models"
	"gorm.io/gorm"
)

// LikeRepository defines the interface for like data operations
type LikeRepository interface {
	// Toggle flips the user's like on a target and returns the resulting
	// state together with the fresh count.
	Toggle(ctx context.Context, targetID, targetKind, userID string) (bool, int64, error)
	Status(ctx context.Context, targetID, targetKind, userID string) (bool, int64, error)
	Counts(ctx context.Context, targetKind string, targetIDs []string) (map[string]int64, error)
	LikedBy(ctx context.Context, targetKind string, targetIDs []string, userID string) (map[string]bool, error)
	DeleteByTargets(ctx context.Context, targetKind string, targetIDs []string) error
}

// PostgresLikeRepository implements LikeRepository for PostgreSQL
type PostgresLikeRepository struct {
	db *gorm.DB
}

// NewPostgresLikeRepository creates a new PostgresLikeRepository
func NewPostgresLikeRepository(db *gorm.DB) *PostgresLikeRepository {
	return &PostgresLikeRepository{db: db}
}

func (r *PostgresLikeRepository) Toggle(ctx context.Context, targetID, targetKind, userID string) (bool, int64, error) {
	var (
		liked bool
		count int64
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("target_id = ? AND target_kind = ? AND user_id = ?", targetID, targetKind, userID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			like := &models.Like{TargetID: targetID, TargetKind: targetKind, UserID: userID}
			if err := tx.Create(like).Error; err != nil {
				return err
			}
			liked = true
		}
		return tx.Model(&models.Like{}).Where("target_id = ? AND target_kind = ?", targetID, targetKind).Count(&count).Error
	})
	return liked, count, err
}

func (r *PostgresLikeRepository) Status(ctx context.Context, targetID, targetKind, userID string) (bool, int64, error) {
	var count, mine int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).Where("target_id = ? AND target_kind = ?", targetID, targetKind).Count(&count).Error; err != nil {
		return false, 0, err
	}
	if err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("target_id = ? AND target_kind = ? AND user_id = ?", targetID, targetKind, userID).Count(&mine).Error; err != nil {
		return false, 0, err
	}
	return mine > 0, count, nil
}

func (r *PostgresLikeRepository) Counts(ctx context.Context, targetKind string, targetIDs []string) (map[string]int64, error) {
	out := make(map[string]int64, len(targetIDs))
	if len(targetIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		TargetID string
		Count    int64
	}
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Select("target_id, COUNT(*) AS count").
		Where("target_kind = ? AND target_id IN ?", targetKind, targetIDs).
		Group("target_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.TargetID] = row.Count
	}
	return out, nil
}

func (r *PostgresLikeRepository) LikedBy(ctx context.Context, targetKind string, targetIDs []string, userID string) (map[string]bool, error) {
	out := make(map[string]bool, len(targetIDs))
	if len(targetIDs) == 0 || userID == "" {
		return out, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("target_kind = ? AND target_id IN ? AND user_id = ?", targetKind, targetIDs, userID).
		Pluck("target_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (r *PostgresLikeRepository) DeleteByTargets(ctx context.Context, targetKind string, targetIDs []string) error {
	if len(targetIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("target_kind = ? AND target_id IN ?", targetKind, targetIDs).Delete(&models.Like{}).Error
}
