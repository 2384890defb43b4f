package repositories

import (
	"context"
	"time"

	"github.com/anonto42/wisora/internal/models"
	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentByID(ctx context.Context, id string) (*models.Comment, error)
	UpdateBody(ctx context.Context, id, body string) (*models.Comment, error)
	SoftDelete(ctx context.Context, id string) error
	// ListSubtree returns every comment below parentID in creation order.
	ListSubtree(ctx context.Context, parentID string) ([]models.Comment, error)
}

// PostgresCommentRepository implements CommentRepository for PostgreSQL
type PostgresCommentRepository struct {
	db *gorm.DB
}

// NewPostgresCommentRepository creates a new PostgresCommentRepository
func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

func (r *PostgresCommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *PostgresCommentRepository) GetCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error; err != nil {
		return nil, notFound(err)
	}
	return &comment, nil
}

func (r *PostgresCommentRepository) UpdateBody(ctx context.Context, id, body string) (*models.Comment, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ? AND deleted = false", id).
		Updates(map[string]any{"body": body, "edited_at": now})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetCommentByID(ctx, id)
}

// SoftDelete keeps the row so replies below it stay attached.
func (r *PostgresCommentRepository) SoftDelete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ? AND deleted = false", id).
		Updates(map[string]any{"deleted": true, "body": ""})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

const subtreeQuery = `
WITH RECURSIVE thread AS (
	SELECT * FROM comments WHERE parent_id = ?
	UNION
	SELECT c.* FROM comments c JOIN thread t ON c.parent_id = t.id
)
SELECT * FROM thread ORDER BY created_at ASC, id ASC`

func (r *PostgresCommentRepository) ListSubtree(ctx context.Context, parentID string) ([]models.Comment, error) {
	var comments []models.Comment
	if err := r.db.WithContext(ctx).Raw(subtreeQuery, parentID).Scan(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}
