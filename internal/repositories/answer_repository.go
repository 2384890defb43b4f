package repositories

import (
	"context"
	"time"

	"github.com/anonto42/wisora/internal/models"
	"gorm.io/gorm"
)

// AnswerRepository defines the interface for answer data operations
type AnswerRepository interface {
	CreateAnswer(ctx context.Context, answer *models.Answer) error
	GetAnswerByID(ctx context.Context, id string) (*models.Answer, error)
	ListByQuestion(ctx context.Context, questionID string) ([]models.Answer, error)
	ListByAuthor(ctx context.Context, authorID string, limit int) ([]models.Answer, error)
	UpdateBody(ctx context.Context, id, body string) (*models.Answer, error)
	// DeleteCascade removes the answer, its comments and every like on them.
	// It returns the ids of the removed comments.
	DeleteCascade(ctx context.Context, id string) ([]string, error)
	DeleteByQuestion(ctx context.Context, questionID string) error
}

// PostgresAnswerRepository implements AnswerRepository for PostgreSQL
type PostgresAnswerRepository struct {
	db *gorm.DB
}

// NewPostgresAnswerRepository creates a new PostgresAnswerRepository
func NewPostgresAnswerRepository(db *gorm.DB) *PostgresAnswerRepository {
	return &PostgresAnswerRepository{db: db}
}

func (r *PostgresAnswerRepository) CreateAnswer(ctx context.Context, answer *models.Answer) error {
	return r.db.WithContext(ctx).Create(answer).Error
}

func (r *PostgresAnswerRepository) GetAnswerByID(ctx context.Context, id string) (*models.Answer, error) {
	var answer models.Answer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&answer).Error; err != nil {
		return nil, notFound(err)
	}
	return &answer, nil
}

func (r *PostgresAnswerRepository) ListByQuestion(ctx context.Context, questionID string) ([]models.Answer, error) {
	var answers []models.Answer
	err := r.db.WithContext(ctx).Where("question_id = ?", questionID).Order("created_at ASC").Find(&answers).Error
	return answers, err
}

// ListByAuthor returns a user's answers newest first.
func (r *PostgresAnswerRepository) ListByAuthor(ctx context.Context, authorID string, limit int) ([]models.Answer, error) {
	var answers []models.Answer
	err := r.db.WithContext(ctx).Where("author_id = ?", authorID).Order("created_at DESC").Limit(limit).Find(&answers).Error
	return answers, err
}

func (r *PostgresAnswerRepository) UpdateBody(ctx context.Context, id, body string) (*models.Answer, error) {
	res := r.db.WithContext(ctx).Model(&models.Answer{}).Where("id = ?", id).
		Updates(map[string]any{"body": body, "edited_at": time.Now()})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetAnswerByID(ctx, id)
}

func (r *PostgresAnswerRepository) DeleteCascade(ctx context.Context, id string) ([]string, error) {
	var commentIDs []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		commentIDs, err = deleteAnswers(tx, []string{id})
		return err
	})
	return commentIDs, err
}

func (r *PostgresAnswerRepository) DeleteByQuestion(ctx context.Context, questionID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&models.Answer{}).Where("question_id = ?", questionID).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		_, err := deleteAnswers(tx, ids)
		return err
	})
}

func deleteAnswers(tx *gorm.DB, answerIDs []string) ([]string, error) {
	var commentIDs []string
	if err := tx.Model(&models.Comment{}).Where("answer_id IN ?", answerIDs).Pluck("id", &commentIDs).Error; err != nil {
		return nil, err
	}
	if len(commentIDs) > 0 {
		if err := tx.Where("target_kind = ? AND target_id IN ?", models.TargetComment, commentIDs).Delete(&models.Like{}).Error; err != nil {
			return nil, err
		}
		if err := tx.Where("answer_id IN ?", answerIDs).Delete(&models.Comment{}).Error; err != nil {
			return nil, err
		}
	}
	if err := tx.Where("target_kind = ? AND target_id IN ?", models.TargetAnswer, answerIDs).Delete(&models.Like{}).Error; err != nil {
		return nil, err
	}
	res := tx.Where("id IN ?", answerIDs).Delete(&models.Answer{})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return commentIDs, nil
}
