package repositories

import (
	"context"
	"strings"

	"github.com/anonto42/wisora/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	// SearchUsers matches query against usernames, most followed first. An
	// empty query lists everyone.
	SearchUsers(ctx context.Context, query string, excludeID string, limit int) ([]models.User, error)
	// ListSuggested returns the most followed users outside excludeIDs.
	ListSuggested(ctx context.Context, excludeIDs []string, limit int) ([]models.User, error)
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *PostgresUserRepository) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("firebase_uid = ?", firebaseUID).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// GetUsersByIDs loads users keyed by id. Unknown ids are absent from the map.
func (r *PostgresUserRepository) GetUsersByIDs(ctx context.Context, ids []string) (map[string]models.User, error) {
	out := make(map[string]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (r *PostgresUserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *PostgresUserRepository) SearchUsers(ctx context.Context, query string, excludeID string, limit int) ([]models.User, error) {
	tx := r.db.WithContext(ctx).Model(&models.User{})
	if query != "" {
		tx = tx.Where("username ILIKE ?", "%"+likeEscaper.Replace(query)+"%")
	}
	if excludeID != "" {
		tx = tx.Where("id <> ?", excludeID)
	}
	users := []models.User{}
	err := tx.Order("followers_count DESC").Order("username ASC").Limit(limit).Find(&users).Error
	return users, err
}

func (r *PostgresUserRepository) ListSuggested(ctx context.Context, excludeIDs []string, limit int) ([]models.User, error) {
	tx := r.db.WithContext(ctx).Model(&models.User{})
	if len(excludeIDs) > 0 {
		tx = tx.Where("id NOT IN ?", excludeIDs)
	}
	users := []models.User{}
	err := tx.Order("followers_count DESC").Order("created_at DESC").Limit(limit).Find(&users).Error
	return users, err
}
