package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Answer to a question. QuestionID is a MongoDB ObjectID hex string.
type Answer struct {
	ID         string     `json:"id" gorm:"type:uuid;primaryKey"`
	QuestionID string     `json:"questionId" gorm:"size:24;index"`
	AuthorID   string     `json:"authorId" gorm:"type:uuid;index"`
	Body       string     `json:"body"`
	CreatedAt  time.Time  `json:"createdAt"`
	EditedAt   *time.Time `json:"editedAt,omitempty"`
}

func (a *Answer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

type BodyRequest struct {
	Text string `json:"text" validate:"required,min=1,max=10000"`
}
