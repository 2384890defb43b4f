package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ParentAnswer  = "answer"
	ParentComment = "comment"
)

// Comment hangs from an answer or another comment. AnswerID is the answer at
// the root of the thread and drives cascading deletes.
type Comment struct {
	ID         string     `json:"id" gorm:"type:uuid;primaryKey"`
	ParentID   string     `json:"parentId" gorm:"type:uuid;index"`
	ParentKind string     `json:"parentKind" gorm:"size:10"`
	AnswerID   string     `json:"answerId" gorm:"type:uuid;index"`
	AuthorID   string     `json:"authorId" gorm:"type:uuid;index"`
	Body       string     `json:"body"`
	Deleted    bool       `json:"deleted" gorm:"default:false"`
	CreatedAt  time.Time  `json:"createdAt" gorm:"index"`
	EditedAt   *time.Time `json:"editedAt,omitempty"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
