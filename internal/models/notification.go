package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotificationFollow   = "follow"
	NotificationAnswer   = "answer"
	NotificationQuestion = "question"
)

// Notification is created as a side effect of another user's action
type Notification struct {
	ID          string    `json:"id" gorm:"type:uuid;primaryKey"`
	Kind        string    `json:"kind" gorm:"size:20;index"`
	SenderID    string    `json:"senderId" gorm:"type:uuid;index"`
	RecipientID string    `json:"recipientId" gorm:"type:uuid;index"`
	QuestionID  string    `json:"questionId,omitempty" gorm:"size:24"`
	Read        bool      `json:"read" gorm:"default:false;index"`
	CreatedAt   time.Time `json:"createdAt" gorm:"index"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
