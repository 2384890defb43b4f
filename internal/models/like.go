package models

import "time"

const (
	TargetQuestion = "question"
	TargetAnswer   = "answer"
	TargetComment  = "comment"
)

// Like is one user's like on a question, answer or comment
type Like struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	TargetID   string    `json:"targetId" gorm:"size:36;index;uniqueIndex:idx_like_target_user"`
	TargetKind string    `json:"targetType" gorm:"size:10;uniqueIndex:idx_like_target_user"`
	UserID     string    `json:"userId" gorm:"type:uuid;uniqueIndex:idx_like_target_user"`
	CreatedAt  time.Time `json:"createdAt"`
}

type ToggleLikeRequest struct {
	TargetID   string `json:"targetId" validate:"required"`
	TargetType string `json:"targetType" validate:"required,oneof=question answer comment"`
}
