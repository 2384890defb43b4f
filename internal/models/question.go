package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Question is stored in MongoDB; answers and comments live in PostgreSQL
type Question struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	AuthorID     string             `json:"authorId" bson:"author_id"`
	Title        string             `json:"title" bson:"title"`
	Body         string             `json:"body" bson:"body"`
	Topics       []string           `json:"topics" bson:"topics"`
	Images       []string           `json:"images,omitempty" bson:"images,omitempty"`
	GroupID      string             `json:"groupId,omitempty" bson:"group_id,omitempty"`
	AnswersCount int64              `json:"answersCount" bson:"answers_count"`
	CreatedAt    time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updated_at"`
}

type CreateQuestionRequest struct {
	Title   string   `json:"title" validate:"required,min=5,max=200"`
	Body    string   `json:"body" validate:"required,min=1,max=10000"`
	Topics  []string `json:"topics" validate:"max=10,dive,min=1,max=40"`
	Images  []string `json:"images,omitempty" validate:"omitempty,max=4,dive,url"`
	GroupID string   `json:"groupId,omitempty"`
}
