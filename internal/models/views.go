package models

import "time"

// Response shapes consumed by the engagement client. Field names follow the
// web client's contract.

type QuestionRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type NotificationView struct {
	ID        string       `json:"id"`
	Kind      string       `json:"kind"`
	Sender    UserCompact  `json:"sender"`
	Question  *QuestionRef `json:"question,omitempty"`
	Read      bool         `json:"read"`
	CreatedAt time.Time    `json:"createdAt"`
}

type AnswerView struct {
	ID         string       `json:"id"`
	QuestionID string       `json:"questionId"`
	Author     UserCompact  `json:"author"`
	Question   *QuestionRef `json:"question,omitempty"`
	Body       string       `json:"body"`
	Liked      bool         `json:"liked"`
	LikesCount int64        `json:"likesCount"`
	CreatedAt  time.Time    `json:"createdAt"`
	EditedAt   *time.Time   `json:"editedAt,omitempty"`
}

type CommentView struct {
	ID         string      `json:"id"`
	ParentID   string      `json:"parentId"`
	ParentKind string      `json:"parentKind"`
	Author     UserCompact `json:"author"`
	Body       string      `json:"body"`
	Deleted    bool        `json:"deleted,omitempty"`
	ChildIDs   []string    `json:"childIds"`
	CreatedAt  time.Time   `json:"createdAt"`
	EditedAt   *time.Time  `json:"editedAt,omitempty"`
}

type QuestionView struct {
	Question
	Author     UserCompact `json:"author"`
	Liked      bool        `json:"liked"`
	LikesCount int64       `json:"likesCount"`
}

// UserCard is a user in a directory listing, with the viewer's follow status.
type UserCard struct {
	UserCompact
	Bio            string `json:"bio,omitempty"`
	FollowersCount int64  `json:"followersCount"`
	IsFollowing    bool   `json:"isFollowing"`
}

type LikeStatus struct {
	Liked bool  `json:"liked"`
	Count int64 `json:"count"`
}
