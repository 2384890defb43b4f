package engagement

import (
	"strings"
	"time"
)

// TargetKind is the kind of entity a reaction applies to.
type TargetKind string

const (
	TargetQuestion TargetKind = "question"
	TargetAnswer   TargetKind = "answer"
	TargetComment  TargetKind = "comment"
)

func (k TargetKind) Valid() bool {
	switch k {
	case TargetQuestion, TargetAnswer, TargetComment:
		return true
	}
	return false
}

// ParseTargetKind accepts the kind case-insensitively.
func ParseTargetKind(s string) (TargetKind, bool) {
	k := TargetKind(strings.ToLower(strings.TrimSpace(s)))
	return k, k.Valid()
}

// ReactionTarget identifies one likeable entity.
type ReactionTarget struct {
	ID   string     `json:"targetId"`
	Kind TargetKind `json:"targetType"`
}

func (t ReactionTarget) String() string {
	return string(t.Kind) + ":" + t.ID
}

// ReactionState is the current user's view of a target's likes.
type ReactionState struct {
	Liked bool `json:"liked"`
	Count int  `json:"count"`
}

type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

type QuestionRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type NotificationKind string

const (
	NotificationFollow   NotificationKind = "follow"
	NotificationAnswer   NotificationKind = "answer"
	NotificationQuestion NotificationKind = "question"
)

type Notification struct {
	ID        string           `json:"id"`
	Kind      NotificationKind `json:"kind"`
	Sender    UserRef          `json:"sender"`
	Question  *QuestionRef     `json:"question,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
}

// NodeKind distinguishes the two kinds of node a comment can hang from.
type NodeKind string

const (
	NodeAnswer  NodeKind = "answer"
	NodeComment NodeKind = "comment"
)

type NodeRef struct {
	ID   string
	Kind NodeKind
}

type Answer struct {
	ID         string    `json:"id"`
	QuestionID string    `json:"questionId"`
	Author     UserRef   `json:"author"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
	EditedAt   time.Time `json:"editedAt,omitempty"`
}

type Comment struct {
	ID         string    `json:"id"`
	ParentID   string    `json:"parentId"`
	ParentKind NodeKind  `json:"parentKind"`
	Author     UserRef   `json:"author"`
	Body       string    `json:"body"`
	Deleted    bool      `json:"deleted,omitempty"`
	ChildIDs   []string  `json:"childIds,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	EditedAt   time.Time `json:"editedAt,omitempty"`
}
