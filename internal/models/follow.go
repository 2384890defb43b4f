package models

import "time"

// Follow is a directed edge; at most one per (follower, following) pair
type Follow struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FollowerID  string    `json:"followerId" gorm:"type:uuid;index;uniqueIndex:idx_follower_following"`
	FollowingID string    `json:"followingId" gorm:"type:uuid;index;uniqueIndex:idx_follower_following"`
	CreatedAt   time.Time `json:"createdAt"`
}
