package models

import "time"

type FriendRequestStatus string

const (
	FriendRequestStatusPending  FriendRequestStatus = "pending"
	FriendRequestStatusAccepted FriendRequestStatus = "accepted"
	FriendRequestStatusRejected FriendRequestStatus = "rejected"
)

type FriendRequest struct {
	ID          string              `json:"id" gorm:"primaryKey;size:191"`
	FromUserID  string              `json:"from_user_id" gorm:"index:idx_friend_requests_pair;not null;size:191"`
	ToUserID    string              `json:"to_user_id" gorm:"index:idx_friend_requests_pair;not null;size:191"`
	Status      FriendRequestStatus `json:"status" gorm:"not null;default:'pending';size:20"`
	CreatedAt   time.Time           `json:"created_at"`
	RespondedAt *time.Time          `json:"responded_at"`

	FromUser *UserSummary `json:"from_user,omitempty" gorm:"-"`
	ToUser   *UserSummary `json:"to_user,omitempty" gorm:"-"`
}

// Friendship stores an accepted request as an ordered pair, User1ID < User2ID.
type Friendship struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	User1ID   string    `json:"user1_id" gorm:"uniqueIndex:ux_friendships_pair;not null;size:191"`
	User2ID   string    `json:"user2_id" gorm:"uniqueIndex:ux_friendships_pair;not null;size:191"`
	CreatedAt time.Time `json:"created_at"`
}

func NewFriendship(userA, userB string) Friendship {
	user1ID, user2ID := OrderedPair(userA, userB)
	return Friendship{User1ID: user1ID, User2ID: user2ID}
}

func OrderedPair(userA, userB string) (string, string) {
	if userA > userB {
		return userB, userA
	}
	return userA, userB
}
