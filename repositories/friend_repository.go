package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sushicount-api/models"
)

const searchLimit = 50

type FriendRepository struct {
	db *gorm.DB
}

func NewFriendRepository(db *gorm.DB) *FriendRepository {
	return &FriendRepository{db: db}
}

// Search matches user names case-insensitively as a substring.
func (r *FriendRepository) Search(ctx context.Context, term string) ([]models.User, error) {
	users := []models.User{}
	q := r.db.WithContext(ctx).Order("name ASC").Limit(searchLimit)
	if term = strings.TrimSpace(term); term != "" {
		q = q.Where("LOWER(name) LIKE ? ESCAPE '!'", "%"+escapeLike(strings.ToLower(term))+"%")
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}

// GetFriends returns the users befriended with userID, sorted by name.
func (r *FriendRepository) GetFriends(ctx context.Context, userID string) ([]models.User, error) {
	var friendships []models.Friendship
	if err := r.db.WithContext(ctx).Where("user1_id = ? OR user2_id = ?", userID, userID).
		Find(&friendships).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch friendships: %w", err)
	}

	friendIDs := make([]string, 0, len(friendships))
	for _, friendship := range friendships {
		if friendship.User1ID == userID {
			friendIDs = append(friendIDs, friendship.User2ID)
		} else {
			friendIDs = append(friendIDs, friendship.User1ID)
		}
	}

	friends := []models.User{}
	if len(friendIDs) == 0 {
		return friends, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", friendIDs).Order("name ASC").Find(&friends).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch friend details: %w", err)
	}
	return friends, nil
}

func (r *FriendRepository) AreFriends(ctx context.Context, userA, userB string) (bool, error) {
	return r.areFriends(r.db.WithContext(ctx), userA, userB)
}

func (r *FriendRepository) areFriends(tx *gorm.DB, userA, userB string) (bool, error) {
	user1ID, user2ID := models.OrderedPair(userA, userB)

	var count int64
	if err := tx.Model(&models.Friendship{}).
		Where("user1_id = ? AND user2_id = ?", user1ID, user2ID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return count > 0, nil
}

// RemoveFriend deletes the friendship and every request exchanged by the pair.
func (r *FriendRepository) RemoveFriend(ctx context.Context, userID, friendID string) error {
	user1ID, user2ID := models.OrderedPair(userID, friendID)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user1_id = ? AND user2_id = ?", user1ID, user2ID).Delete(&models.Friendship{})
		if res.Error != nil {
			return fmt.Errorf("failed to remove friend: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		if err := tx.Where("(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)",
			userID, friendID, friendID, userID).Delete(&models.FriendRequest{}).Error; err != nil {
			return fmt.Errorf("failed to delete friend requests: %w", err)
		}
		return nil
	})
}

// SendRequest creates a pending request from one user to another.
// The returned request carries summaries of both users.
func (r *FriendRepository) SendRequest(ctx context.Context, fromUserID, toUserID string) (*models.FriendRequest, error) {
	if fromUserID == "" || toUserID == "" || fromUserID == toUserID {
		return nil, ErrInvalidRequest
	}

	db := r.db.WithContext(ctx)

	var users []models.User
	if err := db.Where("id IN ?", []string{fromUserID, toUserID}).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	if len(users) != 2 {
		return nil, ErrNotFound
	}

	friends, err := r.areFriends(db, fromUserID, toUserID)
	if err != nil {
		return nil, err
	}
	if friends {
		return nil, ErrDuplicate
	}

	var pending int64
	if err := db.Model(&models.FriendRequest{}).
		Where("from_user_id = ? AND to_user_id = ? AND status = ?", fromUserID, toUserID, models.FriendRequestStatusPending).
		Count(&pending).Error; err != nil {
		return nil, fmt.Errorf("failed to check friend requests: %w", err)
	}
	if pending > 0 {
		return nil, ErrDuplicate
	}

	request := models.FriendRequest{
		ID:         uuid.New().String(),
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Status:     models.FriendRequestStatusPending,
	}
	if err := db.Create(&request).Error; err != nil {
		return nil, wrap(err, "create friend request")
	}

	for _, u := range users {
		summary := u.Summary()
		if u.ID == fromUserID {
			request.FromUser = &summary
		} else {
			request.ToUser = &summary
		}
	}
	return &request, nil
}

// Respond accepts or rejects a pending request. Accepting records the friendship
// and also closes a pending request in the opposite direction.
func (r *FriendRepository) Respond(ctx context.Context, requestID string, accept bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var request models.FriendRequest
		if err := tx.First(&request, "id = ? AND status = ?", requestID, models.FriendRequestStatusPending).Error; err != nil {
			return wrap(err, "load friend request")
		}

		now := time.Now()
		status := models.FriendRequestStatusRejected
		if accept {
			status = models.FriendRequestStatusAccepted
		}

		res := tx.Model(&models.FriendRequest{}).
			Where("id = ? AND status = ?", request.ID, models.FriendRequestStatusPending).
			Updates(map[string]interface{}{"status": status, "responded_at": now})
		if res.Error != nil {
			return fmt.Errorf("failed to update friend request: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		if !accept {
			return nil
		}

		friendship := models.NewFriendship(request.FromUserID, request.ToUserID)
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&friendship).Error; err != nil {
			return fmt.Errorf("failed to create friendship: %w", err)
		}

		// A crossing request in the other direction is answered by this one.
		if err := tx.Model(&models.FriendRequest{}).
			Where("from_user_id = ? AND to_user_id = ? AND status = ?", request.ToUserID, request.FromUserID, models.FriendRequestStatusPending).
			Updates(map[string]interface{}{"status": models.FriendRequestStatusAccepted, "responded_at": now}).Error; err != nil {
			return fmt.Errorf("failed to close reverse friend request: %w", err)
		}
		return nil
	})
}

// GetIncoming lists pending requests addressed to userID, newest first.
func (r *FriendRepository) GetIncoming(ctx context.Context, userID string) ([]models.FriendRequest, error) {
	return r.pending(ctx, "to_user_id = ?", userID)
}

// GetOutgoing lists pending requests sent by userID, newest first.
func (r *FriendRepository) GetOutgoing(ctx context.Context, userID string) ([]models.FriendRequest, error) {
	return r.pending(ctx, "from_user_id = ?", userID)
}

func (r *FriendRepository) pending(ctx context.Context, cond, userID string) ([]models.FriendRequest, error) {
	db := r.db.WithContext(ctx)

	requests := []models.FriendRequest{}
	if err := db.Where(cond, userID).Where("status = ?", models.FriendRequestStatusPending).
		Order("created_at DESC").Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch friend requests: %w", err)
	}
	if len(requests) == 0 {
		return requests, nil
	}

	ids := make([]string, 0, len(requests)*2)
	for _, req := range requests {
		ids = append(ids, req.FromUserID, req.ToUserID)
	}

	var users []models.User
	if err := db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch request users: %w", err)
	}
	summaries := make(map[string]models.UserSummary, len(users))
	for _, u := range users {
		summaries[u.ID] = u.Summary()
	}

	for i := range requests {
		if s, ok := summaries[requests[i].FromUserID]; ok {
			requests[i].FromUser = &s
		}
		if s, ok := summaries[requests[i].ToUserID]; ok {
			requests[i].ToUser = &s
		}
	}
	return requests, nil
}

// PurgeAnswered deletes accepted and rejected requests answered before cutoff.
// Pending requests are never touched.
func (r *FriendRepository) PurgeAnswered(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status <> ? AND responded_at < ?", models.FriendRequestStatusPending, cutoff).
		Delete(&models.FriendRequest{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge friend requests: %w", res.Error)
	}
	return res.RowsAffected, nil
}
