package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sushicount-api/models"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetAll lists every user ordered by name.
func (r *UserRepository) GetAll(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "load user")
	}
	return &user, nil
}

// FindByEmail looks a user up by normalized email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", models.NormalizeEmail(email)).Error; err != nil {
		return nil, wrap(err, "find user")
	}
	return &user, nil
}

// ExistsByEmail reports whether another user (not excludeID) already holds the email.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	return r.exists(ctx, "email = ?", models.NormalizeEmail(email), excludeID)
}

// ExistsByName reports whether another user (not excludeID) already holds the name.
func (r *UserRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	return r.exists(ctx, "name = ?", name, excludeID)
}

func (r *UserRepository) exists(ctx context.Context, cond, value, excludeID string) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.User{}).Where(cond, value)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return count > 0, nil
}

// Create assigns the id and inserts the user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.ID = uuid.New().String()
	user.Email = models.NormalizeEmail(user.Email)

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return wrap(err, "create user")
	}
	return nil
}

// Update writes the profile fields; the password only when one is set.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	updates := map[string]interface{}{
		"name":       user.Name,
		"email":      models.NormalizeEmail(user.Email),
		"updated_at": time.Now(),
	}
	if user.Password != "" {
		updates["password"] = user.Password
	}

	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Updates(updates)
	if res.Error != nil {
		return wrap(res.Error, "update user")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"password": hash, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("failed to update password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the user together with their friendships and friend requests.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&models.User{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete user: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		if err := tx.Where("user1_id = ? OR user2_id = ?", id, id).Delete(&models.Friendship{}).Error; err != nil {
			return fmt.Errorf("failed to delete friendships: %w", err)
		}
		if err := tx.Where("from_user_id = ? OR to_user_id = ?", id, id).Delete(&models.FriendRequest{}).Error; err != nil {
			return fmt.Errorf("failed to delete friend requests: %w", err)
		}
		return nil
	})
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
