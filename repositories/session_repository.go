package repositories

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sushicount-api/logger"
	"sushicount-api/models"
	"sushicount-api/storage"
)

type SessionRepository struct {
	db    *gorm.DB
	blobs storage.BlobStore
}

func NewSessionRepository(db *gorm.DB, blobs storage.BlobStore) *SessionRepository {
	return &SessionRepository{db: db, blobs: blobs}
}

func preloadSession(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("uploaded_at ASC")
		})
}

// GetAll returns every session, newest first.
func (r *SessionRepository) GetAll(ctx context.Context) ([]models.Session, error) {
	sessions := []models.Session{}
	if err := preloadSession(r.db.WithContext(ctx)).Order("created_at DESC").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// GetMine returns sessions the user created or takes part in, newest first.
func (r *SessionRepository) GetMine(ctx context.Context, userID string) ([]models.Session, error) {
	return r.findForUser(ctx, userID, false)
}

// GetOpenForUser is GetMine restricted to active sessions.
func (r *SessionRepository) GetOpenForUser(ctx context.Context, userID string) ([]models.Session, error) {
	return r.findForUser(ctx, userID, true)
}

func (r *SessionRepository) findForUser(ctx context.Context, userID string, activeOnly bool) ([]models.Session, error) {
	db := r.db.WithContext(ctx)
	joined := db.Model(&models.Participant{}).Select("session_id").Where("user_id = ?", userID)

	q := preloadSession(db).Where("creator_id = ? OR id IN (?)", userID, joined)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	sessions := []models.Session{}
	if err := q.Order("created_at DESC").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to list sessions for user %s: %w", userID, err)
	}
	return sessions, nil
}

// GetByID loads a session with its participants and images and fresh aggregates.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	session, err := loadSession(preloadSession(r.db.WithContext(ctx)), id)
	if err != nil {
		return nil, err
	}
	session.RecomputeAggregates()
	return session, nil
}

func loadSession(db *gorm.DB, id string) (*models.Session, error) {
	var session models.Session
	if err := db.First(&session, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "load session")
	}
	return &session, nil
}

// Create inserts a new active session with its initial participants.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	participants, err := normalizeParticipants(session.Participants)
	if err != nil {
		return err
	}

	now := time.Now()
	session.ID = uuid.New().String()
	session.CreatedAt = now
	session.UpdatedAt = now
	session.IsActive = true
	session.Images = []models.ImageRef{}
	session.Participants = participants
	for i := range session.Participants {
		session.Participants[i].SessionID = session.ID
		session.Participants[i].CreatedAt = now
	}
	session.RecomputeAggregates()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(session).Error; err != nil {
			return wrap(err, "create session")
		}
		if len(session.Participants) > 0 {
			if err := tx.Create(&session.Participants).Error; err != nil {
				return wrap(err, "create participants")
			}
		}
		return nil
	})
}

// normalizeParticipants merges duplicate users and clamps counts.
func normalizeParticipants(in []models.Participant) ([]models.Participant, error) {
	out := make([]models.Participant, 0, len(in))
	index := make(map[string]int, len(in))

	for _, p := range in {
		if p.UserID == "" || !models.ValidRating(p.Rating) {
			return nil, ErrInvalidRequest
		}
		if i, ok := index[p.UserID]; ok {
			out[i].Count = models.ClampCount(out[i].Count + p.Count)
			if p.Rating != nil {
				out[i].Rating = p.Rating
			}
			continue
		}
		index[p.UserID] = len(out)
		out = append(out, models.Participant{
			UserID: p.UserID,
			Count:  models.ClampCount(p.Count),
			Rating: p.Rating,
		})
	}
	return out, nil
}

// Update writes the editable session fields.
func (r *SessionRepository) Update(ctx context.Context, session *models.Session) error {
	res := r.db.WithContext(ctx).Model(&models.Session{}).Where("id = ?", session.ID).
		Updates(map[string]interface{}{
			"title":           session.Title,
			"restaurant_name": session.RestaurantName,
			"description":     session.Description,
			"is_active":       session.IsActive,
			"updated_at":      time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the session rows, then its blobs. Blob failures are only logged.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	var images []models.ImageRef
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Find(&images).Error; err != nil {
			return fmt.Errorf("failed to load images: %w", err)
		}

		res := tx.Where("id = ?", id).Delete(&models.Session{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete session: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		if err := tx.Where("session_id = ?", id).Delete(&models.Participant{}).Error; err != nil {
			return fmt.Errorf("failed to delete participants: %w", err)
		}
		if err := tx.Where("session_id = ?", id).Delete(&models.ImageRef{}).Error; err != nil {
			return fmt.Errorf("failed to delete images: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, img := range images {
		if err := r.blobs.Delete(ctx, img.ID); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			logger.Warn("Failed to delete image blob", "session_id", id, "image_id", img.ID, "error", err)
		}
	}
	return nil
}

// AddImage stores the blob and records the reference. The first image becomes the thumbnail.
func (r *SessionRepository) AddImage(ctx context.Context, sessionID string, ref *models.ImageRef, body io.Reader) error {
	db := r.db.WithContext(ctx)
	if _, err := loadSession(db, sessionID); err != nil {
		return err
	}

	ref.ID = uuid.New().String()
	ref.SessionID = sessionID
	ref.UploadedAt = time.Now()

	if err := r.blobs.Put(ctx, ref.ID, ref.ContentType, body, ref.Size); err != nil {
		return fmt.Errorf("failed to store image: %w", err)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.ImageRef{}).Where("session_id = ?", sessionID).Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to count images: %w", err)
		}
		ref.IsThumbnail = existing == 0

		if err := tx.Create(ref).Error; err != nil {
			return wrap(err, "create image")
		}
		return nil
	})
	if err != nil {
		if delErr := r.blobs.Delete(ctx, ref.ID); delErr != nil {
			logger.Warn("Failed to roll back image blob", "image_id", ref.ID, "error", delErr)
		}
		return err
	}
	return nil
}

// OpenImage returns the image reference and a reader over its bytes.
func (r *SessionRepository) OpenImage(ctx context.Context, sessionID, imageID string) (*models.ImageRef, io.ReadCloser, error) {
	ref, err := r.findImage(r.db.WithContext(ctx), sessionID, imageID)
	if err != nil {
		return nil, nil, err
	}

	body, _, err := r.blobs.Get(ctx, ref.ID)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to open image: %w", err)
	}
	return ref, body, nil
}

func (r *SessionRepository) findImage(db *gorm.DB, sessionID, imageID string) (*models.ImageRef, error) {
	var ref models.ImageRef
	if err := db.First(&ref, "id = ? AND session_id = ?", imageID, sessionID).Error; err != nil {
		return nil, wrap(err, "load image")
	}
	return &ref, nil
}

// DeleteImage removes an image. A deleted thumbnail hands the flag to the earliest remaining image.
func (r *SessionRepository) DeleteImage(ctx context.Context, sessionID, imageID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ref, err := r.findImage(tx, sessionID, imageID)
		if err != nil {
			return err
		}

		if err := tx.Delete(&models.ImageRef{}, "id = ?", ref.ID).Error; err != nil {
			return fmt.Errorf("failed to delete image: %w", err)
		}
		if !ref.IsThumbnail {
			return nil
		}

		var next models.ImageRef
		err = tx.Where("session_id = ?", sessionID).Order("uploaded_at ASC").First(&next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to find next thumbnail: %w", err)
		}
		return tx.Model(&models.ImageRef{}).Where("id = ?", next.ID).Update("is_thumbnail", true).Error
	})
	if err != nil {
		return err
	}

	if err := r.blobs.Delete(ctx, imageID); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		logger.Warn("Failed to delete image blob", "session_id", sessionID, "image_id", imageID, "error", err)
	}
	return nil
}

// SetThumbnail flags imageID as the session thumbnail and clears every other image.
func (r *SessionRepository) SetThumbnail(ctx context.Context, sessionID, imageID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := r.findImage(tx, sessionID, imageID); err != nil {
			return err
		}

		if err := tx.Model(&models.ImageRef{}).Where("session_id = ? AND id <> ?", sessionID, imageID).
			Update("is_thumbnail", false).Error; err != nil {
			return fmt.Errorf("failed to clear thumbnails: %w", err)
		}
		if err := tx.Model(&models.ImageRef{}).Where("id = ?", imageID).
			Update("is_thumbnail", true).Error; err != nil {
			return fmt.Errorf("failed to set thumbnail: %w", err)
		}
		return nil
	})
}

// rewriteSession stores the aggregates and replaces the participant rows of s.
func rewriteSession(tx *gorm.DB, s *models.Session) error {
	res := tx.Model(&models.Session{}).Where("id = ?", s.ID).
		Updates(map[string]interface{}{
			"total_count": s.TotalCount,
			"rating":      s.Rating,
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	if err := tx.Where("session_id = ?", s.ID).Delete(&models.Participant{}).Error; err != nil {
		return fmt.Errorf("failed to clear participants: %w", err)
	}
	if len(s.Participants) == 0 {
		return nil
	}
	for i := range s.Participants {
		s.Participants[i].SessionID = s.ID
	}
	if err := tx.Create(&s.Participants).Error; err != nil {
		return fmt.Errorf("failed to write participants: %w", err)
	}
	return nil
}
