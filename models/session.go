package models

import (
	"math"
	"time"
)

const (
	MinRating = 1
	MaxRating = 10
)

type Session struct {
	ID             string    `json:"id" gorm:"primaryKey;size:191"`
	Title          string    `json:"title" gorm:"not null;size:255"`
	RestaurantName *string   `json:"restaurant_name" gorm:"size:255"`
	Description    *string   `json:"description" gorm:"type:text"`
	CreatorID      string    `json:"creator_id" gorm:"index;not null;size:191"`
	IsActive       bool      `json:"is_active" gorm:"not null"`
	TotalCount     int       `json:"total_count" gorm:"not null;default:0"`
	Rating         *int      `json:"rating"`
	CreatedAt      time.Time `json:"created_at" gorm:"index"`
	UpdatedAt      time.Time `json:"updated_at"`

	Participants []Participant `json:"participants" gorm:"foreignKey:SessionID"`
	Images       []ImageRef    `json:"images" gorm:"foreignKey:SessionID"`
}

// Participant is one user's contribution to a session, keyed by (SessionID, UserID).
type Participant struct {
	SessionID string    `json:"session_id" gorm:"primaryKey;size:191"`
	UserID    string    `json:"user_id" gorm:"primaryKey;size:191;index"`
	Count     int       `json:"count" gorm:"not null;default:0"`
	Rating    *int      `json:"rating"`
	CreatedAt time.Time `json:"joined_at"`
}

func (Participant) TableName() string {
	return "session_participants"
}

type ImageRef struct {
	ID          string    `json:"id" gorm:"primaryKey;size:191"`
	SessionID   string    `json:"session_id" gorm:"index;not null;size:191"`
	FileName    string    `json:"file_name" gorm:"size:255"`
	ContentType string    `json:"content_type" gorm:"size:100"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
	UploadedBy  string    `json:"uploaded_by,omitempty" gorm:"size:191"`
	IsThumbnail bool      `json:"is_thumbnail" gorm:"not null;default:false"`
}

func (ImageRef) TableName() string {
	return "session_images"
}

// FindParticipant returns the index of userID in the participant list, or -1.
func (s *Session) FindParticipant(userID string) int {
	for i := range s.Participants {
		if s.Participants[i].UserID == userID {
			return i
		}
	}
	return -1
}

func (s *Session) FindImage(imageID string) *ImageRef {
	for i := range s.Images {
		if s.Images[i].ID == imageID {
			return &s.Images[i]
		}
	}
	return nil
}

// Thumbnail returns the flagged thumbnail, if any.
func (s *Session) Thumbnail() *ImageRef {
	for i := range s.Images {
		if s.Images[i].IsThumbnail {
			return &s.Images[i]
		}
	}
	return nil
}

// RecomputeAggregates derives TotalCount and Rating from the participant list.
// Negative counts contribute nothing; unrated participants are left out of the average,
// which is rounded half away from zero. Rating is nil when nobody rated.
func (s *Session) RecomputeAggregates() {
	total := 0
	ratingSum := 0
	rated := 0
	for _, p := range s.Participants {
		if p.Count > 0 {
			total += p.Count
		}
		if p.Rating != nil {
			ratingSum += ClampRating(*p.Rating)
			rated++
		}
	}

	s.TotalCount = total
	if rated == 0 {
		s.Rating = nil
		return
	}
	avg := int(math.Round(float64(ratingSum) / float64(rated)))
	s.Rating = &avg
}

func ClampRating(rating int) int {
	if rating < MinRating {
		return MinRating
	}
	if rating > MaxRating {
		return MaxRating
	}
	return rating
}

func ValidRating(rating *int) bool {
	return rating == nil || (*rating >= MinRating && *rating <= MaxRating)
}

// ClampCount keeps a stored count at zero or above.
func ClampCount(count int) int {
	if count < 0 {
		return 0
	}
	return count
}
