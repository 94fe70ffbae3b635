package repositories

import (
	"context"

	"gorm.io/gorm"

	"sushicount-api/models"
)

// ParticipantRepository edits the participant list of a session. Every change reloads the whole
// session, applies the edit, recomputes the aggregates and writes the session back; concurrent
// writers overwrite each other.
type ParticipantRepository struct {
	db *gorm.DB
}

func NewParticipantRepository(db *gorm.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// AddOrUpdate adds p to the session, or adds p.Count to an existing participant's count.
// The rating is only replaced when p carries one.
func (r *ParticipantRepository) AddOrUpdate(ctx context.Context, sessionID string, p models.Participant) (*models.Session, error) {
	if p.UserID == "" || !models.ValidRating(p.Rating) {
		return nil, ErrInvalidRequest
	}

	var session *models.Session
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		session, err = loadSession(tx.Preload("Participants"), sessionID)
		if err != nil {
			return err
		}
		if !session.IsActive {
			return ErrSessionClosed
		}

		if i := session.FindParticipant(p.UserID); i >= 0 {
			existing := &session.Participants[i]
			existing.Count = models.ClampCount(existing.Count + p.Count)
			if p.Rating != nil {
				existing.Rating = p.Rating
			}
		} else {
			session.Participants = append(session.Participants, models.Participant{
				SessionID: sessionID,
				UserID:    p.UserID,
				Count:     models.ClampCount(p.Count),
				Rating:    p.Rating,
			})
		}

		session.RecomputeAggregates()
		return rewriteSession(tx, session)
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Remove drops userID from the session.
func (r *ParticipantRepository) Remove(ctx context.Context, sessionID, userID string) (*models.Session, error) {
	var session *models.Session
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		session, err = loadSession(tx.Preload("Participants"), sessionID)
		if err != nil {
			return err
		}

		i := session.FindParticipant(userID)
		if i < 0 {
			return ErrNotFound
		}
		session.Participants = append(session.Participants[:i], session.Participants[i+1:]...)

		session.RecomputeAggregates()
		return rewriteSession(tx, session)
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}
