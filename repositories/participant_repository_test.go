package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sushicount-api/models"
)

func TestParticipantRepository_AddOrUpdate(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t)
	alice := createUser(t, f.users, "alice")
	bob := createUser(t, f.users, "bob")
	session := f.createSession(t, alice.ID, "Sushi Night")

	updated, err := f.participants.AddOrUpdate(ctx, session.ID, models.Participant{UserID: alice.ID, Count: 5, Rating: intPtr(7)})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.TotalCount)

	_, err = f.participants.AddOrUpdate(ctx, session.ID, models.Participant{UserID: bob.ID, Count: 2, Rating: intPtr(8)})
	require.NoError(t, err)

	// adding to an existing participant keeps the rating when none is given
	updated, err = f.participants.AddOrUpdate(ctx, session.ID, models.Participant{UserID: alice.ID, Count: 3})
	require.NoError(t, err)
	assert.Equal(t, 10, updated.TotalCount)
	require.NotNil(t, updated.Rating)
	assert.Equal(t, 8, *updated.Rating)

	loaded, err := f.sessions.GetByID(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Participants, 2)
	assert.Equal(t, 10, loaded.TotalCount)
	aliceRow := loaded.Participants[loaded.FindParticipant(alice.ID)]
	assert.Equal(t, 8, aliceRow.Count)
	require.NotNil(t, aliceRow.Rating)
	assert.Equal(t, 7, *aliceRow.Rating)

	var stored models.Session
	require.NoError(t, f.db.First(&stored, "id = ?", session.ID).Error)
	assert.Equal(t, 10, stored.TotalCount)
	require.NotNil(t, stored.Rating)
	assert.Equal(t, 8, *stored.Rating)
}

func TestParticipantRepository_CountNeverNegative(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t)
	alice := createUser(t, f.users, "alice")
	session := f.createSession(t, alice.ID, "Sushi Night", models.Participant{UserID: alice.ID, Count: 2})

	updated, err := f.participants.AddOrUpdate(ctx, session.ID, models.Participant{UserID: alice.ID, Count: -5})
	require.NoError(t, err)
	assert.Equal(t, 0, updated.TotalCount)
	assert.Equal(t, 0, updated.Participants[0].Count)
	assert.Nil(t, updated.Rating)
}

func TestParticipantRepository_Errors(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t)
	alice := createUser(t, f.users, "alice")
	session := f.createSession(t, alice.ID, "Sushi Night")

	tests := []struct {
		name      string
		sessionID string
		p         models.Participant
		want      error
	}{
		{name: "missing user id", sessionID: session.ID, p: models.Participant{Count: 1}, want: ErrInvalidRequest},
		{name: "rating too low", sessionID: session.ID, p: models.Participant{UserID: alice.ID, Rating: intPtr(0)}, want: ErrInvalidRequest},
		{name: "rating too high", sessionID: session.ID, p: models.Participant{UserID: alice.ID, Rating: intPtr(11)}, want: ErrInvalidRequest},
		{name: "unknown session", sessionID: "missing", p: models.Participant{UserID: alice.ID, Count: 1}, want: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.participants.AddOrUpdate(ctx, tt.sessionID, tt.p)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParticipantRepository_ClosedSession(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t)
	alice := createUser(t, f.users, "alice")
	session := f.createSession(t, alice.ID, "Sushi Night")

	session.IsActive = false
	require.NoError(t, f.sessions.Update(ctx, session))

	_, err := f.participants.AddOrUpdate(ctx, session.ID, models.Participant{UserID: alice.ID, Count: 1})
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestParticipantRepository_Remove(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t)
	alice := createUser(t, f.users, "alice")
	bob := createUser(t, f.users, "bob")
	session := f.createSession(t, alice.ID, "Sushi Night",
		models.Participant{UserID: alice.ID, Count: 4, Rating: intPtr(9)},
		models.Participant{UserID: bob.ID, Count: 6, Rating: intPtr(5)},
	)

	updated, err := f.participants.Remove(ctx, session.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, updated.TotalCount)
	require.NotNil(t, updated.Rating)
	assert.Equal(t, 5, *updated.Rating)

	_, err = f.participants.Remove(ctx, session.ID, alice.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.participants.Remove(ctx, "missing", bob.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
