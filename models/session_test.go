package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestRecomputeAggregates(t *testing.T) {
	tests := []struct {
		name       string
		parts      []Participant
		wantTotal  int
		wantRating *int
	}{
		{
			name:       "no participants",
			wantTotal:  0,
			wantRating: nil,
		},
		{
			name: "unrated participants leave rating nil",
			parts: []Participant{
				{UserID: "a", Count: 4},
				{UserID: "b", Count: 6},
			},
			wantTotal:  10,
			wantRating: nil,
		},
		{
			name: "average ignores unrated participants",
			parts: []Participant{
				{UserID: "a", Count: 3, Rating: intPtr(8)},
				{UserID: "b", Count: 2},
				{UserID: "c", Count: 1, Rating: intPtr(6)},
			},
			wantTotal:  6,
			wantRating: intPtr(7),
		},
		{
			name: "half rounds away from zero",
			parts: []Participant{
				{UserID: "a", Rating: intPtr(7)},
				{UserID: "b", Rating: intPtr(8)},
			},
			wantTotal:  0,
			wantRating: intPtr(8),
		},
		{
			name: "negative counts contribute nothing",
			parts: []Participant{
				{UserID: "a", Count: -5},
				{UserID: "b", Count: 12},
			},
			wantTotal: 12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Session{Participants: tt.parts}
			s.RecomputeAggregates()

			assert.Equal(t, tt.wantTotal, s.TotalCount)
			if tt.wantRating == nil {
				assert.Nil(t, s.Rating)
			} else {
				require.NotNil(t, s.Rating)
				assert.Equal(t, *tt.wantRating, *s.Rating)
			}
		})
	}
}

func TestValidRating(t *testing.T) {
	assert.True(t, ValidRating(nil))
	assert.True(t, ValidRating(intPtr(1)))
	assert.True(t, ValidRating(intPtr(10)))
	assert.False(t, ValidRating(intPtr(0)))
	assert.False(t, ValidRating(intPtr(11)))
}

func TestSessionLookups(t *testing.T) {
	s := &Session{
		Participants: []Participant{{UserID: "a"}, {UserID: "b"}},
		Images:       []ImageRef{{ID: "img-1"}, {ID: "img-2", IsThumbnail: true}},
	}

	assert.Equal(t, 1, s.FindParticipant("b"))
	assert.Equal(t, -1, s.FindParticipant("z"))
	require.NotNil(t, s.FindImage("img-1"))
	assert.Nil(t, s.FindImage("missing"))
	require.NotNil(t, s.Thumbnail())
	assert.Equal(t, "img-2", s.Thumbnail().ID)
}

func TestOrderedPair(t *testing.T) {
	f := NewFriendship("zed", "amy")
	assert.Equal(t, "amy", f.User1ID)
	assert.Equal(t, "zed", f.User2ID)
}

func TestEmailHelpers(t *testing.T) {
	assert.Equal(t, "alice@example.com", NormalizeEmail("  Alice@Example.COM "))
	assert.Equal(t, "alice", NameFromEmail("Alice@example.com"))
}
