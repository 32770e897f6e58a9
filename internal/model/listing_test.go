package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListingStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from ListingStatus
		to   ListingStatus
		want bool
	}{
		{ListingDraft, ListingActive, true},
		{ListingActive, ListingSold, true},
		{ListingActive, ListingRejected, true},
		{ListingRejected, ListingDraft, true},
		{ListingDraft, ListingDeleted, true},
		{ListingSold, ListingDeleted, true},
		{ListingRejected, ListingDeleted, true},

		{ListingSold, ListingActive, false},
		{ListingDeleted, ListingActive, false},
		{ListingDeleted, ListingDeleted, false},
		{ListingDraft, ListingSold, false},
		{ListingActive, ListingDraft, false},
		{ListingActive, ListingActive, false},
		{ListingStatus("archived"), ListingDeleted, false},
		{ListingDraft, ListingStatus("archived"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestStringArray_ValueScan(t *testing.T) {
	v, err := StringArray(nil).Value()
	assert.NoError(t, err)
	assert.Equal(t, "[]", v)

	var s StringArray
	assert.NoError(t, s.Scan([]byte(`["a.jpg","b.jpg"]`)))
	assert.Equal(t, StringArray{"a.jpg", "b.jpg"}, s)

	assert.NoError(t, s.Scan(`["c.jpg"]`))
	assert.Equal(t, StringArray{"c.jpg"}, s)

	assert.NoError(t, s.Scan(nil))
	assert.Empty(t, s)
}

func TestConversation_Participants(t *testing.T) {
	c := &Conversation{BuyerID: 1, SellerID: 2}
	assert.True(t, c.HasParticipant(1))
	assert.True(t, c.HasParticipant(2))
	assert.False(t, c.HasParticipant(3))
	assert.Equal(t, int64(2), c.Counterpart(1))
	assert.Equal(t, int64(1), c.Counterpart(2))
}
