package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventCapacityConsistency(t *testing.T) {
	// IsFull must hold exactly when no spots remain, for every
	// capacity/confirmed combination.
	for capacity := 0; capacity <= 5; capacity++ {
		for confirmed := 0; confirmed <= 7; confirmed++ {
			event := &Event{Capacity: capacity, ConfirmedCount: confirmed}
			assert.Equal(t, event.RemainingCapacity() == 0, event.IsFull(),
				"capacity=%d confirmed=%d", capacity, confirmed)
			assert.GreaterOrEqual(t, event.RemainingCapacity(), 0)
		}
	}
}

func TestEventRemainingCapacity(t *testing.T) {
	event := &Event{Capacity: 10, ConfirmedCount: 4}
	assert.Equal(t, 6, event.RemainingCapacity())
	assert.False(t, event.IsFull())

	event.ConfirmedCount = 10
	assert.Equal(t, 0, event.RemainingCapacity())
	assert.True(t, event.IsFull())

	// Oversubscribed events still report zero, never negative.
	event.ConfirmedCount = 12
	assert.Equal(t, 0, event.RemainingCapacity())
	assert.True(t, event.IsFull())
}

func TestContributionStatusTerminal(t *testing.T) {
	assert.False(t, ContributionStatusPending.Terminal())
	assert.True(t, ContributionStatusApproved.Terminal())
	assert.True(t, ContributionStatusRejected.Terminal())
	assert.False(t, ContributionStatus("BOGUS").Valid())
}
