package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReserveFailurePrecedence(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	cases := []struct {
		name      string
		startsAt  time.Time
		capacity  uint32
		count     uint32
		attending bool
		want      error
	}{
		{"past event", past, 10, 0, false, ErrEventInPast},
		{"start exactly now counts as past", now, 10, 0, false, ErrEventInPast},
		{"past wins over duplicate", past, 10, 5, true, ErrEventInPast},
		{"past wins over full", past, 10, 10, false, ErrEventInPast},
		{"duplicate", future, 10, 5, true, ErrAlreadyReserved},
		{"duplicate wins over full", future, 10, 10, true, ErrAlreadyReserved},
		{"full", future, 10, 10, false, ErrEventFull},
		{"overfull still reports full", future, 10, 11, false, ErrEventFull},
		{"no condition holds means a slot was freed", future, 10, 5, false, errSlotFreed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := reserveFailure(tc.startsAt, tc.capacity, tc.count, tc.attending, now)
			assert.ErrorIs(t, got, tc.want)
		})
	}
}
