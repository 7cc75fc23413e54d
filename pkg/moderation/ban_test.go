package moderation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsBanned(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(72 * time.Hour)
	past := now.Add(-72 * time.Hour)

	active := Period{Start: now.Add(-time.Hour), End: future}
	expired := Period{Start: now.Add(-96 * time.Hour), End: past}
	scheduled := Period{Start: now.Add(time.Hour), End: future}

	tests := []struct {
		name        string
		bannedUntil *time.Time
		periods     []Period
		want        bool
	}{
		{"never banned", nil, nil, false},
		{"active ban row", nil, []Period{active}, true},
		{"expired ban row", nil, []Period{expired}, false},
		{"expired row with stale profile cache", &future, []Period{expired}, false},
		{"scheduled ban not started", nil, []Period{scheduled}, false},
		{"one of many active", nil, []Period{expired, active}, true},
		{"legacy profile cache only", &future, nil, true},
		{"legacy cache in the past", &past, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBanned(tt.bannedUntil, tt.periods, now))
		})
	}
}

func TestPeriodBoundsInclusive(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	p := Period{Start: start, End: end}

	assert.True(t, p.Covers(start))
	assert.True(t, p.Covers(end))
	assert.False(t, p.Covers(end.Add(time.Nanosecond)))
}

func TestBannedUntil(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	soon := now.Add(24 * time.Hour)
	later := now.Add(240 * time.Hour)

	assert.Nil(t, BannedUntil(nil, now))
	assert.Nil(t, BannedUntil([]Period{{Start: now.Add(-48 * time.Hour), End: now.Add(-time.Hour)}}, now))

	got := BannedUntil([]Period{
		{Start: now.Add(-time.Hour), End: soon},
		{Start: now.Add(-time.Hour), End: later},
		{Start: now.Add(-48 * time.Hour), End: now.Add(-time.Hour)},
	}, now)
	if assert.NotNil(t, got) {
		assert.True(t, got.Equal(later))
	}
}
