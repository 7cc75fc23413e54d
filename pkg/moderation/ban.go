// Package moderation resolves whether a profile is currently banned.
package moderation

import "time"

// Period is one recorded ban.
type Period struct {
	Start time.Time
	End   time.Time
}

// Covers reports whether now falls inside the period, bounds inclusive.
func (p Period) Covers(now time.Time) bool {
	return !now.Before(p.Start) && !now.After(p.End)
}

// IsBanned resolves ban status. Recorded ban periods are authoritative: when a
// profile has any, bannedUntil is ignored since it is only a cached copy and may be
// stale. bannedUntil is consulted only for profiles without ban history.
func IsBanned(bannedUntil *time.Time, periods []Period, now time.Time) bool {
	if len(periods) > 0 {
		for _, p := range periods {
			if p.Covers(now) {
				return true
			}
		}
		return false
	}
	return bannedUntil != nil && bannedUntil.After(now)
}

// BannedUntil is the value to cache on the profile after ban rows change: the
// latest end among periods that have not finished yet, or nil.
func BannedUntil(periods []Period, now time.Time) *time.Time {
	var latest *time.Time
	for i := range periods {
		end := periods[i].End
		if end.Before(now) {
			continue
		}
		if latest == nil || end.After(*latest) {
			latest = &end
		}
	}
	return latest
}
