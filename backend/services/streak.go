package services

import (
	"sort"
	"time"
)

type Streaks struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CalculateStreaks derives current and longest consecutive-day streaks
// from raw activity timestamps. Timestamps reduce to calendar days and
// deduplicate before either walk.
//
// The current streak starts at today when today has activity, otherwise
// at yesterday: checking in on a day before doing anything must not
// zero out a streak that is still unbroken. The longest streak is a
// plain adjacent-day scan over the sorted unique days. The two rules
// are deliberately independent; they can disagree on a stale log and
// that mismatch is kept as-is.
func CalculateStreaks(timestamps []time.Time, now time.Time) Streaks {
	if len(timestamps) == 0 {
		return Streaks{}
	}

	daySet := make(map[time.Time]bool, len(timestamps))
	for _, ts := range timestamps {
		daySet[dayOf(ts)] = true
	}

	current := 0
	check := dayOf(now)
	if !daySet[check] {
		check = check.AddDate(0, 0, -1)
	}
	for daySet[check] {
		current++
		check = check.AddDate(0, 0, -1)
	}

	days := make([]time.Time, 0, len(daySet))
	for day := range daySet {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	longest := 1
	run := 1
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	return Streaks{Current: current, Longest: longest}
}
