package stats

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// TotalReadingTime returns the time spent in closed sessions, in whole
// minutes (rounded).
func (a *Aggregator) TotalReadingTime(ctx context.Context) (int64, error) {
	var seconds int64
	err := a.db.WithContext(ctx).
		Model(&entities.ReadingSession{}).
		Select("COALESCE(SUM(duration), 0)").
		Where("end_time IS NOT NULL").
		Scan(&seconds).Error
	if err != nil {
		return 0, fmt.Errorf("sum reading time: %w", err)
	}
	return int64(math.Round(float64(seconds) / 60)), nil
}

// AverageReadingTime returns how many hours, on average, went into each
// completed book that has sessions, rounded to one decimal.
func (a *Aggregator) AverageReadingTime(ctx context.Context) (float64, error) {
	var row struct {
		Seconds int64
		Books   int64
	}
	err := a.db.WithContext(ctx).
		Table("reading_sessions").
		Select("COALESCE(SUM(reading_sessions.duration), 0) AS seconds, COUNT(DISTINCT reading_sessions.book_id) AS books").
		Joins("JOIN reading_status ON reading_status.book_id = reading_sessions.book_id").
		Where("reading_status.status = ? AND reading_sessions.end_time IS NOT NULL", entities.StatusCompleted).
		Scan(&row).Error
	if err != nil {
		return 0, fmt.Errorf("average reading time: %w", err)
	}
	if row.Books == 0 {
		return 0, nil
	}
	return round1(float64(row.Seconds) / float64(row.Books) / 3600), nil
}

// ReadingStreak returns the number of consecutive days with at least one
// closed session, ending at the most recent such day. The streak is 0 when
// that day is before yesterday; a streak ending yesterday is still live.
// Only the trailing streak window is considered.
func (a *Aggregator) ReadingStreak(ctx context.Context) (int, error) {
	now := a.localNow()

	var starts []time.Time
	err := a.db.WithContext(ctx).
		Model(&entities.ReadingSession{}).
		Where("end_time IS NOT NULL").
		Where("start_time >= ? AND start_time < ?", a.dayStart(now, -(a.streakWindow-1)), a.dayStart(now, 1)).
		Pluck("start_time", &starts).Error
	if err != nil {
		return 0, fmt.Errorf("load active days: %w", err)
	}

	seen := make(map[string]bool, len(starts))
	days := make([]string, 0, len(starts))
	for _, start := range starts {
		day := start.In(a.loc).Format(dayLayout)
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))

	return streakLength(days, now.Format(dayLayout)), nil
}

// streakLength counts the run of consecutive days at the head of days, which
// must be distinct and sorted newest first.
func streakLength(days []string, today string) int {
	if len(days) == 0 || days[0] < addDays(today, -1) {
		return 0
	}
	streak := 0
	expected := days[0]
	for _, day := range days {
		if day != expected {
			break
		}
		streak++
		expected = addDays(expected, -1)
	}
	return streak
}
