// Package stats derives the reading statistics shown on the profile page.
//
// Every method is a read-only query against the current rows; nothing is
// cached between calls. Rows are selected with UTC bounds and bucketed into
// months, years, days and weekdays after converting each timestamp into the
// configured time zone, so a session started at 23:30 local time counts for
// that local day whatever the UTC offset was at the time.
package stats

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	DefaultStreakWindowDays   = 30
	DefaultLatestRatingsLimit = 5

	monthlySlots = 6
	dayLayout    = "2006-01-02"
	monthLayout  = "2006-01"
)

// Aggregator computes statistics from sessions, statuses, genres and ratings.
type Aggregator struct {
	db            *gorm.DB
	loc           *time.Location
	now           func() time.Time
	streakWindow  int
	latestRatings int
}

// NewAggregator creates an aggregator bucketing by the calendar of loc.
// A nil loc means time.Local.
func NewAggregator(db *gorm.DB, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.Local
	}
	return &Aggregator{
		db:            db,
		loc:           loc,
		now:           time.Now,
		streakWindow:  DefaultStreakWindowDays,
		latestRatings: DefaultLatestRatingsLimit,
	}
}

// SetClock replaces the time source (tests).
func (a *Aggregator) SetClock(now func() time.Time) {
	a.now = now
}

// SetStreakWindow sets how many trailing days ReadingStreak looks at.
func (a *Aggregator) SetStreakWindow(days int) {
	if days > 0 {
		a.streakWindow = days
	}
}

// SetLatestRatingsLimit sets how many ratings Dashboard includes.
func (a *Aggregator) SetLatestRatingsLimit(limit int) {
	if limit > 0 {
		a.latestRatings = limit
	}
}

// Dashboard is every statistic at once, as served to the profile page.
type Dashboard struct {
	Reading             ReadingStats   `json:"reading"`
	Monthly             []MonthlyDatum `json:"monthly"`
	Yearly              []YearlyDatum  `json:"yearly"`
	Genres              []GenreDatum   `json:"genres"`
	Weekly              []WeeklyDatum  `json:"weekly"`
	LatestRatings       []RatedBook    `json:"latest_ratings"`
	Ratings             RatingStats    `json:"ratings"`
	TotalReadingMinutes int64          `json:"total_reading_minutes"`
	AverageReadingHours float64        `json:"average_reading_hours"`
	Streak              int            `json:"streak"`
}

// Dashboard runs all statistics queries concurrently. The first failure
// cancels the rest and is returned.
func (a *Aggregator) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		d.Reading, err = a.ReadingStatistics(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.Monthly, err = a.MonthlyReadingData(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.Yearly, err = a.YearlyReadingData(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.Genres, err = a.GenreDistribution(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.Weekly, err = a.WeeklyProgressData(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.LatestRatings, err = a.LatestBookRatings(ctx, a.latestRatings)
		return err
	})
	g.Go(func() (err error) {
		d.Ratings, err = a.RatingStatistics(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.TotalReadingMinutes, err = a.TotalReadingTime(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.AverageReadingHours, err = a.AverageReadingTime(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.Streak, err = a.ReadingStreak(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build dashboard: %w", err)
	}
	return &d, nil
}

// localNow returns the current time in the aggregator's zone.
func (a *Aggregator) localNow() time.Time {
	return a.now().In(a.loc)
}

// dayStart returns local midnight of the day offset days after t's day, as a
// UTC instant comparable with stored timestamps.
func (a *Aggregator) dayStart(t time.Time, offset int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+offset, 0, 0, 0, 0, a.loc).UTC()
}

// addDays shifts a "2006-01-02" day key. Day keys are parsed in UTC so the
// arithmetic is free of DST gaps.
func addDays(day string, n int) string {
	t, err := time.Parse(dayLayout, day)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, n).Format(dayLayout)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
