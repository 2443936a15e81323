package stats

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/mrlokans/bookshelf/internal/entities"
)

const otherGenreLabel = "Other"

// ReadingStats is the number of books in each reading status.
type ReadingStats struct {
	BooksRead    int64 `json:"books_read"`
	BooksReading int64 `json:"books_reading"`
	BooksToRead  int64 `json:"books_to_read"`
	TotalBooks   int64 `json:"total_books"`
}

// MonthlyDatum is the number of books completed in one calendar month.
type MonthlyDatum struct {
	Month string `json:"month"` // 2006-01
	Label string `json:"label"` // Jan
	Count int64  `json:"count"`
}

// YearlyDatum is the number of books completed in one calendar year.
type YearlyDatum struct {
	Year  int    `json:"year"`
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// GenreDatum is one slice of the genre distribution.
type GenreDatum struct {
	Label      string `json:"label"`
	Count      int64  `json:"count"`
	Percentage int    `json:"percentage"`
}

// WeeklyDatum is the number of closed sessions started on one weekday.
type WeeklyDatum struct {
	Day          string `json:"day"` // Sun..Sat
	SessionCount int64  `json:"session_count"`
}

// ReadingStatistics counts books per reading status.
func (a *Aggregator) ReadingStatistics(ctx context.Context) (ReadingStats, error) {
	var rows []struct {
		Status entities.Status
		Count  int64
	}
	err := a.db.WithContext(ctx).
		Model(&entities.ReadingStatus{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return ReadingStats{}, fmt.Errorf("count reading statuses: %w", err)
	}

	var stats ReadingStats
	for _, row := range rows {
		switch row.Status {
		case entities.StatusCompleted:
			stats.BooksRead = row.Count
		case entities.StatusReading:
			stats.BooksReading = row.Count
		case entities.StatusToRead:
			stats.BooksToRead = row.Count
		}
	}
	stats.TotalBooks = stats.BooksRead + stats.BooksReading + stats.BooksToRead
	return stats, nil
}

// MonthlyReadingData returns completed books per month for the current month
// and the five before it, oldest first. Months without completions are zero.
func (a *Aggregator) MonthlyReadingData(ctx context.Context) ([]MonthlyDatum, error) {
	now := a.localNow()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, a.loc)
	from := firstOfMonth.AddDate(0, -(monthlySlots - 1), 0)
	to := firstOfMonth.AddDate(0, 1, 0)

	series := make([]MonthlyDatum, monthlySlots)
	for i := range series {
		month := from.AddDate(0, i, 0)
		series[i] = MonthlyDatum{Month: month.Format(monthLayout), Label: month.Format("Jan")}
	}

	var ends []time.Time
	err := a.db.WithContext(ctx).
		Model(&entities.ReadingStatus{}).
		Where("status = ? AND end_time IS NOT NULL", entities.StatusCompleted).
		Where("end_time >= ? AND end_time < ?", from.UTC(), to.UTC()).
		Pluck("end_time", &ends).Error
	if err != nil {
		return nil, fmt.Errorf("count monthly completions: %w", err)
	}

	counts := make(map[string]int64, monthlySlots)
	for _, end := range ends {
		counts[end.In(a.loc).Format(monthLayout)]++
	}
	for i := range series {
		series[i].Count = counts[series[i].Month]
	}
	return series, nil
}

// YearlyReadingData returns completed books per year from the first to the
// last year with a completion, without gaps. It is empty when nothing has
// been completed.
func (a *Aggregator) YearlyReadingData(ctx context.Context) ([]YearlyDatum, error) {
	var ends []time.Time
	err := a.db.WithContext(ctx).
		Model(&entities.ReadingStatus{}).
		Where("status = ? AND end_time IS NOT NULL", entities.StatusCompleted).
		Pluck("end_time", &ends).Error
	if err != nil {
		return nil, fmt.Errorf("count yearly completions: %w", err)
	}

	counts := make(map[int]int64)
	first, last := 0, 0
	for _, end := range ends {
		year := end.In(a.loc).Year()
		counts[year]++
		if first == 0 || year < first {
			first = year
		}
		if year > last {
			last = year
		}
	}

	series := []YearlyDatum{}
	if first == 0 {
		return series, nil
	}
	for year := first; year <= last; year++ {
		series = append(series, YearlyDatum{Year: year, Label: strconv.Itoa(year), Count: counts[year]})
	}
	return series, nil
}

// GenreDistribution returns the share of each genre among all book-genre
// links. With more than five genres the four largest are kept and the rest
// are summed into "Other". Percentages are rounded per bucket and may not
// add up to exactly 100.
func (a *Aggregator) GenreDistribution(ctx context.Context) ([]GenreDatum, error) {
	var rows []struct {
		Label string
		Count int64
	}
	err := a.db.WithContext(ctx).
		Table("book_genres").
		Select("genres.name AS label, COUNT(*) AS count").
		Joins("JOIN genres ON genres.id = book_genres.genre_id").
		Group("genres.id, genres.name").
		Order("count DESC, genres.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count genres: %w", err)
	}

	var total int64
	for _, row := range rows {
		total += row.Count
	}

	series := []GenreDatum{}
	if total == 0 {
		return series, nil
	}

	var other int64
	for i, row := range rows {
		if len(rows) > 5 && i >= 4 {
			other += row.Count
			continue
		}
		series = append(series, GenreDatum{Label: row.Label, Count: row.Count, Percentage: percentage(row.Count, total)})
	}
	if len(rows) > 5 {
		series = append(series, GenreDatum{Label: otherGenreLabel, Count: other, Percentage: percentage(other, total)})
	}
	return series, nil
}

// WeeklyProgressData counts closed sessions of the last seven days (today
// included) per weekday, Sunday first. A session counts for the day it
// started on. Open sessions are not counted.
func (a *Aggregator) WeeklyProgressData(ctx context.Context) ([]WeeklyDatum, error) {
	now := a.localNow()

	var starts []time.Time
	err := a.db.WithContext(ctx).
		Model(&entities.ReadingSession{}).
		Where("end_time IS NOT NULL").
		Where("start_time >= ? AND start_time < ?", a.dayStart(now, -6), a.dayStart(now, 1)).
		Pluck("start_time", &starts).Error
	if err != nil {
		return nil, fmt.Errorf("count weekly sessions: %w", err)
	}

	series := make([]WeeklyDatum, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		series[d] = WeeklyDatum{Day: d.String()[:3]}
	}
	for _, start := range starts {
		series[start.In(a.loc).Weekday()].SessionCount++
	}
	return series, nil
}

func percentage(count, total int64) int {
	return int(math.Round(float64(count) * 100 / float64(total)))
}
