package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/mrlokans/bookshelf/internal/entities"
)

const unknownAuthor = "Unknown author"

// RatedBook is a rating together with the rated book's title and authors.
type RatedBook struct {
	BookID  uint      `json:"book_id"`
	Title   string    `json:"title"`
	Authors string    `json:"authors"`
	Rating  int       `json:"rating"`
	Comment *string   `json:"comment,omitempty"`
	RatedAt time.Time `json:"rated_at"`
}

type RatingStats struct {
	Average      float64       `json:"average"`
	Total        int64         `json:"total"`
	Distribution map[int]int64 `json:"distribution"` // keys 1..5, always present
}

// LatestBookRatings returns the most recent ratings, newest first.
// A limit of zero or less means DefaultLatestRatingsLimit.
func (a *Aggregator) LatestBookRatings(ctx context.Context, limit int) ([]RatedBook, error) {
	if limit <= 0 {
		limit = DefaultLatestRatingsLimit
	}

	var ratings []entities.Rating
	err := a.db.WithContext(ctx).
		Preload("Book.Authors").
		Order("rated_at DESC, id DESC").
		Limit(limit).
		Find(&ratings).Error
	if err != nil {
		return nil, fmt.Errorf("load latest ratings: %w", err)
	}

	result := make([]RatedBook, 0, len(ratings))
	for _, r := range ratings {
		authors := r.Book.AuthorNames()
		if authors == "" {
			authors = unknownAuthor
		}
		result = append(result, RatedBook{
			BookID:  r.BookID,
			Title:   r.Book.Title,
			Authors: authors,
			Rating:  r.Rating,
			Comment: r.Comment,
			RatedAt: r.RatedAt,
		})
	}
	return result, nil
}

// RatingStatistics returns the average rating rounded to one decimal, the
// number of ratings and how many ratings each star value has.
func (a *Aggregator) RatingStatistics(ctx context.Context) (RatingStats, error) {
	var rows []struct {
		Rating int
		Count  int64
	}
	err := a.db.WithContext(ctx).
		Model(&entities.Rating{}).
		Select("rating, COUNT(*) AS count").
		Group("rating").
		Scan(&rows).Error
	if err != nil {
		return RatingStats{}, fmt.Errorf("count ratings: %w", err)
	}

	stats := RatingStats{Distribution: map[int]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	var sum int64
	for _, row := range rows {
		stats.Total += row.Count
		sum += int64(row.Rating) * row.Count
		if _, ok := stats.Distribution[row.Rating]; ok {
			stats.Distribution[row.Rating] = row.Count
		}
	}
	if stats.Total > 0 {
		stats.Average = round1(float64(sum) / float64(stats.Total))
	}
	return stats, nil
}
