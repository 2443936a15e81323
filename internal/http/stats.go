package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type StatsController struct {
	stats StatsProvider
}

func NewStatsController(stats StatsProvider) *StatsController {
	return &StatsController{stats: stats}
}

// Dashboard handles GET /api/stats
func (sc *StatsController) Dashboard(c *gin.Context) {
	d, err := sc.stats.Dashboard(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "stats dashboard")
		return
	}
	c.JSON(http.StatusOK, d)
}

// statsHandler adapts a single aggregator read into a handler answering
// {key: value}.
func statsHandler[T any](key string, read func(ctx context.Context) (T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := read(c.Request.Context())
		if err != nil {
			respondInternalError(c, err, "stats "+key)
			return
		}
		c.JSON(http.StatusOK, gin.H{key: v})
	}
}

// LatestRatings handles GET /api/stats/ratings/latest?limit=5
func (sc *StatsController) LatestRatings(c *gin.Context) {
	limit := queryInt(c, "limit", 0, 100)
	list, err := sc.stats.LatestBookRatings(c.Request.Context(), limit)
	if err != nil {
		respondInternalError(c, err, "stats latest ratings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ratings": list})
}

// RegisterRoutes mounts the statistics endpoints under group.
func (sc *StatsController) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("", sc.Dashboard)
	group.GET("/reading", statsHandler("reading", sc.stats.ReadingStatistics))
	group.GET("/monthly", statsHandler("monthly", sc.stats.MonthlyReadingData))
	group.GET("/yearly", statsHandler("yearly", sc.stats.YearlyReadingData))
	group.GET("/genres", statsHandler("genres", sc.stats.GenreDistribution))
	group.GET("/weekly", statsHandler("weekly", sc.stats.WeeklyProgressData))
	group.GET("/ratings", statsHandler("ratings", sc.stats.RatingStatistics))
	group.GET("/ratings/latest", sc.LatestRatings)
	group.GET("/time", sc.ReadingTime)
	group.GET("/streak", statsHandler("streak", sc.stats.ReadingStreak))
}

// ReadingTime handles GET /api/stats/time
func (sc *StatsController) ReadingTime(c *gin.Context) {
	ctx := c.Request.Context()
	total, err := sc.stats.TotalReadingTime(ctx)
	if err != nil {
		respondInternalError(c, err, "stats total time")
		return
	}
	average, err := sc.stats.AverageReadingTime(ctx)
	if err != nil {
		respondInternalError(c, err, "stats average time")
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_minutes": total, "average_hours_per_book": average})
}
