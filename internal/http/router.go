package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Sessions, Status and Stats are required; the catalog controllers are
// mounted only when their store is configured.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Version)
	sessionsController := NewSessionsController(cfg.Sessions)
	statusController := NewStatusController(cfg.Status)
	statsController := NewStatsController(cfg.Stats)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := router.Group("/api")

	// Reading sessions
	sessions := api.Group("/sessions")
	sessions.GET("", sessionsController.List)
	sessions.POST("", sessionsController.Start)
	sessions.GET("/active", sessionsController.Active)
	sessions.GET("/eligible-books", sessionsController.EligibleBooks)
	sessions.GET("/:id/elapsed", sessionsController.Elapsed)
	sessions.POST("/:id/end", sessionsController.End)
	sessions.POST("/:id/book", sessionsController.Bind)
	sessions.POST("/:id/finish", sessionsController.Finish)
	sessions.DELETE("/:id", sessionsController.Discard)

	// Reading status
	api.GET("/books/:id/status", statusController.GetStatus)
	api.PUT("/books/:id/status", statusController.SetStatus)

	// Statistics
	statsController.RegisterRoutes(api.Group("/stats"))

	// Books API endpoints
	if cfg.Books != nil {
		booksController := NewBooksController(cfg.Books, cfg.Enricher, cfg.Tasks)
		api.POST("/books", booksController.CreateBook)
		api.GET("/books", booksController.GetAllBooks)
		api.GET("/books/:id", booksController.GetBook)
		api.DELETE("/books/:id", booksController.DeleteBook)
		api.POST("/books/:id/enrich", booksController.EnrichBook)
	}

	if cfg.Ratings != nil {
		ratingsController := NewRatingsController(cfg.Ratings)
		api.GET("/books/:id/rating", ratingsController.GetRating)
		api.PUT("/books/:id/rating", ratingsController.RateBook)
		api.DELETE("/books/:id/rating", ratingsController.DeleteRating)
	}

	// Favourites endpoints
	if cfg.Favourites != nil {
		favouritesController := NewFavouritesController(cfg.Favourites)
		api.GET("/favourites", favouritesController.ListFavourites)
		api.GET("/favourites/count", favouritesController.GetFavouriteCount)
		api.GET("/books/:id/favourite", favouritesController.IsFavourite)
		api.POST("/books/:id/favourite", favouritesController.AddFavourite)
		api.DELETE("/books/:id/favourite", favouritesController.RemoveFavourite)
	}

	if cfg.Wishlist != nil {
		wishlistController := NewWishlistController(cfg.Wishlist, cfg.Tasks)
		api.GET("/wishlist", wishlistController.ListItems)
		api.POST("/wishlist", wishlistController.AddItem)
		api.GET("/wishlist/:id", wishlistController.GetItem)
		api.DELETE("/wishlist/:id", wishlistController.RemoveItem)
		api.POST("/wishlist/:id/acquire", wishlistController.Acquire)
	}

	// Task management endpoints
	if cfg.Tasks != nil {
		tasksController := NewTasksController(cfg.Tasks)
		api.GET("/tasks/types", tasksController.ListTaskTypes)
		api.GET("/tasks/:id", tasksController.GetTaskStatus)
		api.POST("/tasks/:type/run", tasksController.RunTask)
	}

	return router
}
