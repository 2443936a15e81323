package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/database/favourites"
	"github.com/mrlokans/bookshelf/internal/database/ratings"
	"github.com/mrlokans/bookshelf/internal/database/sessions"
	"github.com/mrlokans/bookshelf/internal/database/stats"
	"github.com/mrlokans/bookshelf/internal/database/status"
	"github.com/mrlokans/bookshelf/internal/database/wishlist"
	http_controllers "github.com/mrlokans/bookshelf/internal/http"
	"github.com/mrlokans/bookshelf/internal/metadata"
	"github.com/mrlokans/bookshelf/internal/scheduler"
	"github.com/mrlokans/bookshelf/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Services holds the stores built on top of one library database. The HTTP
// server and the CLI commands share it.
type Services struct {
	DB          *database.Database
	Books       *books.Repository
	Coordinator *status.Coordinator
	Sessions    *sessions.Manager
	Stats       *stats.Aggregator
	Ratings     *ratings.Repository
	Favourites  *favourites.Repository
	Wishlist    *wishlist.Repository
	Enricher    *metadata.Enricher // nil when metadata lookups are disabled
}

// NewServices wires every store against db using the statistics and
// metadata settings from cfg.
func NewServices(db *database.Database, cfg *config.Config) (*Services, error) {
	loc, err := cfg.Stats.Location()
	if err != nil {
		return nil, err
	}

	booksRepo := books.NewRepository(db.DB)
	coordinator := status.NewCoordinator(db.DB)

	aggregator := stats.NewAggregator(db.DB, loc)
	aggregator.SetStreakWindow(cfg.Stats.StreakWindowDays)
	aggregator.SetLatestRatingsLimit(cfg.Stats.LatestRatingsLimit)

	svc := &Services{
		DB:          db,
		Books:       booksRepo,
		Coordinator: coordinator,
		Sessions:    sessions.NewManager(db.DB, coordinator),
		Stats:       aggregator,
		Ratings:     ratings.NewRepository(db.DB),
		Favourites:  favourites.NewRepository(db.DB),
		Wishlist:    wishlist.NewRepository(db.DB, booksRepo),
	}

	if cfg.Metadata.Enabled {
		client := metadata.NewOpenLibraryClient(cfg.Metadata.BaseURL)
		svc.Enricher = metadata.NewEnricher(client, booksRepo)
	}
	return svc, nil
}

// RouterConfig builds the HTTP router configuration. queue may be nil.
func (s *Services) RouterConfig(queue *tasks.Client, version string) http_controllers.RouterConfig {
	cfg := http_controllers.RouterConfig{
		Database:   s.DB,
		Sessions:   s.Sessions,
		Status:     s.Coordinator,
		Stats:      s.Stats,
		Books:      s.Books,
		Ratings:    s.Ratings,
		Favourites: s.Favourites,
		Wishlist:   s.Wishlist,
		Version:    version,
	}
	// Leave the interfaces nil rather than holding typed nil pointers.
	if s.Enricher != nil {
		cfg.Enricher = s.Enricher
	}
	if queue != nil {
		cfg.Tasks = queue
	}
	return cfg
}

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for SIGINT or SIGTERM, then give in-flight requests the
	// configured timeout to finish.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) error {
	log.Printf("Starting Bookshelf v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	svc, err := NewServices(db, cfg)
	if err != nil {
		return err
	}
	if svc.Enricher == nil {
		log.Printf("Metadata enrichment disabled. Set 'METADATA_ENABLED=true' to look books up on OpenLibrary.")
	}

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		// Enrichment tasks fail fast when lookups are disabled.
		var enricher tasks.BookEnricher
		if svc.Enricher != nil {
			enricher = svc.Enricher
		}
		taskClient.RegisterProcessors(enricher, svc.Books)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Periodic metadata refresh runs through the task queue.
	var syncScheduler *scheduler.MetadataSyncScheduler
	if cfg.Metadata.SyncEnabled {
		if taskClient == nil {
			log.Printf("WARNING: METADATA_SYNC_ENABLED requires the task queue; periodic sync is disabled")
		} else {
			syncScheduler = scheduler.NewMetadataSyncScheduler(taskClient, scheduler.MetadataSyncConfig{
				Enabled:  true,
				Schedule: cfg.Metadata.SyncSchedule,
			})
			if err := syncScheduler.Start(context.Background()); err != nil {
				return fmt.Errorf("failed to start metadata sync scheduler: %w", err)
			}
		}
	}

	router := http_controllers.NewRouter(svc.RouterConfig(taskClient, version))

	onShutdown := func(ctx context.Context) {
		if syncScheduler != nil {
			syncScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
	return nil
}
