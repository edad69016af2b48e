package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"twobeats/internal/auth"
	"twobeats/internal/config"
	"twobeats/internal/database"
	"twobeats/internal/handlers"
	"twobeats/internal/logger"
	"twobeats/internal/mediaprobe"
	"twobeats/internal/middleware"
	"twobeats/internal/routes"
	"twobeats/internal/services"
	"twobeats/internal/storage"
	"twobeats/internal/thumbnail"
	"twobeats/internal/validator"
	"twobeats/internal/workers"
	"twobeats/internal/ws"
	"twobeats/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// App is a fully wired twobeats server.
type App struct {
	Config   *config.Config
	DB       *gorm.DB
	Storage  storage.Storage
	Services *services.ServiceContainer
	Hub      *ws.Hub
	Router   *gin.Engine
	Janitor  *workers.StagingJanitor
}

// Options replaces collaborators that talk to external binaries.
// Zero fields fall back to the configured implementations.
type Options struct {
	DB         *gorm.DB
	Storage    storage.Storage
	Prober     services.MetadataProber
	Thumbnails thumbnail.Generator
}

// New builds the application from cfg. It does not start any goroutine.
func New(cfg *config.Config, opts Options) (*App, error) {
	apperrors.SetDebug(cfg.Server.Env == "development")
	if cfg.Server.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	db := opts.DB
	if db == nil {
		var err error
		if db, err = openDatabase(cfg.Database); err != nil {
			return nil, err
		}
	}

	st := opts.Storage
	if st == nil {
		var err error
		if st, err = newStorage(cfg.Storage); err != nil {
			return nil, err
		}
	}

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWTTTL())
	a := &App{Config: cfg, DB: db, Storage: st, Hub: ws.NewHub()}
	a.Services = initializeServices(cfg, st, tokens, a.Hub, opts)
	a.Router = SetupRouter(cfg, db, st, tokens, a.Services, a.Hub)
	a.Janitor = workers.NewStagingJanitor(db, a.Services.UploadService, time.Duration(cfg.Upload.JanitorInterval)*time.Second)
	return a, nil
}

// InitLogger configures the global logger from cfg.Log.
func InitLogger(cfg *config.Config) {
	logger.InitWithOptions(logger.Options{
		Env:        cfg.Server.Env,
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.Rotation.MaxSize,
		MaxBackups: cfg.Log.Rotation.MaxBackups,
		MaxAgeDays: cfg.Log.Rotation.MaxAge,
		Compress:   cfg.Log.Rotation.Compress,
	})
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.Hub.Run(ctx)
	a.Janitor.Start(ctx)

	srv := &http.Server{
		Addr:              a.Config.Addr(),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "addr", srv.Addr, "env", a.Config.Server.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	timeout := time.Duration(a.Config.Server.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, stop := context.WithTimeout(context.Background(), timeout)
	defer stop()

	logger.Info("Shutting down server", "timeout", timeout)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	cancel()
	a.Janitor.Wait()

	if serveErr != nil {
		return fmt.Errorf("server error: %w", serveErr)
	}
	return nil
}

// Close releases the database pool.
func (a *App) Close() error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func openDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	logger.Info("Connecting to database...", "driver", cfg.Driver)
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get *sql.DB from GORM: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database unavailable: %w", err)
	}
	if cfg.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return nil, err
		}
	}
	logger.Info("Database connected")
	return db, nil
}

func newStorage(cfg config.StorageConfig) (storage.Storage, error) {
	st, err := storage.NewStorage(storage.Config{
		Type:       cfg.Type,
		BasePath:   cfg.BasePath,
		BaseURL:    cfg.BaseURL,
		Bucket:     cfg.Bucket,
		Region:     cfg.Region,
		AccessKey:  cfg.AccessKey,
		SecretKey:  cfg.SecretKey,
		Endpoint:   cfg.Endpoint,
		UseSSL:     cfg.UseSSL,
		PublicRead: cfg.PublicRead,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Info("Storage initialized", "type", cfg.Type)
	return st, nil
}

// SetupRouter wires handlers and middleware onto a fresh gin engine.
func SetupRouter(cfg *config.Config, db *gorm.DB, st storage.Storage, tokens *auth.TokenManager, svc *services.ServiceContainer, hub *ws.Hub) *gin.Engine {
	appHandlers := handlers.NewAppHandlers(svc, validator.New(), tokens, st)

	ginRouter := initializeGinRouter(db)
	if cfg.Upload.MaxMultipartBytes > 0 {
		ginRouter.MaxMultipartMemory = cfg.Upload.MaxMultipartBytes
	}

	routes.RegisterRoutes(ginRouter, appHandlers, ws.NewHandler(hub))
	return ginRouter
}

func initializeServices(cfg *config.Config, st storage.Storage, tokens *auth.TokenManager, hub *ws.Hub, opts Options) *services.ServiceContainer {
	prober := opts.Prober
	if prober == nil {
		prober = mediaprobe.NewProber(mediaprobe.Config{
			FfmpegBinPath:  cfg.Thumbnail.FfmpegPath,
			FfprobeBinPath: cfg.Thumbnail.FfprobePath,
		})
	}

	thumbs := opts.Thumbnails
	if thumbs == nil {
		thumbs = thumbnail.NewFrameGenerator(thumbnail.Config{
			Enabled:        cfg.Thumbnail.Enabled,
			FfmpegBinPath:  cfg.Thumbnail.FfmpegPath,
			FfprobeBinPath: cfg.Thumbnail.FfprobePath,
			Width:          cfg.Thumbnail.Width,
			Height:         cfg.Thumbnail.Height,
			Quality:        cfg.Thumbnail.Quality,
			Timeout:        time.Duration(cfg.Thumbnail.Timeout) * time.Second,
		})
	}

	return services.NewServiceContainer(services.Dependencies{
		Storage:    st,
		Tokens:     tokens,
		Prober:     prober,
		Thumbnails: thumbs,
		Publisher:  hub,
		Upload:     services.UploadConfigFrom(cfg),
	})
}

func initializeGinRouter(db *gorm.DB) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DBMiddleware(db))
	return router
}
