package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/DepParmar/vyom/api/swagger"
	"github.com/DepParmar/vyom/internal/handler"
	"github.com/DepParmar/vyom/internal/imagecache"
	internalmiddleware "github.com/DepParmar/vyom/internal/middleware"
	"github.com/DepParmar/vyom/internal/render"
	"github.com/DepParmar/vyom/internal/repository"
	"github.com/DepParmar/vyom/internal/service"
	"github.com/DepParmar/vyom/pkg/cache"
	"github.com/DepParmar/vyom/pkg/config"
	"github.com/DepParmar/vyom/pkg/database"
	"github.com/DepParmar/vyom/pkg/jobs"
	"github.com/DepParmar/vyom/pkg/logger"
	corsmiddleware "github.com/DepParmar/vyom/pkg/middleware/cors"
	reqidmiddleware "github.com/DepParmar/vyom/pkg/middleware/requestid"
	"github.com/DepParmar/vyom/pkg/storage"
)

// @title Vyom Poster API
// @version 1.0.0
// @description Marksheet poster service: template catalog, poster drafts and gallery exports
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	photoStore, err := storage.NewLocalStorage(cfg.Drafts.PhotoDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init photo storage", "error", err)
	}
	galleryStore, err := storage.NewLocalStorage(cfg.Gallery.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init gallery storage", "error", err)
	}

	fonts, err := render.NewFonts(cfg.Render.FontPath, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to load fonts", "error", err)
	}

	appCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsSvc := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Catalog.CacheTTL, logr, cfg.Catalog.CacheEnabled && redisClient != nil)

	schoolRepo := repository.NewSchoolRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	exportRepo := repository.NewExportJobRepository(db)

	catalogSvc := service.NewCatalogService(service.CatalogServiceParams{
		Schools:   schoolRepo,
		Templates: templateRepo,
		Subjects:  subjectRepo,
		Cache:     cacheSvc,
		Logger:    logr,
		Config:    service.CatalogServiceConfig{CacheTTL: cfg.Catalog.CacheTTL},
	})

	browseSvc := service.NewBrowseService(catalogSvc, metricsSvc, nil, logr, service.BrowseServiceConfig{
		SessionTTL:    cfg.Browse.SessionTTL,
		PageSize:      cfg.Catalog.PageSize,
		SweepInterval: cfg.Browse.SweepInterval,
	})
	browseSvc.StartSweeper(appCtx)

	draftSvc := service.NewDraftService(catalogSvc, photoStore, metricsSvc, nil, logr, service.DraftServiceConfig{
		SessionTTL:    cfg.Drafts.TTL,
		SweepInterval: cfg.Drafts.SweepInterval,
		MaxPhotoBytes: cfg.Drafts.MaxPhotoBytes,
	})
	draftSvc.StartSweeper(appCtx)

	imageSvc := service.NewImageService(
		imagecache.NewCache(cfg.Images.CacheCapacity),
		repository.NewImageCacheRepository(redisClient, logr),
		imagecache.NewFetcher(cfg.Images.AssetDir, cfg.Images.FetchTimeout, cfg.Images.FetchRetries, cfg.Images.RetryBackoff, logr),
		metricsSvc,
		logr,
		service.ImageServiceConfig{RedisTTL: cfg.Images.ByteCacheTTL},
	)

	renderSvc := service.NewRenderService(draftSvc, imageSvc, photoStore, render.NewCompositor(fonts), metricsSvc, logr, service.RenderServiceConfig{
		ExportScale: cfg.Render.ExportScale,
		QRSize:      cfg.Render.QRSize,
	})

	signer := storage.NewDownloadTokenSigner(cfg.Gallery.DownloadSecret, cfg.Gallery.DownloadTTL)

	// The queue handler closes over the worker pointer so the worker can be
	// built after the export service it depends on.
	var exportWorker *service.ExportWorker
	exportQueue := jobs.NewQueue("exports", func(ctx context.Context, job jobs.Job) error {
		return exportWorker.Handle(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Export.WorkerConcurrency,
		BufferSize: cfg.Export.QueueSize,
		MaxRetries: cfg.Export.WorkerRetries,
		Logger:     logr,
	})

	exportSvc := service.NewExportService(service.ExportServiceParams{
		Repo:    exportRepo,
		Drafts:  draftSvc,
		Queue:   exportQueue,
		Render:  renderSvc,
		Storage: galleryStore,
		Signer:  signer,
		Metrics: metricsSvc,
		Logger:  logr,
		Config: service.ExportConfig{
			APIPrefix:       cfg.APIPrefix,
			ShareBaseURL:    cfg.Render.ShareBaseURL,
			DefaultAlbum:    cfg.Gallery.Album,
			ResultTTL:       cfg.Gallery.DownloadTTL,
			CleanupInterval: cfg.Gallery.CleanupInterval,
		},
	})
	exportWorker = service.NewExportWorker(exportRepo, exportSvc, metricsSvc, cfg.Export.WorkerRetries, logr)

	exportQueue.Start(appCtx)
	defer exportQueue.Stop()
	exportSvc.RecoverPendingJobs(appCtx)
	exportSvc.StartCleanup(appCtx)

	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	browseHandler := handler.NewBrowseHandler(browseSvc)
	draftHandler := handler.NewDraftHandler(draftSvc, renderSvc, exportSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))
	r.Use(internalmiddleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/schools", catalogHandler.ListSchools)
		api.POST("/schools", catalogHandler.CreateSchool)
		api.GET("/schools/:id/marks-options", catalogHandler.ListMarksOptions)
		api.GET("/schools/:id/subjects", catalogHandler.ListSubjects)
		api.GET("/templates", catalogHandler.ListTemplates)
		api.POST("/templates", catalogHandler.CreateTemplate)
		api.GET("/templates/:id", catalogHandler.GetTemplate)
		api.PUT("/templates/:id", catalogHandler.UpdateTemplate)
		api.POST("/subjects", catalogHandler.CreateSubjectMapping)

		api.POST("/browse", browseHandler.Create)
		api.GET("/browse/:id", browseHandler.Get)
		api.PUT("/browse/:id/filters", browseHandler.UpdateFilters)
		api.POST("/browse/:id/next", browseHandler.NextPage)
		api.DELETE("/browse/:id", browseHandler.Delete)

		api.POST("/drafts", draftHandler.Create)
		api.GET("/drafts/:id", draftHandler.Get)
		api.DELETE("/drafts/:id", draftHandler.Delete)
		api.PUT("/drafts/:id/fields", draftHandler.ApplyPrompt)
		api.PUT("/drafts/:id/marks", draftHandler.SetMark)
		api.POST("/drafts/:id/photo", draftHandler.AttachPhoto)
		api.PUT("/drafts/:id/photo/transform", draftHandler.TransformPhoto)
		api.POST("/drafts/:id/photo/delete", draftHandler.PhotoDelete)
		api.PUT("/drafts/:id/overlay", draftHandler.SetOverlay)
		api.GET("/drafts/:id/preview", draftHandler.Preview)
		api.POST("/drafts/:id/exports", exportHandler.Create)

		api.GET("/exports/:id", exportHandler.Status)
		api.GET("/gallery/:token", exportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-appCtx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("server shutdown failed", "error", err)
	}
}
