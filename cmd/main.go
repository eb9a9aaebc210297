package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Kobaiko/carbculator/config"
	"github.com/Kobaiko/carbculator/controllers"
	"github.com/Kobaiko/carbculator/middlewares"
	"github.com/Kobaiko/carbculator/routes"
	"github.com/Kobaiko/carbculator/services"
	"github.com/Kobaiko/carbculator/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}
	log := config.NewLogger(cfg)
	logrus.SetFormatter(log.Formatter)
	logrus.SetLevel(log.GetLevel())
	gin.SetMode(cfg.GinMode)

	db, err := config.OpenDB(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := services.NewRealtimeHub()
	push, err := services.NewPushService(ctx, db, cfg.AWS.Region, cfg.AWS.SNSPlatformARN, log)
	if err != nil {
		log.WithError(err).Fatal("push")
	}
	mailer, err := utils.NewMailer(ctx, cfg.AWS.Region, cfg.AWS.SESEmail, log)
	if err != nil {
		log.WithError(err).Fatal("mailer")
	}

	var images services.ImageUploader
	if cfg.AWS.S3Bucket != "" {
		store, err := utils.NewImageStore(ctx, cfg.AWS.S3Region, cfg.AWS.S3Bucket, cfg.AWS.CloudFrontURL)
		if err != nil {
			log.WithError(err).Fatal("s3")
		}
		images = store
	} else {
		log.Warn("S3_BUCKET not set, photos will not be stored")
	}

	alerts := services.NewAlertService(db, hub, push, log)
	entries := services.NewFoodEntryService(db, alerts, hub, log)
	dashboard := services.NewDashboardService(db, log)

	var analysisOpts []services.AnalysisOption
	if images != nil {
		analysisOpts = append(analysisOpts, services.WithImageUploader(images))
	}
	if cfg.AWS.RekognitionEnabled {
		rek, err := services.NewRekognitionService(ctx, cfg.AWS.Region)
		if err != nil {
			log.WithError(err).Fatal("rekognition")
		}
		analysisOpts = append(analysisOpts, services.WithFoodDetector(rek))
	}
	if cfg.Redis.URL != "" {
		cache, err := services.NewRedisAnalysisCache(ctx, cfg.Redis.URL, cfg.Redis.CacheTTL, log)
		if err != nil {
			log.WithError(err).Warn("redis unavailable, analysis cache disabled")
		} else {
			defer cache.Close()
			analysisOpts = append(analysisOpts, services.WithAnalysisCache(cache))
		}
	}
	vision := services.NewVisionClient(cfg.Vision.URL, cfg.Vision.APIKey, cfg.Vision.Model, cfg.Vision.Timeout)
	analysis := services.NewAnalysisService(vision, entries, log, analysisOpts...)

	if cfg.Scheduler.Enabled {
		sched := services.NewScheduler(db, dashboard, alerts, mailer, services.SchedulerOptions{
			SnapshotSpec:  cfg.Scheduler.SnapshotSpec,
			HydrationSpec: cfg.Scheduler.HydrationSpec,
			HydrationHour: cfg.Scheduler.HydrationHour,
			DigestSpec:    cfg.Scheduler.DigestSpec,
		}, log)
		if err := sched.Start(); err != nil {
			log.WithError(err).Fatal("scheduler")
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			sched.Stop(sctx)
		}()
	}

	authLimiter := middlewares.NewRateLimiter(cfg.RateLimit.AuthPerMinute, cfg.RateLimit.AuthPerMinute/4+1, log)
	analyzeLimiter := middlewares.NewRateLimiter(cfg.RateLimit.AnalyzePerMinute, cfg.RateLimit.AnalyzeBurst, log)
	authLimiter.StartCleanup(5*time.Minute, ctx.Done())
	analyzeLimiter.StartCleanup(5*time.Minute, ctx.Done())

	h := routes.Handlers{
		Health:    controllers.NewHealthController(db),
		Auth:      controllers.NewAuthController(services.NewAuthService(db, mailer, cfg.JWT.Secret, cfg.JWT.TTL, log)),
		Profile:   controllers.NewProfileController(services.NewProfileService(db, images)),
		Goals:     controllers.NewGoalController(services.NewGoalService(db)),
		Analysis:  controllers.NewAnalysisController(analysis),
		Entries:   controllers.NewFoodEntryController(entries),
		Water:     controllers.NewWaterController(services.NewWaterService(db, hub)),
		Weight:    controllers.NewWeightController(services.NewWeightService(db)),
		Dashboard: controllers.NewDashboardController(dashboard),
		Alerts:    controllers.NewAlertController(alerts),
		Devices:   controllers.NewDeviceController(push),
		Realtime:  controllers.NewRealtimeController(hub, cfg.Origins()),
	}
	if !cfg.IsProduction() {
		h.Dev = controllers.NewDevController(push, hub)
	}

	r := routes.SetupRouter(h, routes.Options{
		JWTSecret:      cfg.JWT.Secret,
		Origins:        cfg.Origins(),
		AuthLimiter:    authLimiter,
		AnalyzeLimiter: analyzeLimiter,
		Log:            log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Port, "env": cfg.Env}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
}
