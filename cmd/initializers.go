package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"shiftboard/app/handler"
	"shiftboard/app/router"
	"shiftboard/internal/service"
	"shiftboard/pkg/config"
	"shiftboard/pkg/eventbus"
	"shiftboard/pkg/interfaces"
	"shiftboard/pkg/lock"
	"shiftboard/pkg/logger"
	"shiftboard/pkg/notification"
	asynqqueue "shiftboard/pkg/queue/asynq"
	mysqlstore "shiftboard/pkg/store/mysql"
	redisstore "shiftboard/pkg/store/redis"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

const healthTimeout = 2 * time.Second

// initConfig initializes configuration
func (app *Application) initConfig() error {
	if err := config.Init(); err != nil {
		return err
	}
	app.config = config.GlobalConfig
	return nil
}

// initLogger initializes logging
func (app *Application) initLogger() error {
	if err := logger.Init(); err != nil {
		return err
	}
	app.registerCleanup(func() {
		_ = logger.Sync()
		logger.InfoCtx(app.ctx, "Logging system has been closed")
	})
	return nil
}

// initMySQL initializes MySQL and migrates the schema when enabled
func (app *Application) initMySQL() error {
	repo, err := mysqlstore.NewRepository(mysqlstore.DSN(app.config.MySQL))
	if err != nil {
		return err
	}

	if app.config.MySQL.AutoMigrate {
		if err := repo.GetDatastore().AutoMigrate(app.ctx); err != nil {
			repo.Close()
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
		logger.InfoCtx(app.ctx, "MySQL schema migrated")
	}

	app.mysqlRepo = repo
	app.registerCleanup(func() {
		repo.Close()
		logger.InfoCtx(app.ctx, "MySQL connection has been closed")
	})

	return nil
}

// initRedis initializes Redis. Without Redis the engine runs single-instance:
// locks are process-local and events stay in-process.
func (app *Application) initRedis() error {
	client, err := redisstore.NewRedisClient(app.config.Redis)
	if err != nil {
		logger.WarnCtx(app.ctx, "Redis unavailable, running in single-instance mode: %v", err)
		app.locker = lock.NewLocker(nil)
		return nil
	}

	app.redisClient = client
	app.locker = lock.NewLocker(client.GetClient())
	app.registerCleanup(func() {
		client.Close()
		logger.InfoCtx(app.ctx, "Redis connection has been closed")
	})

	return nil
}

// rawRedis returns the go-redis client, nil in single-instance mode
func (app *Application) rawRedis() *redis.Client {
	if app.redisClient == nil {
		return nil
	}
	return app.redisClient.GetClient()
}

// initEventBus starts the change feed and its cross-replica relay
func (app *Application) initEventBus() error {
	app.bus = eventbus.New(app.rawRedis())
	if err := app.bus.Start(app.ctx); err != nil {
		return err
	}
	app.registerCleanup(func() {
		app.bus.Stop()
		logger.InfoCtx(app.ctx, "Event bus has been stopped")
	})
	return nil
}

// initNotification wires the webhook notifier, through the asynq queue when enabled
func (app *Application) initNotification() error {
	app.notifier = notification.NewWebhookNotifierFromConfig(app.config.Notification)
	if !app.notifier.Enabled() {
		logger.InfoCtx(app.ctx, "Notification webhook not configured, outbound notifications disabled")
		return nil
	}

	var queue interfaces.NotificationQueue
	if app.config.Queue.Enabled && app.redisClient != nil {
		mgr, err := asynqqueue.NewManager(app.config)
		if err != nil {
			return err
		}
		mgr.RegisterHandler(asynqqueue.TypeNotificationDeliver, asynqqueue.NewNotificationHandler(app.notifier))
		app.queueManager = mgr
		queue = mgr
		app.registerCleanup(func() {
			mgr.Stop()
			mgr.Close()
			logger.InfoCtx(app.ctx, "Notification queue has been closed")
		})
	}

	app.notificationService = service.NewNotificationService(queue, app.notifier)
	app.bus.OnPublish(app.notificationService.Hook)
	return nil
}

// initServices initializes service layer
func (app *Application) initServices() error {
	engineCfg := app.config.Engine

	app.gamificationService = service.NewGamificationService(app.mysqlRepo, app.bus, engineCfg)
	app.penaltyService = service.NewPenaltyService(app.mysqlRepo, app.bus, engineCfg, app.gamificationService)
	app.offerService = service.NewOfferService(app.mysqlRepo, app.bus, engineCfg)
	app.assignmentService = service.NewAssignmentService(app.mysqlRepo, app.bus, engineCfg, app.locker, app.penaltyService)
	app.trackingService = service.NewTrackingService(app.mysqlRepo, app.bus, engineCfg)

	logger.InfoCtx(app.ctx, "Engine rules loaded, timezone: %s, geofence: %.2f km, arrival lead: %v",
		engineCfg.Timezone, engineCfg.GeofenceRadiusKm, engineCfg.ArrivalLead)
	return nil
}

// healthCheck reports whether the stores the engine depends on are reachable
func (app *Application) healthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
	defer cancel()

	if err := app.mysqlRepo.GetDatastore().Ping(ctx); err != nil {
		return fmt.Errorf("mysql: %w", err)
	}
	if app.redisClient != nil {
		if err := app.redisClient.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// initHTTPServer initializes HTTP server
func (app *Application) initHTTPServer() error {
	gin.SetMode(app.config.Server.Mode)
	app.ginEngine = gin.New()

	r := router.NewRouter(app.config.Server.APIKey, router.Handlers{
		Offer:        handler.NewOfferHandler(app.offerService, app.assignmentService),
		Assignment:   handler.NewAssignmentHandler(app.assignmentService),
		Tracking:     handler.NewTrackingHandler(app.trackingService),
		Gamification: handler.NewGamificationHandler(app.gamificationService, app.penaltyService),
		Stream:       handler.NewStreamHandler(app.bus, app.offerService, app.assignmentService),
	}, app.healthCheck)
	r.Setup(app.ginEngine)

	app.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.config.Server.Port),
		Handler: app.ginEngine,
	}
	return nil
}
