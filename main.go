// File: santai/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"santai/config"
	"santai/cron"
	"santai/database"
	bookingRepo "santai/database/repository/booking"
	commissionRepo "santai/database/repository/commission"
	providerRepo "santai/database/repository/provider"
	"santai/handlers"
	"santai/middleware"
	"santai/models"
	"santai/routes"
	"santai/services/assignment"
	"santai/services/availability"
	"santai/services/commission"
	"santai/services/eventbus"
	"santai/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitEventClient()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(cors.Default())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	bkRepo := bookingRepo.NewMongoBookingRepo()
	cmRepo := commissionRepo.NewMongoCommissionRepo()
	prRepo := providerRepo.NewMongoProviderRepo()

	// event bus: in-process subscribers plus the Redis channel for
	// notification/chat/UI consumers. The log drain is the in-process
	// audit-trail consumer.
	memoryBus := eventbus.NewMemoryBus(logger)
	go eventbus.LogEvents(memoryBus.Subscribe(256), logger)
	redisBus := eventbus.NewRedisBus(utils.GetEventClient(), logger)
	bus := eventbus.Fanout{memoryBus, redisBus}

	rounding, err := models.ParseRoundingPolicy(config.AppConfig.CommissionRounding)
	if err != nil {
		logger.Sugar().Fatalf("main: invalid rounding policy: %v", err)
	}

	gate := &availability.Gate{
		Providers: prRepo,
		Logger:    logger,
	}
	ledger := &commission.Ledger{
		Repo:            cmRepo,
		Bus:             bus,
		Gate:            gate,
		Logger:          logger,
		DefaultRate:     int64(config.AppConfig.DefaultCommissionRate),
		Rounding:        rounding,
		PaymentDeadline: config.AppConfig.PaymentDeadline(),
		LateFee:         config.AppConfig.LateFeeMinorUnits,
	}
	gate.Ledger = ledger

	dispatchRedis := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDispatchQueueDB,
	}
	timer := assignment.NewAsynqResponseTimer(dispatchRedis, logger)

	engine := &assignment.Engine{
		Repo:             bkRepo,
		Ledger:           ledger,
		Timer:            timer,
		Bus:              bus,
		Logger:           logger,
		OfferWindow:      config.AppConfig.OfferWindow(),
		MinAdvanceNotice: config.AppConfig.MinAdvanceNotice(),
	}

	// Crash-recovery sweep: re-derive timers for every booking still on the
	// clock, resolving elapsed deadlines before normal operation resumes.
	recoverCtx, recoverCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := engine.RecoverTimers(recoverCtx); err != nil {
		logger.Sugar().Fatalf("main: deadline recovery failed: %v", err)
	}
	recoverCancel()

	cron.InitDispatchWorker(engine)

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	go cron.RunOverdueSweep(sweepCtx, ledger,
		time.Duration(config.AppConfig.OverdueSweepMinutes)*time.Minute)

	bookingHandler := handlers.NewBookingHandler(engine, logger)
	commissionHandler := handlers.NewCommissionHandler(ledger, logger)
	providerHandler := handlers.NewProviderHandler(gate, prRepo, logger)

	routes.RegisterRoutes(router, bookingHandler, commissionHandler, providerHandler)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	sweepCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}
	if err := timer.Close(); err != nil {
		logger.Sugar().Warnf("main: failed to close timer client: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
