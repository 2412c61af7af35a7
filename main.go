package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"manmitra/config"
	"manmitra/cron"
	"manmitra/database"
	bookingRepo "manmitra/database/repository/booking"
	studentRepo "manmitra/database/repository/student"
	therapistRepo "manmitra/database/repository/therapist"
	"manmitra/handlers"
	"manmitra/metrics"
	"manmitra/middleware"
	"manmitra/routes"
	"manmitra/services/admin"
	"manmitra/services/booking"
	"manmitra/services/notification"
	"manmitra/services/student"
	"manmitra/services/tasks"
	"manmitra/services/therapist"
	"manmitra/utils"
)

type stores struct {
	ledger     bookingRepo.Ledger
	students   studentRepo.StudentRepository
	therapists therapistRepo.TherapistRepository
	mongo      *mongo.Client
}

func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	if cfg.StoreDriver == "memory" {
		logger.Warn("using in-memory stores; data is lost on restart")
		return &stores{
			ledger:     bookingRepo.NewMemoryLedger(),
			students:   studentRepo.NewMemoryStudentRepo(),
			therapists: therapistRepo.NewMemoryTherapistRepo(),
		}, nil
	}

	client, err := database.Connect(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.DatabaseName)
	s := &stores{
		ledger:     bookingRepo.NewMongoLedger(db, logger),
		students:   studentRepo.NewMongoStudentRepo(db),
		therapists: therapistRepo.NewMongoTherapistRepo(db),
		mongo:      client,
	}

	for name, ensure := range map[string]func(context.Context) error{
		"bookings":   s.ledger.EnsureIndexes,
		"students":   s.students.EnsureIndexes,
		"therapists": s.therapists.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			database.Disconnect(client, logger)
			return nil, fmt.Errorf("failed to ensure %s indexes: %w", name, err)
		}
	}
	return s, nil
}

func newEmailSender(cfg *config.Config, logger *zap.Logger) notification.EmailSender {
	sg := notification.NewSendGridSender(notification.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.MailFrom,
		FromName:  cfg.MailFromName,
	}, logger)
	if sg == nil {
		logger.Warn("SENDGRID_API_KEY not set; emails are logged, not sent")
		return notification.NewStubEmailSender(logger)
	}
	return sg
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("main: %v", err)
	}
	logger, err := utils.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("main: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := utils.RegisterGinValidators(); err != nil {
		logger.Fatal("main: failed to register validators", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("main: failed to open stores", zap.Error(err))
	}
	if st.mongo != nil {
		defer database.Disconnect(st.mongo, logger)
	}

	healthChecks := map[string]utils.HealthCheck{}
	if st.mongo != nil {
		healthChecks["mongo"] = func(ctx context.Context) error { return st.mongo.Ping(ctx, nil) }
	}

	authCache, err := utils.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisAuthDB)
	if err != nil {
		if cfg.IsProduction() {
			logger.Fatal("main: auth cache unavailable", zap.Error(err))
		}
		logger.Warn("auth cache unavailable; every request hits the store", zap.Error(err))
	} else {
		defer authCache.Close()
		healthChecks["redis"] = func(ctx context.Context) error { return authCache.Ping(ctx).Err() }
	}

	bookingMetrics := metrics.NewBookingMetrics(nil)
	tokens := utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL())

	engine := &booking.DefaultBookingEngine{
		Ledger:     st.ledger,
		Gate:       booking.NewScheduleGate(st.therapists),
		Therapists: st.therapists,
		Students:   st.students,
		Notifications: notification.NewDefaultNotificationService(
			newEmailSender(cfg, logger), cfg.SupportEmail, logger),
		Metrics:      bookingMetrics,
		Logger:       logger,
		JoinLinkBase: firstOrEmpty(cfg.AllowedOrigins()),
		ManageURL:    cfg.ManageURL,
	}

	var worker *cron.Worker
	if cfg.WorkerEnabled && authCache != nil {
		queueRedis := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisQueueDB}
		queue := asynq.NewClient(queueRedis)
		defer queue.Close()
		engine.Tasks = tasks.NewAsynqTaskScheduler(queue, logger)

		worker, err = cron.NewWorker(cron.WorkerConfig{
			Redis:       queueRedis,
			Concurrency: cfg.WorkerConcurrency,
			SweepSpec:   cfg.SweepSpec,
		}, engine, logger)
		if err != nil {
			logger.Fatal("main: failed to build task worker", zap.Error(err))
		}
		if err := worker.Start(); err != nil {
			logger.Fatal("main: failed to start task worker", zap.Error(err))
		}
		defer worker.Shutdown()
	} else {
		logger.Warn("task worker disabled; lapsed holds are released lazily on read")
	}

	therapistSvc := therapist.NewDefaultTherapistService(st.therapists, tokens, logger)
	if authCache != nil {
		therapistSvc.Cache = therapist.NewRedisDirectoryCache(authCache, therapist.DirectoryTTL)
	}
	auth := middleware.NewAuthenticator(tokens, authCache, st.students, st.therapists, logger)

	monitor := utils.NewHealthMonitor(healthChecks)
	monitor.Start(ctx, time.Minute)

	hb := &handlers.HandlerBundle{
		Bookings:   handlers.NewBookingHandler(engine, logger),
		Therapists: handlers.NewTherapistHandler(therapistSvc, logger),
		Students:   handlers.NewStudentHandler(student.NewDefaultStudentService(st.students, tokens, logger), logger),
		Admin: handlers.NewAdminHandler(
			admin.NewDefaultAdminService(cfg.AdminEmail, cfg.AdminPassword, tokens, therapistSvc, logger),
			auth, logger),
		Health: monitor,
	}

	router := gin.New()
	router.Use(utils.ErrorHandler(logger))
	router.Use(middleware.RequestLogger(logger, bookingMetrics))
	router.Use(middleware.NewRateLimiter(cfg.MaxRequestsPerMin).Middleware(logger))
	routes.RegisterRoutes(router, hb, auth.Middleware(), cfg.AllowedOrigins(), promhttp.Handler())

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Starting server", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreDriver))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("main: server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	logger.Info("main: server stopped gracefully")
}

func firstOrEmpty(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
