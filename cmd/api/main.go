package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/minhvu-dev/courseloop-backend/api/routes"
	"github.com/minhvu-dev/courseloop-backend/internal/courses"
	"github.com/minhvu-dev/courseloop-backend/internal/enrollments"
	"github.com/minhvu-dev/courseloop-backend/internal/learning"
	"github.com/minhvu-dev/courseloop-backend/internal/notifications"
	"github.com/minhvu-dev/courseloop-backend/internal/payments"
	"github.com/minhvu-dev/courseloop-backend/internal/payments/momo"
	"github.com/minhvu-dev/courseloop-backend/internal/payments/vnpay"
	"github.com/minhvu-dev/courseloop-backend/internal/users"
	momowebhook "github.com/minhvu-dev/courseloop-backend/internal/webhooks/momo"
	vnpaywebhook "github.com/minhvu-dev/courseloop-backend/internal/webhooks/vnpay"
	"github.com/minhvu-dev/courseloop-backend/pkg/config"
	"github.com/minhvu-dev/courseloop-backend/pkg/db"
	"github.com/minhvu-dev/courseloop-backend/pkg/logger"
	"github.com/minhvu-dev/courseloop-backend/pkg/mail"
	"github.com/minhvu-dev/courseloop-backend/pkg/metrics"
	"github.com/minhvu-dev/courseloop-backend/pkg/migrate"
	"github.com/minhvu-dev/courseloop-backend/pkg/orderid"
	"github.com/minhvu-dev/courseloop-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	coursesRepo := courses.NewRepository(dbClient.DB())
	usersRepo := users.NewRepository(dbClient.DB())
	enrollRepo := enrollments.NewRepository(dbClient.DB())
	progressRepo := learning.NewProgressRepository(dbClient.DB())

	vnpayGateway, err := vnpay.New(cfg.VNPay, cfg.URLs.ReturnURL())
	if err != nil {
		logg.Warn(context.Background(), "vnpay gateway disabled: "+err.Error())
		vnpayGateway = nil
	}
	momoGateway, err := momo.New(cfg.MoMo, cfg.URLs.ReturnURL(), cfg.URLs.MoMoIPNURL())
	if err != nil {
		logg.Warn(context.Background(), "momo gateway disabled: "+err.Error())
		momoGateway = nil
	}
	linkBuilder := payments.NewBuilder(vnpayGateway, momoGateway, paymentMetrics)

	enrollService, err := enrollments.NewService(enrollRepo, coursesRepo, dbClient, orderid.NewGenerator(), linkBuilder, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create enrollment service", err)
		os.Exit(1)
	}

	learningService, err := learning.NewService(progressRepo, coursesRepo, enrollRepo, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create learning service", err)
		os.Exit(1)
	}

	notifyService, err := notifications.NewService(
		notifications.NewGate(),
		usersRepo,
		coursesRepo,
		enrollService,
		mail.New(cfg.Mail, logg),
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification service", err)
		os.Exit(1)
	}

	var vnpayWebhook *vnpaywebhook.Service
	if vnpayGateway != nil {
		vnpayWebhook, err = vnpaywebhook.NewService(vnpaywebhook.ServiceParams{
			Verifier:   vnpayGateway,
			Enrollment: enrollService,
			Notifier:   notifyService,
			Metrics:    paymentMetrics,
			Logger:     logg,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create vnpay webhook service", err)
			os.Exit(1)
		}
	}

	var momoWebhook *momowebhook.Service
	if momoGateway != nil {
		momoWebhook, err = momowebhook.NewService(momowebhook.ServiceParams{
			Verifier:   momoGateway,
			Enrollment: enrollService,
			Notifier:   notifyService,
			Metrics:    paymentMetrics,
			Logger:     logg,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create momo webhook service", err)
			os.Exit(1)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:          cfg,
			Logger:          logg,
			DBPinger:        dbClient,
			RedisClient:     redisClient,
			CoursesRepo:     coursesRepo,
			Enrollments:     enrollService,
			Learning:        learningService,
			VNPayWebhook:    vnpayWebhook,
			MoMoWebhook:     momoWebhook,
			MetricsGatherer: registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
