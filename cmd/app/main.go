package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"news-site-backend/internal/config"
	"news-site-backend/internal/domain/ports/adapter"
	mailAdapters "news-site-backend/internal/infra/adapters/mail"
	payAdapters "news-site-backend/internal/infra/adapters/payment"
	pg "news-site-backend/internal/infra/db/postgres"
	"news-site-backend/internal/infra/logging"
	"news-site-backend/internal/infra/metrics"
	red "news-site-backend/internal/infra/redis"
	"news-site-backend/internal/infra/sched"
	"news-site-backend/internal/infra/web"
	"news-site-backend/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop gateway/mailer, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.PoolSize)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	txm := pg.NewTxManager(pool)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	userRepo := pg.NewUserRepo(pool)
	postRepo := pg.NewPostRepo(pool)
	planRepo := pg.NewPlanRepoCacheDecorator(pg.NewPlanRepo(pool), redisClient)
	subRepo := pg.NewSubscriptionRepo(pool)
	historyRepo := pg.NewSubscriptionHistoryRepo(pool)
	payRepo := pg.NewPaymentRepo(pool)
	attemptRepo := pg.NewPaymentAttemptRepo(pool)
	refundRepo := pg.NewRefundRepo(pool)
	pinnedRepo := pg.NewPinnedPostRepo(pool)
	eventRepo := pg.NewWebhookEventRepo(pool)

	// ---- Gateway & mailer ----
	var gateway adapter.PaymentGateway
	var verifier web.WebhookVerifier
	stripeGW := payAdapters.NewStripeGateway(&cfg.Stripe, logger)
	verifier = stripeGW
	if cfg.Runtime.Dev {
		gateway = payAdapters.NewNoopPaymentGateway()
	} else {
		gateway = stripeGW
	}

	var mailer adapter.Mailer
	if cfg.Runtime.Dev || cfg.Mail.Host == "" {
		mailer = mailAdapters.NewNoopMailer(logger)
	} else {
		mailer = mailAdapters.NewSMTPMailer(&cfg.Mail, logger)
	}

	// ---- Use cases ----
	successURL := cfg.Stripe.FrontendURL + "/payments/success"
	cancelURL := cfg.Stripe.FrontendURL + "/payments/cancelled"
	paymentUC := usecase.NewPaymentUseCase(txm, payRepo, attemptRepo, refundRepo, subRepo, historyRepo, planRepo, pinnedRepo, userRepo, gateway, successURL, cancelURL, logger)
	subUC := usecase.NewSubscriptionUseCase(txm, subRepo, historyRepo, planRepo, pinnedRepo, logger)
	pinUC := usecase.NewPinUseCase(txm, subRepo, historyRepo, pinnedRepo, postRepo, logger)
	notifUC := usecase.NewNotificationUseCase(subRepo, userRepo, planRepo, mailer, logger)
	statsUC := usecase.NewStatsUseCase(payRepo, subRepo, logger)
	webhookUC := usecase.NewWebhookUseCase(eventRepo, payRepo, paymentUC, logger)

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, !cfg.Runtime.Dev, "", cfg.Admin.SessionTTL)
	srv := web.NewServer(paymentUC, subUC, pinUC, statsUC, webhookUC, verifier, auth, logger)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      srv.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server")
		}
	}()

	// ---- Workers ----
	sc := cfg.Scheduler
	expiry := sched.NewExpiryWorker(sc.ExpiryInterval, subUC, locker, logger)
	reminders := sched.NewNotificationWorker(sc.ReminderInterval, sc.ReminderLeadDays, notifUC, locker, logger)
	webhookRetry := sched.NewWebhookRetryWorker(sc.WebhookRetryInterval, sc.WebhookRetryLookback, webhookUC, locker, logger)
	reconciler := sched.NewPaymentReconciler(paymentUC, payRepo, gateway, sc.ReconcileInterval, sc.ReconcileStaleAfter, logger)
	retention := sched.NewRetentionWorker(sc.RetentionInterval, sc.RetentionMaxAge, payRepo, locker, logger)
	go func() { _ = expiry.Run(ctx) }()
	go func() { _ = reminders.Run(ctx) }()
	go func() { _ = webhookRetry.Run(ctx) }()
	go func() { _ = reconciler.Run(ctx) }()
	go func() { _ = retention.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()
	_ = server.Shutdown(context.Background())
}
