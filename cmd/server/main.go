package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"kycdesk/internal/agent"
	"kycdesk/internal/audit"
	auditmemory "kycdesk/internal/audit/store/memory"
	auditpostgres "kycdesk/internal/audit/store/postgres"
	authhandler "kycdesk/internal/auth/handler"
	authservice "kycdesk/internal/auth/service"
	userstore "kycdesk/internal/auth/store/user"
	"kycdesk/internal/documents"
	"kycdesk/internal/events"
	jwttoken "kycdesk/internal/jwt_token"
	kychandler "kycdesk/internal/kyc/handler"
	kycmetrics "kycdesk/internal/kyc/metrics"
	kycservice "kycdesk/internal/kyc/service"
	kycmemory "kycdesk/internal/kyc/store/memory"
	kycpostgres "kycdesk/internal/kyc/store/postgres"
	"kycdesk/internal/platform/config"
	"kycdesk/internal/platform/httpserver"
	"kycdesk/internal/platform/kafka"
	"kycdesk/internal/platform/logger"
	"kycdesk/internal/platform/metrics"
	"kycdesk/internal/platform/middleware"
	"kycdesk/internal/platform/postgres"
	httptransport "kycdesk/internal/transport/http"
	"kycdesk/internal/webhook"
	"kycdesk/pkg/platform/circuit"
)

const (
	jwtIssuer       = "kycdesk"
	shutdownGrace   = 15 * time.Second
	auditBufferSize = 256
	followUpGroup   = "kycdesk-followups"
)

// main wires dependencies and runs the HTTP server, the analysis workers
// and the completion event consumer until SIGINT or SIGTERM.
func main() {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	log := logger.New(cfg.LogLevel)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.JWTSigningKey == config.DefaultJWTSigningKey {
		log.Warn("using the development JWT signing key")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

type persistence struct {
	kyc   kycservice.Store
	tx    kycservice.TxRunner
	users authservice.UserStore
	audit audit.Store
	db    *sql.DB
}

func openPersistence(ctx context.Context, cfg config.Server, log *slog.Logger) (*persistence, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		kyc := kycmemory.New()
		return &persistence{
			kyc:   kyc,
			tx:    kycservice.NewLocalTx(kyc),
			users: userstore.New(),
			audit: auditmemory.NewInMemoryStore(),
		}, nil
	}
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &persistence{
		kyc:   kycpostgres.New(db),
		tx:    newKycPostgresTx(db),
		users: userstore.NewPostgres(db),
		audit: auditpostgres.New(db),
		db:    db,
	}, nil
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	store, err := openPersistence(ctx, cfg, log)
	if err != nil {
		return err
	}
	if store.db != nil {
		defer store.db.Close()
	}

	reg := prometheus.DefaultRegisterer
	platformMetrics := metrics.New(reg)
	kycMetrics := kycmetrics.New(reg)

	files, err := documents.NewLocalStorage(cfg.Uploads.Dir, cfg.Uploads.MaxBytes)
	if err != nil {
		return err
	}

	auditPublisher := audit.NewPublisher(store.audit, audit.WithAsyncBuffer(auditBufferSize), audit.WithLogger(log))
	defer auditPublisher.Close()

	listener := events.NewListener(log)
	publisher, consumer, closeKafka, err := openEvents(ctx, cfg, log, listener)
	if err != nil {
		return err
	}
	defer closeKafka()

	agentClient := agent.New(cfg.Agent.URL, cfg.Agent.Timeout,
		agent.WithMetrics(agent.NewMetrics()),
		agent.WithBreaker(circuit.New("agent", circuit.WithFailureThreshold(5), circuit.WithCooldown(30*time.Second))),
	)
	kyc := kycservice.New(store.kyc, store.tx, agentClient, files,
		kycservice.WithLogger(log),
		kycservice.WithMetrics(kycMetrics),
		kycservice.WithAuditPublisher(auditPublisher),
		kycservice.WithEventPublisher(publisher),
		kycservice.WithAnalysisWorkers(cfg.Analysis.Workers, cfg.Analysis.QueueSize),
	)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, jwtIssuer)
	jwtValidator := jwttoken.NewJWTServiceAdapter(jwtService)
	auth := authservice.New(store.users, jwtService, cfg.JWTTTL,
		authservice.WithLogger(log),
		authservice.WithMetrics(platformMetrics),
	)

	if cfg.Webhook.Secret == "" && !cfg.Webhook.AllowUnsigned {
		log.Warn("KYC_WEBHOOK_SECRET not set, vendor webhooks will be rejected")
	}
	verifier := webhook.NewVerifier(cfg.Webhook.Secret, cfg.Webhook.AllowUnsigned)

	checks := map[string]httptransport.HealthCheck{}
	if store.db != nil {
		checks["database"] = store.db.PingContext
	}
	router := httptransport.NewRouter(httptransport.Config{
		Logger:       log,
		Metrics:      platformMetrics,
		JWTValidator: jwtValidator,
		Handlers: []httptransport.Registrar{
			authhandler.New(auth, middleware.NewIPLimiter(cfg.Auth.LoginRatePerMinute), jwtValidator, log),
			kychandler.New(kyc, verifier, jwtValidator, log, cfg.Uploads.MaxBytes),
		},
		UploadDir:    files.Dir(),
		HealthChecks: checks,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Run(gctx, httpserver.New(cfg.Addr, router), shutdownGrace, log)
	})
	g.Go(func() error {
		return kyc.Run(gctx)
	})
	if consumer != nil {
		g.Go(func() error {
			if err := consumer.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// openEvents picks Kafka when brokers are configured, otherwise logs events
// and hands them straight to the listener.
func openEvents(ctx context.Context, cfg config.Server, log *slog.Logger, listener *events.Listener) (kycservice.EventPublisher, *events.Consumer, func(), error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return events.NewLogPublisher(log, listener), nil, func() {}, nil
	}
	producer, err := kafka.NewClient(cfg.Kafka.Brokers)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := kafka.EnsureTopic(ctx, producer, cfg.Kafka.Topic, 3); err != nil {
		producer.Close()
		return nil, nil, nil, err
	}
	consumerClient, err := kafka.NewClient(cfg.Kafka.Brokers,
		kgo.ConsumeTopics(cfg.Kafka.Topic),
		kgo.ConsumerGroup(followUpGroup),
	)
	if err != nil {
		producer.Close()
		return nil, nil, nil, err
	}
	log.Info("publishing completion events to kafka", "topic", cfg.Kafka.Topic, "brokers", cfg.Kafka.Brokers)
	closeAll := func() {
		consumerClient.Close()
		producer.Close()
	}
	return events.NewKafkaPublisher(producer, cfg.Kafka.Topic),
		events.NewConsumer(consumerClient, listener, log),
		closeAll, nil
}
