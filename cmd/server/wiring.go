package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	mrand "math/rand/v2"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"neokyc/internal/audit"
	auditkafka "neokyc/internal/audit/kafka"
	auditmemory "neokyc/internal/audit/store/memory"
	auditpostgres "neokyc/internal/audit/store/postgres"
	"neokyc/internal/customer"
	"neokyc/internal/otp"
	"neokyc/internal/pii"
	"neokyc/internal/platform/config"
	httpmetrics "neokyc/internal/platform/metrics"
	"neokyc/internal/platform/postgres"
	"neokyc/internal/platform/redis"
	"neokyc/internal/risk"
	riskmetrics "neokyc/internal/risk/metrics"
	"neokyc/internal/risk/signals"
	"neokyc/internal/session"
	httptransport "neokyc/internal/transport/http"
	"neokyc/internal/verification/job"
	verificationmetrics "neokyc/internal/verification/metrics"
	"neokyc/internal/verification/service"
	eligibilitystore "neokyc/internal/verification/store/eligibility"
	verificationstore "neokyc/internal/verification/store/verification"
	"neokyc/pkg/platform/tx"
)

const (
	piiKeyPurpose     = "pii"
	sessionKeyPurpose = "session-signing"
	auditBuffer       = 1024
	otpSweepInterval  = time.Minute
)

type stores struct {
	customers     service.CustomerStore
	verifications service.VerificationStore
	eligibility   service.EligibilityStore
	audit         audit.Store
	tx            tx.Runner
}

// app owns every long-lived component and its shutdown order.
type app struct {
	router    http.Handler
	db        *sql.DB
	redis     *redis.Client
	sink      *auditkafka.Sink
	publisher *audit.Publisher
	otpMemory *otp.MemoryStore
	rescore   *job.RescoreJob
}

func buildApp(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	a := &app{}
	ok := false
	defer func() {
		if !ok {
			a.close(log, cfg.Server.ShutdownTimeout)
		}
	}()

	master, err := pii.LoadOrCreateKey(cfg.Security.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("master key: %w", err)
	}
	var cipherOpts []pii.Option
	if cfg.Security.Cipher == config.CipherChaCha20Poly1305 {
		cipherOpts = append(cipherOpts, pii.WithChaCha20Poly1305())
	}
	piiKey, err := pii.DeriveKey(master, piiKeyPurpose)
	if err != nil {
		return nil, err
	}
	cipher, err := pii.NewCipher(piiKey, cipherOpts...)
	if err != nil {
		return nil, err
	}

	st, err := a.buildStores(ctx, cfg, cipher, log)
	if err != nil {
		return nil, err
	}

	auditOpts := []audit.Option{audit.WithLogger(log)}
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := auditkafka.NewSink(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			return nil, fmt.Errorf("kafka sink: %w", err)
		}
		a.sink = sink
		if err := sink.EnsureTopic(ctx, 3, 1); err != nil {
			log.Warn("audit topic bootstrap failed", "topic", sink.Topic(), "error", err)
		}
		auditOpts = append(auditOpts, audit.WithSink(sink, auditBuffer))
	}
	a.publisher = audit.NewPublisher(st.audit, auditOpts...)

	verification := service.New(st.customers, st.verifications, st.eligibility,
		service.WithLogger(log),
		service.WithAuditPublisher(a.publisher),
		service.WithMetrics(verificationmetrics.New()),
		service.WithTxRunner(st.tx),
		service.WithSignals(signalProvider(cfg.Workflow.Signals)),
		service.WithScorer(risk.NewScorer(risk.WithMetrics(riskmetrics.New()))),
		service.WithAcceptStoredScore(cfg.Workflow.AcceptStoredScore),
	)

	if cfg.Workflow.RescoreSchedule != "" {
		a.rescore, err = job.NewRescoreJob(verification, cfg.Workflow.RescoreSchedule, log)
		if err != nil {
			return nil, err
		}
	}

	sessions, err := a.buildSessions(ctx, cfg, master, log)
	if err != nil {
		return nil, err
	}

	checks := map[string]httptransport.HealthCheck{}
	if a.db != nil {
		checks["postgres"] = a.db.PingContext
	}
	if a.redis != nil {
		checks["redis"] = a.redis.Health
	}
	if a.sink != nil {
		checks["kafka"] = a.publisher.SinkHealth
	}

	a.router = httptransport.NewRouter(httptransport.RouterConfig{
		Logger:         log,
		Metrics:        httpmetrics.New(),
		Tokens:         sessions,
		KYC:            httptransport.NewKYCHandler(verification, log),
		Auth:           httptransport.NewAuthHandler(sessions, log),
		Admin:          httptransport.NewAdminHandler(verification, a.publisher, log),
		MetricsHandler: promhttp.Handler(),
		HealthChecks:   checks,
	})
	ok = true
	return a, nil
}

// buildStores selects Postgres when DATABASE_URL is set, memory otherwise.
func (a *app) buildStores(ctx context.Context, cfg config.Config, cipher *pii.Cipher, log *slog.Logger) (stores, error) {
	if cfg.Database.URL == "" {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		return stores{
			customers:     customer.NewInMemoryStore(cipher),
			verifications: verificationstore.NewInMemoryStore(),
			eligibility:   eligibilitystore.NewInMemoryStore(),
			audit:         auditmemory.NewInMemoryStore(),
			tx:            tx.NoopRunner{},
		}, nil
	}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return stores{}, err
	}
	a.db = db
	if err := postgres.Migrate(ctx, db); err != nil {
		return stores{}, err
	}
	return stores{
		customers:     customer.NewPostgresStore(db, cipher),
		verifications: verificationstore.NewPostgresStore(db),
		eligibility:   eligibilitystore.NewPostgresStore(db),
		audit:         auditpostgres.New(db),
		tx:            tx.NewSQLRunner(db),
	}, nil
}

func (a *app) buildSessions(ctx context.Context, cfg config.Config, master []byte, log *slog.Logger) (*session.Service, error) {
	password := cfg.Security.AdminPassword
	if password == "" {
		generated, err := randomPassword()
		if err != nil {
			return nil, err
		}
		password = generated
		log.Warn("ADMIN_PASSWORD not set, generated a dev password",
			"username", cfg.Security.AdminUsername,
			"password", password,
		)
	}
	creds, err := session.NewCredentials(cfg.Security.AdminUsername, password)
	if err != nil {
		return nil, err
	}

	signingKey, err := pii.DeriveKey(master, sessionKeyPurpose)
	if err != nil {
		return nil, err
	}
	tokens, err := session.NewTokenService(signingKey, cfg.Security.SessionTTL)
	if err != nil {
		return nil, err
	}

	var store otp.Store
	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	if client != nil {
		a.redis = client
		store = otp.NewRedisStore(client)
	} else {
		a.otpMemory = otp.NewMemoryStore()
		store = a.otpMemory
	}

	return session.NewService(creds, otp.NewCache(store, cfg.Security.OTPTTL), tokens,
		session.WithLogger(log),
		session.WithAuditPublisher(a.publisher),
		session.WithDevMode(cfg.Server.DevMode),
	), nil
}

// start launches the background workers. They stop when ctx is cancelled
// or close is called.
func (a *app) start(ctx context.Context) {
	if a.otpMemory != nil {
		go a.otpMemory.Run(ctx, otpSweepInterval)
	}
	if a.rescore != nil {
		a.rescore.Start()
	}
}

// close stops producers before the resources they write to.
func (a *app) close(log *slog.Logger, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if a.rescore != nil {
		a.rescore.Stop(ctx)
	}
	if a.publisher != nil {
		a.publisher.Close(timeout)
	}
	if a.sink != nil {
		a.sink.Close(ctx)
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Warn("redis close failed", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Warn("database close failed", "error", err)
		}
	}
}

func signalProvider(name string) signals.Provider {
	if name == config.SignalsSimulated {
		seed := time.Now().UnixNano()
		return signals.NewSimulated(mrand.New(mrand.NewPCG(uint64(seed), uint64(seed>>1))))
	}
	return signals.None{}
}

func randomPassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate admin password: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
