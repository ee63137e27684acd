package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/twmb/franz-go/pkg/kgo"

	emissionhandler "altanbank/internal/emission/handler"
	emissionmetrics "altanbank/internal/emission/metrics"
	emissionservice "altanbank/internal/emission/service"
	emissionstore "altanbank/internal/emission/store"
	jwttoken "altanbank/internal/jwt_token"
	ledgerhandler "altanbank/internal/ledger/handler"
	ledgerstore "altanbank/internal/ledger/store"
	licensehandler "altanbank/internal/license/handler"
	licensemetrics "altanbank/internal/license/metrics"
	licenseservice "altanbank/internal/license/service"
	licensestore "altanbank/internal/license/store"
	officerhandler "altanbank/internal/officer/handler"
	officerstore "altanbank/internal/officer/store"
	"altanbank/internal/platform/config"
	"altanbank/internal/platform/httpserver"
	"altanbank/internal/platform/logger"
	platformredis "altanbank/internal/platform/redis"
	policyhandler "altanbank/internal/policy/handler"
	policyservice "altanbank/internal/policy/service"
	policystore "altanbank/internal/policy/store"
	ratelimitmw "altanbank/internal/ratelimit/middleware"
	ratelimitstore "altanbank/internal/ratelimit/store"
	"altanbank/internal/storage"
	transferhandler "altanbank/internal/transfer/handler"
	transfermetrics "altanbank/internal/transfer/metrics"
	transferservice "altanbank/internal/transfer/service"
	httptransport "altanbank/internal/transport/http"
	"altanbank/pkg/platform/audit/relay"
	auditpostgres "altanbank/pkg/platform/audit/store/postgres"
	"altanbank/pkg/platform/idempotency"
)

// main wires the engine: Postgres stores behind one serializable unit of
// work, the optional Redis idempotency/cache layer, the Kafka outbox relay
// and the HTTP surface.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 10*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		cancelPing()
		log.Error("database unreachable", "error", err)
		os.Exit(1)
	}
	cancelPing()

	cache, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if cache != nil {
		defer cache.Close()
	}

	var idem idempotency.Store
	var limitStore ratelimitmw.Store
	if cache != nil {
		idem = idempotency.NewRedis(cache.Client)
		limitStore = ratelimitstore.NewRedis(cache.Client)
	} else {
		log.Warn("redis not configured; idempotency keys and rate limits are process-local")
		idem = idempotency.NewMemory()
		limitStore = ratelimitstore.NewMemory()
	}
	limiter := ratelimitmw.New(limitStore, log)

	tx := storage.NewSQLTx(db)
	auditor := auditpostgres.New(db)

	licenses := licensestore.NewPostgres(db)
	accounts := ledgerstore.NewPostgres(db)
	emissions := emissionstore.NewPostgres(db)
	policies := policystore.NewPostgres(db)
	officers := officerstore.NewPostgres(db)

	licenseSvc := licenseservice.New(licenses, accounts, tx, auditor, licensemetrics.New(), log)
	policySvc := policyservice.New(policies, tx, auditor, log)
	emissionSvc := emissionservice.New(emissions, accounts, licenses, policies, tx, idem, auditor, emissionmetrics.New(), log)
	transferSvc := transferservice.New(accounts, licenses, emissions, tx, idem, auditor, transfermetrics.New(), log)

	validator := jwttoken.NewJWTService(cfg.JWTSigningKey)

	router := httptransport.NewRouter(
		log,
		validator,
		httptransport.NewStatsHandler(emissionSvc, licenses, policySvc, cache, log),
		httptransport.NewHealthHandler(db, cache),
		limiter,
		licensehandler.New(licenseSvc, log),
		policyhandler.New(policySvc, log),
		emissionhandler.New(emissionSvc, log),
		transferhandler.New(transferSvc, log),
		ledgerhandler.New(accounts, log),
		officerhandler.New(officers, log),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var outboxRelay *relay.Relay
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := kgo.NewClient(
			kgo.SeedBrokers(cfg.KafkaBrokers...),
			kgo.DefaultProduceTopic(relay.Topic),
		)
		if err != nil {
			log.Error("failed to create kafka client", "error", err)
			os.Exit(1)
		}
		defer kafka.Close()

		outboxRelay = relay.New(auditor, kafka, log)
		go func() {
			if err := outboxRelay.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("outbox relay stopped", "error", err)
			}
		}()
	} else {
		log.Warn("kafka not configured; ledger events stay in the outbox table")
	}

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting centralbank engine", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-rootCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if outboxRelay != nil {
		// Final drain so committed events are not stranded in the outbox.
		if err := outboxRelay.Drain(shutdownCtx); err != nil {
			log.Error("final outbox drain failed", "error", err)
		}
	}
}
