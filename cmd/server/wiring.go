package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/twmb/franz-go/pkg/kgo"

	"claimguard/internal/audit"
	"claimguard/internal/claims/handler"
	claimmetrics "claimguard/internal/claims/metrics"
	"claimguard/internal/claims/models"
	"claimguard/internal/claims/service"
	"claimguard/internal/claims/store"
	"claimguard/internal/decision"
	decisionmetrics "claimguard/internal/decision/metrics"
	"claimguard/internal/decision/ports"
	httpapi "claimguard/internal/http"
	jwttoken "claimguard/internal/jwt_token"
	"claimguard/internal/platform/config"
	"claimguard/internal/platform/kafka"
	"claimguard/internal/platform/metrics"
	"claimguard/internal/platform/postgres"
	"claimguard/internal/platform/redis"
	"claimguard/internal/policy"
	"claimguard/internal/settings"
	"claimguard/internal/vision"
	"claimguard/pkg/platform/middleware/admin"
	authmw "claimguard/pkg/platform/middleware/auth"
)

type application struct {
	settings  settings.Settings
	db        *sql.DB
	redis     *redis.Client
	kafka     *kgo.Client
	publisher *audit.Publisher
	router    http.Handler
}

func (a *application) close(log *slog.Logger) {
	if a.kafka != nil {
		a.kafka.Close()
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

// build connects the optional infrastructure and assembles the service graph.
// Without DATABASE_URL, REDIS_URL, KAFKA_BROKERS or VISION_URL the matching
// in-process implementation is used instead.
func build(ctx context.Context, cfg config.Server, log *slog.Logger) (*application, error) {
	st, err := settings.Load(cfg.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	registered, err := st.Rules.Build()
	if err != nil {
		return nil, fmt.Errorf("build rules: %w", err)
	}

	app := &application{settings: st}
	health := map[string]httpapi.HealthCheck{}
	ok := false
	defer func() {
		if !ok {
			app.close(log)
		}
	}()

	var (
		claims     service.ClaimStore
		directory  policy.Directory
		auditStore audit.Store
		seedPolicy func(context.Context, models.PolicyRecord) error
	)
	if cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		app.db = db
		if err := postgres.Migrate(db); err != nil {
			return nil, err
		}
		pgPolicies := policy.NewPostgres(db)
		claims = store.NewPostgres(db)
		directory = pgPolicies
		auditStore = audit.NewPostgresStore(db)
		seedPolicy = pgPolicies.Upsert
		health["postgres"] = db.PingContext
	} else {
		log.Warn("DATABASE_URL not set, claims and audit entries are kept in memory")
		memPolicies := policy.NewInMemory()
		claims = store.NewInMemory()
		directory = memPolicies
		auditStore = audit.NewMemoryStore()
		seedPolicy = func(_ context.Context, r models.PolicyRecord) error {
			memPolicies.Put(r)
			return nil
		}
	}

	if cfg.PolicySeed != "" {
		records, err := policy.LoadSeedFile(cfg.PolicySeed)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			if err := seedPolicy(ctx, r); err != nil {
				return nil, fmt.Errorf("seed policy %s: %w", r.Number, err)
			}
		}
		log.Info("policy seed loaded", "policies", len(records), "file", cfg.PolicySeed)
	}

	cacheOpts := []policy.CacheOption{policy.WithCacheLogger(log)}
	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rdb != nil {
		app.redis = rdb
		cacheOpts = append(cacheOpts, policy.WithRedis(rdb.Client, cfg.Redis.PolicyTTL))
		health["redis"] = rdb.Health
	}
	policies := policy.NewCached(directory, cacheOpts...)

	if len(cfg.Kafka.Brokers) > 0 {
		client, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			return nil, err
		}
		app.kafka = client
		if err := kafka.EnsureTopic(ctx, client, cfg.Kafka.Topic, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor); err != nil {
			return nil, err
		}
		kstore := audit.NewKafkaStore(client, cfg.Kafka.Topic)
		auditStore = audit.Tee(auditStore, kstore)
		health["kafka"] = kstore.Health
	}
	app.publisher = audit.NewPublisher(auditStore,
		audit.WithLogger(log),
		audit.WithMetrics(audit.NewMetrics()),
		audit.WithBufferSize(cfg.Audit.BufferSize),
		audit.WithBatchSize(cfg.Audit.BatchSize),
		audit.WithFlushInterval(cfg.Audit.FlushInterval),
	)

	assessor, err := newAssessor(cfg.Vision, log)
	if err != nil {
		return nil, err
	}

	dm := decisionmetrics.New()
	engine, err := decision.NewEngine(registered, decision.WithLogger(log), decision.WithMetrics(dm))
	if err != nil {
		return nil, err
	}
	gatherer := decision.NewGatherer(policies, assessor,
		decision.WithLookupTimeout(st.Evidence.LookupTimeout),
		decision.WithGathererLogger(log),
		decision.WithGathererMetrics(dm),
	)
	svc := service.New(claims, engine, gatherer, policies,
		service.WithConfig(st.Lifecycle),
		service.WithLogger(log),
		service.WithMetrics(claimmetrics.New()),
		service.WithAuditSink(app.publisher),
	)

	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, jwttoken.DefaultIssuer, jwttoken.DefaultAudience)
	app.router = httpapi.NewRouter(httpapi.Deps{
		Claims:       handler.New(svc, log),
		RequireActor: authmw.RequireActor(jwttoken.NewJWTServiceAdapter(tokens), log),
		Logger:       log,
		Observer:     metrics.New(),
		Metrics:      admin.RequireAdminToken(cfg.MetricsToken, log)(metrics.Handler()),
		Health:       health,
	})
	ok = true
	return app, nil
}

func newAssessor(cfg config.Vision, log *slog.Logger) (ports.VisionProvider, error) {
	if cfg.URL == "" {
		log.Warn("VISION_URL not set, every image is assessed as unavailable")
		return vision.NewStatic(nil), nil
	}
	return vision.NewClient(vision.ClientConfig{
		BaseURL:           cfg.URL,
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
	})
}
