package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/bizkit-fr/entitlements/internal/config"
	"github.com/bizkit-fr/entitlements/migrations"
	"github.com/bizkit-fr/entitlements/pkg/httpserver"
	"github.com/bizkit-fr/entitlements/pkg/logger"
	"github.com/bizkit-fr/entitlements/pkg/mongo"
	"github.com/bizkit-fr/entitlements/pkg/pg"
	"github.com/bizkit-fr/entitlements/pkg/plans"
	"github.com/bizkit-fr/entitlements/pkg/redis"
	"github.com/bizkit-fr/entitlements/svc/entitlement"
)

// backends opens each database at most once, so the subscription store and
// the usage counters can share a connection.
type backends struct {
	cfg    config.Config
	log    *slog.Logger
	checks map[string]httpserver.Check

	pool  *pgxpool.Pool
	db    *sql.DB
	rdb   *goredis.Client
	mongo *mongodriver.Client
}

func newBackends(cfg config.Config, log *slog.Logger) *backends {
	return &backends{cfg: cfg, log: log, checks: make(map[string]httpserver.Check)}
}

func (b *backends) store(ctx context.Context, backend string) (entitlement.SubscriptionStore, error) {
	switch backend {
	case config.BackendMemory:
		b.log.WarnContext(ctx, "using in-memory subscription store, every user is on the free plan")
		return entitlement.NewMemoryStore(), nil
	case config.BackendPostgres:
		db, err := b.postgres(ctx)
		if err != nil {
			return nil, err
		}
		return entitlement.NewPostgresStore(db), nil
	case config.BackendRedis:
		client, err := b.redis(ctx)
		if err != nil {
			return nil, err
		}
		b.log.WarnContext(ctx, "redis subscription store is read-only here, rows must be mirrored by the billing sync job",
			slog.String("key_prefix", b.cfg.Redis.KeyPrefix))
		return entitlement.NewRedisStore(client, b.cfg.Redis.KeyPrefix), nil
	case config.BackendMongo:
		db, err := b.mongoDB(ctx)
		if err != nil {
			return nil, err
		}
		s := entitlement.NewMongoStore(db.Collection(b.cfg.Mongo.SubscriptionsCollection))
		if err := s.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", backend)
}

func (b *backends) counters(ctx context.Context, backend string) (map[plans.Resource]entitlement.CounterFunc, error) {
	switch backend {
	case config.BackendMemory:
		return entitlement.NewMemoryCounters().Counters(), nil
	case config.BackendPostgres:
		db, err := b.postgres(ctx)
		if err != nil {
			return nil, err
		}
		return entitlement.PostgresCounters(db), nil
	case config.BackendMongo:
		db, err := b.mongoDB(ctx)
		if err != nil {
			return nil, err
		}
		return entitlement.MongoCounters(db), nil
	}
	return nil, fmt.Errorf("unsupported counters backend %q", backend)
}

func (b *backends) postgres(ctx context.Context) (*sql.DB, error) {
	if b.db != nil {
		return b.db, nil
	}
	pool, err := pg.Connect(ctx, b.cfg.PG)
	if err != nil {
		return nil, err
	}
	b.pool, b.db = pool, pg.OpenDB(pool)
	b.checks["postgres"] = pool.Ping

	if b.cfg.PG.AutoMigrate {
		if err := pg.Migrate(ctx, b.db, migrations.FS, b.cfg.PG, b.log); err != nil {
			return nil, err
		}
	}
	return b.db, nil
}

func (b *backends) redis(ctx context.Context) (*goredis.Client, error) {
	if b.rdb != nil {
		return b.rdb, nil
	}
	client, err := redis.Connect(ctx, b.cfg.Redis)
	if err != nil {
		return nil, err
	}
	b.rdb = client
	b.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	return client, nil
}

func (b *backends) mongoDB(ctx context.Context) (*mongodriver.Database, error) {
	if b.mongo == nil {
		client, err := mongo.Connect(ctx, b.cfg.Mongo)
		if err != nil {
			return nil, err
		}
		b.mongo = client
		b.checks["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
	}
	return b.mongo.Database(b.cfg.Mongo.Database), nil
}

func (b *backends) Close() {
	ctx := context.Background()
	if b.db != nil {
		_ = b.db.Close()
	}
	if b.pool != nil {
		b.pool.Close()
	}
	if b.rdb != nil {
		if err := b.rdb.Close(); err != nil {
			b.log.WarnContext(ctx, "close redis", logger.Error(err))
		}
	}
	if b.mongo != nil {
		if err := b.mongo.Disconnect(ctx); err != nil {
			b.log.WarnContext(ctx, "close mongo", logger.Error(err))
		}
	}
}
