package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/audit"
	indexmemory "github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/audit/index/memory"
	indexredis "github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/audit/index/redis"
	indexsqlite "github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/audit/index/sqlite"
	auditmetrics "github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/audit/metrics"
	kafkapublisher "github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/audit/publisher/kafka"
	storefile "github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/audit/store/file"
	storememory "github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/audit/store/memory"
	storepostgres "github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/audit/store/postgres"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/platform/config"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/platform/httpserver"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/platform/kafka"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/platform/postgres"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/platform/redis"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/pkg/platform/circuit"
)

// auditStack is the audit log plus everything that must be closed with it.
type auditStack struct {
	log     *audit.Log
	checks  map[string]httpserver.Check
	closers []func() error
}

func (s *auditStack) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// openAudit assembles store, index and publisher from cfg and restores the
// chain head. On error everything opened so far is closed.
func openAudit(ctx context.Context, cfg config.Config, m *auditmetrics.Metrics, logger *slog.Logger) (_ *auditStack, err error) {
	stack := &auditStack{checks: map[string]httpserver.Check{}}
	defer func() {
		if err != nil {
			_ = stack.Close()
		}
	}()

	store, err := openStore(ctx, cfg, stack)
	if err != nil {
		return nil, err
	}
	stack.closers = append(stack.closers, store.Close)
	opts := []audit.Option{
		audit.WithLogger(logger.With("component", "audit")),
		audit.WithMetrics(m),
		audit.WithBackendName(cfg.Audit.Backend),
	}

	index, err := openIndex(ctx, cfg, stack)
	if err != nil {
		return nil, err
	}
	if index != nil {
		opts = append(opts, audit.WithIndex(index))
	}

	if len(cfg.Kafka.Brokers) > 0 {
		pub, err := openPublisher(ctx, cfg, stack)
		if err != nil {
			return nil, err
		}
		opts = append(opts, audit.WithPublisher(pub))
	}

	log, err := audit.Open(ctx, store, opts...)
	if err != nil {
		return nil, err
	}
	stack.log = log
	return stack, nil
}

func openStore(ctx context.Context, cfg config.Config, stack *auditStack) (audit.Store, error) {
	switch cfg.Audit.Backend {
	case config.AuditMemory:
		return storememory.New(), nil
	case config.AuditFile:
		return storefile.Open(cfg.Audit.FilePath)
	case config.AuditPostgres:
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		stack.closers = append(stack.closers, db.Close)
		stack.checks["postgres"] = db.PingContext
		store := storepostgres.New(db)
		if err := store.Migrate(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported audit backend %q", cfg.Audit.Backend)
	}
}

func openIndex(ctx context.Context, cfg config.Config, stack *auditStack) (audit.Index, error) {
	switch cfg.Audit.Index {
	case config.IndexNone:
		return nil, nil
	case config.IndexMemory:
		return indexmemory.New(), nil
	case config.IndexRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		stack.closers = append(stack.closers, client.Close)
		stack.checks["redis"] = client.Health
		var opts []indexredis.Option
		if cfg.Redis.IndexTTL > 0 {
			opts = append(opts, indexredis.WithTTL(cfg.Redis.IndexTTL))
		}
		return indexredis.New(client, opts...), nil
	case config.IndexSQLite:
		idx, err := indexsqlite.Open(ctx, cfg.Audit.SQLiteIndexPath)
		if err != nil {
			return nil, err
		}
		stack.closers = append(stack.closers, idx.Close)
		return idx, nil
	default:
		return nil, fmt.Errorf("unsupported audit index %q", cfg.Audit.Index)
	}
}

func openPublisher(ctx context.Context, cfg config.Config, stack *auditStack) (*kafkapublisher.Publisher, error) {
	kcfg := kafka.Config{
		Brokers:           cfg.Kafka.Brokers,
		ClientID:          cfg.Kafka.ClientID,
		Topic:             cfg.Kafka.Topic,
		Partitions:        cfg.Kafka.Partitions,
		ReplicationFactor: cfg.Kafka.ReplicationFactor,
		ProduceTimeout:    cfg.Kafka.ProduceTimeout,
	}
	client, err := kafka.NewClient(kcfg)
	if err != nil {
		return nil, err
	}
	stack.closers = append(stack.closers, func() error {
		client.Close()
		return nil
	})
	stack.checks["kafka"] = client.Ping
	if err := kafka.EnsureTopic(ctx, client, kcfg); err != nil {
		return nil, err
	}
	return kafkapublisher.New(client, cfg.Kafka.Topic,
		kafkapublisher.WithTimeout(cfg.Kafka.ProduceTimeout),
		kafkapublisher.WithBreaker(circuit.New("kafka-audit")),
	)
}
