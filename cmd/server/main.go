package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/application"
	auditmetrics "github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/audit/metrics"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/audit/verifier"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/decision"
	decisionmetrics "github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/decision/metrics"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/explain"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/pipeline"
	pipelinehandler "github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/pipeline/handler"
	pipelinemetrics "github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/pipeline/metrics"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/platform/config"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/platform/httpserver"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/platform/logger"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/platform/metrics"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/policy"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/scoring"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/whatif"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/pkg/platform/middleware/logging"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/pkg/platform/middleware/metadata"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/pkg/platform/middleware/requesttime"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	log, err := logger.New(os.Stdout, cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	registry := metrics.New()
	registry.SetModelVersion(cfg.Model.Version)
	reg := registry.Registerer()

	stack, err := openAudit(ctx, cfg, auditmetrics.New(reg), log)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer func() {
		if err := stack.Close(); err != nil {
			log.Error("closing audit log", "error", err)
		}
	}()
	seq, head := stack.log.Head()
	log.InfoContext(ctx, "audit log ready",
		"backend", cfg.Audit.Backend,
		"index", cfg.Audit.Index,
		"sequence", seq,
		"head_hash", head,
	)

	table := policy.DefaultTable()
	if cfg.Policy.File != "" {
		if table, err = policy.LoadFile(cfg.Policy.File); err != nil {
			return fmt.Errorf("load policy table: %w", err)
		}
	}
	resolver := policy.NewResolver(table)

	engine, err := decision.NewEngine(
		scoring.NewPool(scoring.HeuristicModel{}, cfg.Model.PoolSize),
		cfg.Model.Version,
		decision.WithMetrics(decisionmetrics.New(reg)),
	)
	if err != nil {
		return err
	}
	simulator, err := whatif.NewSimulator(engine)
	if err != nil {
		return err
	}
	service, err := pipeline.New(engine, explain.NewEngine(), resolver, simulator, stack.log,
		pipeline.WithLogger(log.With("component", "pipeline")),
		pipeline.WithMetrics(pipelinemetrics.New(reg)),
		pipeline.WithBatchLimit(cfg.Server.BatchLimit),
	)
	if err != nil {
		return err
	}

	validator, err := application.NewValidator()
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Audit.VerifySchedule != "" || cfg.Audit.VerifyOnStart {
		sched, err := verifier.New(stack.log, scheduleOrDefault(cfg.Audit.VerifySchedule), log)
		if err != nil {
			return err
		}
		if cfg.Audit.VerifyOnStart {
			if report := sched.RunOnce(ctx); report != nil && !report.Valid {
				return errors.New("audit chain failed verification at startup")
			}
		}
		if cfg.Audit.VerifySchedule != "" {
			if err := sched.Start(ctx); err != nil {
				return err
			}
			defer sched.Stop()
		}
	}

	if cfg.Policy.Watch {
		watcher := policy.NewWatcher(cfg.Policy.File, resolver, log.With("component", "policy.watcher"))
		g.Go(func() error { return watcher.Run(ctx) })
	}

	router := chi.NewRouter()
	router.Use(logging.Recovery(log))
	router.Use(metadata.RequestMetadata)
	router.Use(requesttime.Middleware)
	router.Use(logging.Logger(log))
	router.Handle("/metrics", registry.Handler())
	router.Get("/healthz", httpserver.HealthHandler(stack.checks))
	router.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(30 * time.Second))
		pipelinehandler.New(service, validator, log).Register(r)
	})

	srv := httpserver.New(cfg.Server.Addr, router)
	g.Go(func() error {
		return httpserver.Run(ctx, srv, cfg.Server.ShutdownTimeout, log)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func scheduleOrDefault(s string) string {
	if s == "" {
		return config.Default().Audit.VerifySchedule
	}
	return s
}
