package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Pratyush783/bug-fixer-agent/agent/reasoning"
	"github.com/Pratyush783/bug-fixer-agent/agent/session"
	"github.com/Pratyush783/bug-fixer-agent/agent/store"
	"github.com/Pratyush783/bug-fixer-agent/api"
	"github.com/Pratyush783/bug-fixer-agent/config"
	"github.com/Pratyush783/bug-fixer-agent/pkg/hertzx"
	"github.com/Pratyush783/bug-fixer-agent/pkg/logs"
	"github.com/Pratyush783/bug-fixer-agent/pkg/ormx"
	"github.com/Pratyush783/bug-fixer-agent/pkg/redisx"
	"github.com/Pratyush783/bug-fixer-agent/pkg/schedule"
)

func main() {
	configDir := flag.String("config-dir", "config", "directory holding config.yaml")
	flag.Parse()

	c, err := config.Load(*configDir)
	if err != nil {
		logs.Fatalf("failed to load config: %v", err)
	}
	if err := logs.InitLogger(c.Log, "bugfixer.log"); err != nil {
		logs.Fatalf("failed to init logger: %v", err)
	}

	q := buildStore(c)
	rdb := buildRedis(c)

	registry := session.NewService(session.Config{
		WorkingDir:        c.Agent.WorkingDir,
		Threshold:         c.Agent.ContextThreshold,
		ProtectedTurns:    c.Agent.ProtectedTurns,
		PermissionTimeout: time.Duration(c.Agent.PermissionTimeoutSeconds) * time.Second,
		IdleTTL:           time.Duration(c.Agent.SessionIdleTTLMinutes) * time.Minute,
		MaxSessions:       c.Agent.MaxSessions,
	}, q, buildReasonerFactory(c), rdb)

	scheduler := schedule.NewScheduler()
	scheduler.AddScheduledTask("close-idle-sessions", c.Janitor, func() {
		closed := registry.CloseIdle(context.Background())
		if closed > 0 {
			logs.Infof("closed %d idle sessions", closed)
		}
	})

	hertz := hertzx.WebEngine(c.Web)
	api.RegisterRoutes(hertz, registry, q)

	var g errgroup.Group
	g.Go(func() error {
		hertz.Spin()
		return nil
	})
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logs.Infof("shutting down")
		scheduler.Stop()
		registry.Shutdown()
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(c.Web.ShutdownTimeout)*time.Millisecond)
		defer cancel()
		return hertz.Shutdown(ctx)
	})
	if err := g.Wait(); err != nil {
		logs.Errorf("server exited with error: %v", err)
	}
}

func buildStore(c *config.Config) store.Querier {
	if c.DB == nil {
		logs.Infof("no database configured, using in-memory store")
		return store.NewMemory()
	}
	db, err := ormx.NewDBClient(*c.DB)
	if err != nil {
		logs.Fatalf("failed to connect database: %v", err)
	}
	return store.New(db)
}

func buildRedis(c *config.Config) redisx.Redis {
	if c.Redis == nil {
		return nil
	}
	rdb, err := redisx.NewRedis(*c.Redis)
	if err != nil {
		logs.Fatalf("failed to connect redis: %v", err)
	}
	return rdb
}

func buildReasonerFactory(c *config.Config) session.ReasonerFactory {
	if c.Agent.Reasoner == config.ReasonerModel {
		return func(workingDir string) reasoning.Reasoner {
			return reasoning.NewModel(reasoning.ModelOptions{
				APIKey:  c.Agent.Model.APIKey,
				BaseURL: c.Agent.Model.BaseURL,
				Model:   c.Agent.Model.Name,
			})
		}
	}
	return func(workingDir string) reasoning.Reasoner {
		return reasoning.NewHeuristic(workingDir, reasoning.HeuristicOptions{
			TargetFile:  c.Agent.TargetFile,
			TestFile:    c.Agent.TestFile,
			TestCommand: c.Agent.TestCommand,
		})
	}
}
