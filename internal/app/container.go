// Package app wires the shell's dependency graph.
package app

import (
	"context"
	"os"

	"github.com/google/uuid"

	"github.com/doeshing/dirsh/internal/domain"
	"github.com/doeshing/dirsh/internal/infrastructure/config"
	"github.com/doeshing/dirsh/internal/infrastructure/executor"
	"github.com/doeshing/dirsh/internal/infrastructure/plugin"
	"github.com/doeshing/dirsh/internal/infrastructure/store"
	"github.com/doeshing/dirsh/internal/pkg/logger"
	"github.com/doeshing/dirsh/internal/ports"
	"github.com/doeshing/dirsh/internal/services"
)

// Container is the explicit shell context passed through the frontend:
// every registry, store, and scope map lives here rather than in
// package-level singletons, so the core stays testable in isolation.
type Container struct {
	Config   domain.Config
	Store    *store.SQLiteStore
	Registry *services.Registry
	Scope    *services.Scope
	Host     *plugin.Host
	Executor *executor.LocalExecutor
	Pipeline *services.Pipeline
	Logger   ports.Logger
}

// BuildContainer constructs the dependency graph and restores persisted
// state: plugin records, plugin-registered commands, and the alias and
// variable scope for the current working directory.
func BuildContainer(ctx context.Context, verbose bool) (*Container, error) {
	cfgLoader := config.NewFileLoader("")
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.NewStd(verbose, map[string]interface{}{"session": uuid.NewString()})

	st, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	registry := services.NewRegistry()
	scope := services.NewScope(st, log)
	host := plugin.NewHost(st, st, st, registry, log, nil, cfg.PluginTimeout())
	if err := host.LoadState(ctx); err != nil {
		st.Close()
		return nil, err
	}

	exec := executor.NewLocalExecutor(cfg.Shell)
	pipeline := &services.Pipeline{
		Registry: registry,
		Scope:    scope,
		Executor: exec,
		Hooks:    host,
		Logger:   log,
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "/"
	}
	if err := scope.Recompute(ctx, cwd); err != nil {
		st.Close()
		return nil, err
	}

	return &Container{
		Config:   cfg,
		Store:    st,
		Registry: registry,
		Scope:    scope,
		Host:     host,
		Executor: exec,
		Pipeline: pipeline,
		Logger:   log,
	}, nil
}

// Close releases the container's resources.
func (c *Container) Close() error {
	return c.Store.Close()
}
