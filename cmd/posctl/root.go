package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/possuite/backend/internal/bootstrap"
	"github.com/possuite/backend/internal/domain/identity"
	"github.com/possuite/backend/internal/domain/shared"
	"github.com/possuite/backend/internal/infrastructure/config"
	"github.com/spf13/cobra"
)

var version = "dev"

type configLoader func() (*config.Config, error)

// app carries the runtime shared by every subcommand. It is opened lazily
// in PersistentPreRunE so that --help never touches the database.
type app struct {
	load     configLoader
	logLevel string
	rt       *bootstrap.Runtime
}

func newRootCmd(load configLoader) *cobra.Command {
	a := &app{load: load}

	root := &cobra.Command{
		Use:   "posctl",
		Short: "Administer the POS transaction core",
		Long: `posctl inspects and repairs per-tenant sequence counters and manages
exchange rates. It reads the same config.toml and POS_* environment
variables as the worker.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.close(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")

	root.AddCommand(
		newTenantCmd(a),
		newSequenceCmd(a),
		newRatesCmd(a),
	)
	return root
}

func (a *app) open(ctx context.Context) error {
	if a.rt != nil {
		return nil
	}
	cfg, err := a.load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if cfg.Log.Output == "" || cfg.Log.Output == "stdout" {
		// Keep stdout for command output.
		cfg.Log.Output = "stderr"
	}
	rt, err := bootstrap.New(ctx, cfg, cfg.Telemetry.ServiceName+"-posctl")
	if err != nil {
		return err
	}
	a.rt = rt
	return nil
}

func (a *app) close(ctx context.Context) error {
	if a.rt == nil {
		return nil
	}
	err := a.rt.Shutdown(context.WithoutCancel(ctx))
	a.rt = nil
	return err
}

// tenant resolves ref as a tenant id or, failing that, an active tenant code.
func (a *app) tenant(ctx context.Context, ref string) (*identity.Tenant, error) {
	if ref == "" {
		return nil, errors.New("--tenant is required")
	}
	if id, err := uuid.Parse(ref); err == nil {
		return a.rt.Repos.Tenants.FindByID(ctx, id)
	}
	tenant, err := a.rt.Repos.Tenants.FindActiveByCode(ctx, ref)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("no active tenant with code %q", ref)
	}
	return tenant, err
}
