package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bitfsorg/libfactory-go/access"
	"github.com/bitfsorg/libfactory-go/config"
	"github.com/bitfsorg/libfactory-go/event"
	"github.com/bitfsorg/libfactory-go/factory"
	"github.com/bitfsorg/libfactory-go/ident"
	"github.com/bitfsorg/libfactory-go/logging"
	"github.com/bitfsorg/libfactory-go/registry"
	"github.com/bitfsorg/libfactory-go/server"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file into the data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("datadir")
			path := config.ConfigPath(dataDir)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config already exists: %s", path)
			}
			cfg := config.DefaultConfig()
			cfg.DataDir = dataDir
			if err := config.SaveConfig(path, cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the factory over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("datadir")
			cfg, err := config.Load(dataDir)
			if err != nil {
				return err
			}
			if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
				cfg.ListenAddr = listen
			}
			if err := config.ValidateConfig(cfg); err != nil {
				return err
			}

			logger, closer, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
	cmd.Flags().String("listen", "", "listen address (overrides config)")
	return cmd
}

func openStore(cfg config.Config) (registry.Store, error) {
	if cfg.Store == config.StoreMemory {
		return registry.NewMemStore(), nil
	}
	return registry.OpenBoltStore(cfg.DBPath())
}

func serve(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	owner, err := ident.Parse(cfg.Owner)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := event.NewMetricsSink(reg)
	if err != nil {
		return err
	}

	policy, err := creatorPolicy(cfg)
	if err != nil {
		return err
	}

	f, err := factory.New(store, factory.Options{
		Self:   ident.FromLabel(cfg.Self),
		Owner:  owner,
		Policy: policy,
		Sink:   event.Multi{event.LogSink{Logger: logger}, metrics},
		Logger: &logger,
	})
	if err != nil {
		return err
	}
	ledger := factory.NewLedger(f)

	if cfg.DefaultTypes && !owner.IsZero() {
		if err := ledger.InstallDefaultTypes(ctx, owner); err != nil {
			logger.Warn().Err(err).Msg("default types not installed")
		}
	}

	srv, err := server.New(ledger, server.Options{
		NonceTTL: cfg.NonceTTL,
		Logger:   &logger,
		Registry: reg,
		Gatherer: reg,
	})
	if err != nil {
		return err
	}
	logger.Info().
		Stringer("self", f.Self()).
		Str("store", cfg.Store).
		Str("creator_policy", cfg.CreatorPolicy).
		Str("datadir", cfg.DataDir).
		Msg("factory ready")
	return srv.ListenAndServe(ctx, cfg.ListenAddr)
}

// creatorPolicy builds the policy consulted once a gate token is set.
func creatorPolicy(cfg config.Config) (access.Policy, error) {
	switch cfg.CreatorPolicy {
	case "", config.PolicyOpen:
		return access.OpenPolicy{}, nil
	case config.PolicyAllowList:
		list := access.NewAllowList()
		for _, c := range cfg.Creators {
			id, err := ident.Parse(c)
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %w", config.ErrInvalidCreator, c, err)
			}
			list.Add(id)
		}
		return list, nil
	}
	return nil, fmt.Errorf("%w: %q", config.ErrInvalidCreatorPolicy, cfg.CreatorPolicy)
}
