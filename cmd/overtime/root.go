package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/warp/overtime-engine/app"
	"github.com/warp/overtime-engine/factory"
	"github.com/warp/overtime-engine/logger"
	"github.com/warp/overtime-engine/metrics"
	"github.com/warp/overtime-engine/store"
	"github.com/warp/overtime-engine/store/memory"
	"github.com/warp/overtime-engine/store/sqlite"
	"github.com/warp/overtime-engine/violations"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "overtime",
	Short:         "Overtime violation detection engine",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (YAML or JSON)")
}

// runtime is the wired engine shared by the commands.
type runtime struct {
	cfg     *factory.Config
	store   store.Store
	service *app.Service
	log     logger.Logger
}

// setup loads the configuration and wires store, engine and service. A nil
// registerer disables metrics.
func setup(ctx context.Context, reg prometheus.Registerer) (*runtime, error) {
	cfg, err := factory.LoadConfig(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	level := cfg.Logging.Level
	log := logger.NewAt("main", level)

	st, err := openStore(cfg.Store)
	if err != nil {
		return nil, err
	}

	vcfg, err := cfg.Engine.Violations()
	if err != nil {
		st.Close()
		return nil, err
	}
	opts := []violations.Option{violations.WithLogger(logger.NewAt("engine", level))}
	if reg != nil {
		rec, err := metrics.NewPromRecorder(reg)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("metrics: %w", err)
		}
		opts = append(opts, violations.WithRecorder(rec))
	}
	eng, err := violations.NewEngine(vcfg, opts...)
	if err != nil {
		st.Close()
		return nil, err
	}
	svc := app.NewService(st, eng, logger.NewAt("service", level))

	cal, err := cfg.Exclusions.Calendar()
	if err != nil {
		st.Close()
		return nil, err
	}
	seeded, err := svc.SeedExclusions(ctx, cal)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("seed exclusions: %w", err)
	}
	if seeded {
		log.Infof("seeded %d exclusion periods from config", cal.Len())
	}

	return &runtime{cfg: cfg, store: st, service: svc, log: log}, nil
}

func openStore(cfg factory.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case "memory":
		return memory.New(), nil
	default:
		st, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open database %s: %w", cfg.Path, err)
		}
		return st, nil
	}
}
