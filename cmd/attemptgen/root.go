package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TFMV/attemptgen/config"
	"github.com/TFMV/attemptgen/integrations"
	_ "github.com/TFMV/attemptgen/integrations/all"
	"github.com/TFMV/attemptgen/logger"
	"github.com/TFMV/attemptgen/metrics"
	"github.com/TFMV/attemptgen/pkg/attempt"
	"github.com/TFMV/attemptgen/pkg/randr"
	"github.com/TFMV/attemptgen/pkg/schema"
	"github.com/TFMV/attemptgen/version"
)

// app carries what every subcommand shares: the loaded config and logger.
type app struct {
	configPath string
	logLevel   string
	policy     string
	seed       uint64

	cfg *config.Config
	log *zap.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "attemptgen",
		Short: "Generate payment attempt records and bind them to a store",
		Long: `attemptgen generates randomized payment attempt records (58 columns),
encodes them as an ordered parameter list and writes them to a store, reading
them back to confirm every column survived the round trip.

Configuration is read from --config (YAML) and ATTEMPTGEN_* environment
variables, e.g. ATTEMPTGEN_STORE_URL, ATTEMPTGEN_STORE_USERNAME and
ATTEMPTGEN_STORE_PASSWORD.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return a.load(cmd) },
	}
	root.Version = version.GetVersion()

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Path to a YAML config file")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&a.policy, "policy", "", "Enum policy (canonical, uniform); overrides generator.enum_policy")
	flags.Uint64Var(&a.seed, "seed", 0, "Seed for reproducible output; overrides generator.seed, 0 means random")

	root.AddCommand(
		newRunCommand(a),
		newGenerateCommand(a),
		newSchemaCommand(a),
		newStatsCommand(a),
		newExportCommand(a),
		newInspectCommand(a),
		newServeCommand(a),
		newVersionCommand(),
	)
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.policy != "" {
		cfg.Generator.EnumPolicy = a.policy
	}
	if cmd.Flags().Changed("seed") {
		cfg.Generator.Seed = a.seed
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.SetLogPath(cfg.Log.Path)
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logger.GetLogger().With(zap.String("command", cmd.Name()))
	return nil
}

// factory builds the record factory from the configured enum policy.
func (a *app) factory() attempt.Factory {
	// Validate has already checked the policy name.
	p, _ := randr.ParseEnumPolicy(a.cfg.Generator.EnumPolicy)
	return attempt.Factory{EnumPolicy: p}
}

// rand returns a seeded Rand when a seed is configured, otherwise one drawing
// from the operating system. The seed is returned for reports.
func (a *app) rand() (*randr.Rand, *uint64) {
	if seed := a.cfg.Generator.Seed; seed != 0 {
		return randr.NewSeeded(seed), &seed
	}
	return randr.NewSecure(), nil
}

// openStore opens the configured store.
func (a *app) openStore(ctx context.Context) (integrations.Store, error) {
	sc := a.cfg.Store
	a.log.Debug("Opening store", zap.String("type", sc.Type), zap.String("table", sc.Table))
	return integrations.Open(ctx, sc.Type,
		integrations.WithPath(sc.DSN()),
		integrations.WithDriverPath(sc.DriverPath),
		integrations.WithTable(sc.Table),
		integrations.WithLogger(a.log),
		integrations.WithContext(ctx),
	)
}

// recorder wires the configured metrics backends. The collector is always
// present; it pushes only when a Pushgateway is configured.
func (a *app) recorder() (metrics.Multi, *metrics.Collector, error) {
	mc := a.cfg.Metrics
	collector, err := metrics.NewCollector(mc.Job, mc.PushgatewayURL)
	if err != nil {
		return nil, nil, err
	}
	rec := metrics.Multi{collector}
	if mc.StatsdAddr != "" {
		sr, err := metrics.NewStatsdRecorder(mc.StatsdAddr, "", "job:"+mc.Job)
		if err != nil {
			return nil, nil, err
		}
		rec = append(rec, sr)
	}
	return rec, collector, nil
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// dialectFor maps a store type to its SQL dialect.
func dialectFor(storeType string) (schema.Dialect, error) {
	return schema.ParseDialect(strings.TrimPrefix(storeType, "adbc-"))
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of attemptgen",
		Args:  cobra.NoArgs,
		// The version needs no config.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
