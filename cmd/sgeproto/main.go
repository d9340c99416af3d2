// Command sgeproto checks schemas and converts between YAML documents,
// encoded messages and frames.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/sgeproto/config"
	"github.com/wippyai/sgeproto/engine"
	"github.com/wippyai/sgeproto/internal/logging"
	"github.com/wippyai/sgeproto/metrics"
	"github.com/wippyai/sgeproto/schema"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app is the state shared by all subcommands of one invocation.
type app struct {
	cfg      config.Config
	log      *zap.Logger
	eng      *engine.Engine
	registry *prometheus.Registry

	configPath string
	dumpStats  bool
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "sgeproto",
		Short: "Schema-driven binary serialization",
		Long: `sgeproto parses message schemas, encodes YAML or JSON documents into
compact tagged binary code, wraps code in checksummed frames and decodes
it back.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown(cmd.ErrOrStderr())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	flags.StringP("schema", "s", "", "schema file (overrides config and "+config.EnvSchema+")")
	flags.Bool("strict", false, "reject unknown field tags when decoding")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.BoolVar(&a.dumpStats, "metrics", false, "print operation metrics to stderr on exit")

	root.AddCommand(
		newCheckCmd(a),
		newEncodeCmd(a),
		newDecodeCmd(a),
		newPackCmd(a),
		newUnpackCmd(a),
		newInspectCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg := config.Default()
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("schema") {
		cfg.Schema, _ = flags.GetString("schema")
	}
	if flags.Changed("strict") {
		cfg.Decode.Strict, _ = flags.GetBool("strict")
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if a.dumpStats {
		cfg.Metrics.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	a.log = log
	schema.SetLogger(log.Named("schema"))

	opts := []engine.Option{engine.WithConfig(cfg), engine.WithLogger(log.Named("engine"))}
	if cfg.Metrics.Enabled {
		c := metrics.New(cfg.Metrics.Namespace)
		a.registry = prometheus.NewRegistry()
		if err := a.registry.Register(c); err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		opts = append(opts, engine.WithObserver(c))
	}
	a.eng = engine.New(opts...)
	return nil
}

// loadSchema parses the configured schema into the engine.
func (a *app) loadSchema() error {
	if a.cfg.Schema == "" {
		return fmt.Errorf("no schema: pass --schema, set %s or add schema to the config file", config.EnvSchema)
	}
	return a.eng.ParseFile(a.cfg.Schema)
}

func (a *app) teardown(w io.Writer) error {
	if a.eng != nil {
		a.eng.Destroy()
	}
	if a.registry != nil {
		if err := writeMetrics(w, a.registry); err != nil {
			return err
		}
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
	return nil
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
