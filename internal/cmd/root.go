// Package cmd implements the throttle operator CLI: inspect, exercise and
// maintain a persisted throttle store.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ryhazerus/throttle"
	"github.com/ryhazerus/throttle/store"
)

const (
	envPrefix = "THROTTLE"
	defaultDB = "throttle.db"
)

var version = "dev"

// SetVersion is called by the main package to set the reported version.
func SetVersion(v string) {
	version = v
}

// Execute builds the root command and runs it.
func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}

// app carries state shared by every subcommand of one root command.
type app struct {
	v      *viper.Viper
	logger *zap.Logger
}

// NewRootCommand returns the root command with all subcommands attached.
// Each call gets its own viper instance, so commands are safe to build in
// tests.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New(), logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "throttle",
		Short:         "Inspect and maintain a persisted throttle store",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	flags := root.PersistentFlags()
	flags.String("db", defaultDB, "SQLite database path (env THROTTLE_DB)")
	flags.String("config", "", "YAML category overlay (env THROTTLE_CONFIG)")
	flags.BoolP("verbose", "v", false, "verbose output (sets log level to debug)")

	_ = a.v.BindPFlag("db", flags.Lookup("db"))
	_ = a.v.BindPFlag("config", flags.Lookup("config"))
	_ = a.v.BindPFlag("verbose", flags.Lookup("verbose"))

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	a.v.SetDefault("db", defaultDB)

	root.AddCommand(
		newCheckCommand(a),
		newResetCommand(a),
		newListCommand(a),
		newSweepCommand(a),
		newConfigsCommand(a),
	)
	return root
}

func (a *app) init() error {
	logger, err := newLogger(a.v.GetBool("verbose"))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.logger = logger
	return nil
}

// newLogger builds a console logger on stderr. Warnings and above are shown
// unless verbose is set.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.DisableStacktrace = true
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// configs returns the default category table, overlaid with --config when set.
func (a *app) configs() (map[string]throttle.Config, error) {
	path := a.v.GetString("config")
	if path == "" {
		return throttle.DefaultConfigs(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close() // nolint:errcheck // read-only

	configs, err := throttle.LoadConfigs(f)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	a.logger.Debug("loaded category overlay", zap.String("path", path))
	return configs, nil
}

// openLimiter opens the SQLite store and wraps it in a limiter with the
// background sweep disabled. The caller must Close it.
func (a *app) openLimiter(env *throttle.Environment, opts ...throttle.Option) (*throttle.Limiter, error) {
	configs, err := a.configs()
	if err != nil {
		return nil, err
	}

	path := a.v.GetString("db")
	s, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("opened store", zap.String("db", path))

	base := []throttle.Option{
		throttle.WithStore(s),
		throttle.WithConfigs(configs),
		throttle.WithLogger(a.logger),
		throttle.WithCleanupInterval(0),
	}
	if env != nil {
		base = append(base, throttle.WithEnvironment(env))
	}
	return throttle.New(append(base, opts...)...), nil
}
