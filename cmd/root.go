// cmd/root.go
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/testlab/internal/config"
	"github.com/xkilldash9x/testlab/internal/observability"
)

// envPrefix scopes environment overrides, e.g. TESTLAB_BROWSER_HEADLESS.
const envPrefix = "TESTLAB"

// app carries what PersistentPreRunE resolved to the subcommands.
type app struct {
	cfgFile string
	v       *viper.Viper
	cfg     *config.Config
}

func (a *app) logger() *zap.Logger {
	return observability.GetLogger()
}

// newRootCmd builds the command tree. Every call returns an independent
// tree, so tests never share flag or config state.
func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "testlab",
		Short:         "testlab binds page objects to live or offline documents.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.initializeConfig(cmd); err != nil {
				return err
			}
			cfg, err := config.NewConfigFromViper(a.v)
			if err != nil {
				observability.Initialize(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "testlab"}, zapcore.Lock(os.Stderr))
				return err
			}
			a.cfg = cfg
			// Logs go to stderr; stdout carries command output.
			observability.Initialize(cfg.Logger(), zapcore.Lock(os.Stderr))
			a.logger().Debug("Starting testlab", zap.String("version", Version))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().Bool("headless", true, "run the browser headless")
	rootCmd.PersistentFlags().String("remote-url", "", "attach to a running browser's DevTools endpoint")
	rootCmd.PersistentFlags().String("results-dir", "", "write step results and captures to this directory")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(newProbeCmd(a), newInspectCmd(a), newVersionCmd())
	return rootCmd
}

// initializeConfig layers defaults, the config file, TESTLAB_* variables and
// flags, in increasing precedence.
func (a *app) initializeConfig(cmd *cobra.Command) error {
	config.SetDefaults(a.v)
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		a.v.AddConfigPath(".")
		a.v.SetConfigName("config")
		a.v.SetConfigType("yaml")
	}

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	flags := cmd.Flags()
	for key, flag := range map[string]string{
		"browser.headless":   "headless",
		"browser.remote_url": "remote-url",
		"report.results_dir": "results-dir",
		"logger.level":       "log-level",
	} {
		if f := flags.Lookup(flag); f != nil && f.Changed {
			if err := a.v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// Execute runs the CLI with a context cancelled on SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	observability.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
