// Package cmd implements the tinderscope command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tinderscope/internal/config"
	"github.com/xkilldash9x/tinderscope/internal/observability"
)

// app carries what PersistentPreRunE loads to the subcommands.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	logger  *zap.Logger
}

// NewRootCommand builds a fresh command tree with its own viper instance.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}
	root := &cobra.Command{
		Use:           "tinderscope",
		Short:         "tinderscope reads Tinder profiles from a logged-in browser session.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
	}
	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	root.SetVersionTemplate("tinderscope version {{.Version}}\n")

	root.AddCommand(
		newScrapeCmd(a),
		newSwipeCmd(a),
		newCookiesCmd(a),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command line against ctx.
func Execute(ctx context.Context) error {
	err := NewRootCommand().ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	logger := observability.GetLogger()
	if errors.Is(err, context.Canceled) {
		logger.Warn("Interrupted.")
	} else {
		logger.Error("Command failed.", zap.Error(err))
	}
	observability.Sync()
	return err
}

// load reads the config file and environment, then starts the logger.
func (a *app) load() error {
	if err := readConfig(a.v, a.cfgFile); err != nil {
		observability.InitializeLogger(config.NewDefaultConfig().Logger())
		return err
	}
	cfg, err := config.NewConfigFromViper(a.v)
	if err != nil {
		observability.InitializeLogger(config.NewDefaultConfig().Logger())
		return err
	}
	a.cfg = cfg

	observability.InitializeLogger(cfg.Logger())
	a.logger = observability.GetLogger()
	a.logger.Debug("Configuration loaded.", zap.String("version", Version), zap.String("config_file", a.v.ConfigFileUsed()))
	return nil
}

func readConfig(v *viper.Viper, cfgFile string) error {
	config.SetDefaults(v)
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("TINDERSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}
