package cmd

import (
	"context"
	"fmt"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/opensaas/devfleet/config"
)

var (
	cfgFile string
	conf    *config.Config
)

var rootCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devfleet",
		Short: "Devfleet - multi-worktree development environment orchestrator",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return initConfig()
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	cmd.PersistentFlags().String("run-dir", "", "runtime directory (locks, PID files)")
	cmd.PersistentFlags().String("log-dir", "", "dev-server log directory")
	cmd.PersistentFlags().String("docker-binary", "", "docker executable")

	_ = viper.BindPFlag("run_dir", cmd.PersistentFlags().Lookup("run-dir"))
	_ = viper.BindPFlag("log_dir", cmd.PersistentFlags().Lookup("log-dir"))
	_ = viper.BindPFlag("docker_binary", cmd.PersistentFlags().Lookup("docker-binary"))

	viper.SetEnvPrefix("DEVFLEET")
	viper.AutomaticEnv()

	cmd.AddCommand(
		statusCmd,
		startCmd,
		dbCmd,
		launchAllCmd,
		versionCmd,
	)

	return cmd
}()

func initConfig() error {
	conf = config.DefaultConfig()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		// An explicit --config may carry the allocation-table override;
		// running on the built-in table instead would reallocate another
		// workspace's ports. Unreadable means abort, never fall back.
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		_ = viper.ReadInConfig() // optional; missing implicit config is OK
	}

	if err := viper.Unmarshal(conf); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	return log.SetupLog(context.Background(), &conf.Log, "")
}

// Execute is the main entry point called from main.go.
func Execute() error {
	ctx, cancel := newCommandContext()
	defer cancel()
	return rootCmd.ExecuteContext(ctx)
}
