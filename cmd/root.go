// Package cmd contains the commands of the foodieconnect binary.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"foodieconnect/config"
	"foodieconnect/logging"
)

const (
	logLevelFlag = "log-level"
	logLevelConf = "log.level"
)

// NewRootCommand builds the command tree. Every child reads its settings from
// flags, FOODIE_* environment variables or config.yaml, in that order.
func NewRootCommand(v *viper.Viper) *cobra.Command {
	config.Init(v)
	v.SetDefault(logLevelConf, "info")
	_ = v.BindEnv(logLevelConf, config.EnvPrefix+"_LOG_LEVEL", "LOG_LEVEL")

	root := &cobra.Command{
		Use:           "foodieconnect",
		Short:         "Social cooking platform API server",
		Long:          `foodieconnect serves the REST and websocket API for cooking groups, recipes, friends and chat.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := bindFlags(v, cmd, map[string]string{logLevelConf: logLevelFlag}); err != nil {
				return err
			}
			if err := config.ReadFile(v); err != nil {
				return err
			}
			level := logging.LevelFromString(v.GetString(logLevelConf))
			logging.SetupWithLevel(level)
			if level > slog.LevelDebug {
				gin.SetMode(gin.ReleaseMode)
			}
			return nil
		},
	}
	root.PersistentFlags().String(logLevelFlag, "", "log level: debug, info, warn or error")

	root.AddCommand(NewServeCommand(v), NewMigrateCommand(v))
	return root
}

// bindFlags binds each config key to the named flag of cmd. Binding happens
// at run time so commands sharing a key do not override each other.
func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) error {
	for key, name := range keys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			return fmt.Errorf("unknown flag %q", name)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}
