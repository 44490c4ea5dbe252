package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"foodieconnect/database"
)

const (
	datastoreEngineFlag = "datastore-engine"
	datastoreURIFlag    = "datastore-uri"
	versionFlag         = "version"
	timeoutFlag         = "timeout"
)

func NewMigrateCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database schema migrations",
		Long:  `The migrate command brings the database schema to the latest (or the given) version.`,
		Args:  cobra.NoArgs,
	}

	flags := cmd.Flags()
	flags.String(datastoreEngineFlag, "", "the datastore engine: mysql or sqlite")
	flags.String(datastoreURIFlag, "", "the connection uri of the database to migrate")
	flags.Int64(versionFlag, 0, "the version to migrate to (if omitted the latest schema will be used)")
	flags.Duration(timeoutFlag, time.Minute, "how long to keep retrying the initial connection")

	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		return bindFlags(v, cmd, map[string]string{
			"datastore.engine":       datastoreEngineFlag,
			"datastore.uri":          datastoreURIFlag,
			"datastore.conn-timeout": timeoutFlag,
			"migrate.version":        versionFlag,
		})
	}
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		engine := v.GetString("datastore.engine")

		db, err := database.Open(ctx, database.Options{
			Engine:      engine,
			URI:         v.GetString("datastore.uri"),
			ConnTimeout: v.GetDuration("datastore.conn-timeout"),
		})
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.Migrate(ctx, db, engine, v.GetInt64("migrate.version")); err != nil {
			return err
		}
		current, err := database.Version(ctx, db, engine)
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		slog.Info("schema ready", "engine", engine, "version", current)
		return nil
	}
	return cmd
}
