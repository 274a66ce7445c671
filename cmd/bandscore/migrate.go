package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create database tables and indexes, then exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			setupLogging(cmd)
			v := viperForCmd(cmd)

			// Opening the backend applies the SQL schema and mongo indexes.
			b, err := openBackend(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer b.Close()
			slog.Info("schema up to date", "store", v.GetString("store"), "db_driver", v.GetString("db-driver"))
			return nil
		},
	}
	f := cmd.Flags()
	addStoreFlags(f)
	addLogFlags(f)
	return cmd
}
