package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/taskboard/pkg/store"
)

func newMigrateCommand(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := openDatabase(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := store.RunMigrations(ctx, db, store.Dialect(cfg.Database.Driver), logger); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			applied, err := store.AppliedVersions(ctx, db)
			if err != nil {
				return err
			}
			versions := make([]int, 0, len(applied))
			for v := range applied {
				versions = append(versions, v)
			}
			sort.Ints(versions)

			fmt.Fprintf(cmd.OutOrStdout(), "Applied migrations: %v\n", versions)
			return nil
		},
	}
}
