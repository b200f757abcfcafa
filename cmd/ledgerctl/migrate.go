package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Ledger-api/internal/infrastructure/postgres"
)

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones pendientes de PostgreSQL",
		Example: `  # con DATABASE_URL en el entorno
  ledgerctl migrate`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if e.store.Pool == nil {
				return errors.New("migrate requiere STORE_DRIVER=postgres")
			}
			applied, err := postgres.Migrate(cmd.Context(), e.store.Pool)
			if err != nil {
				return err
			}
			e.log.Info().Int("applied", len(applied)).Msg("migraciones aplicadas")
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "esquema al día")
				return nil
			}
			for _, v := range applied {
				fmt.Fprintln(cmd.OutOrStdout(), "aplicada", v)
			}
			return nil
		},
	}
}
