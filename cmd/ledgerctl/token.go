package main

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/jhoicas/Ledger-api/pkg/jwt"
)

func newTokenCmd(e *env) *cobra.Command {
	var (
		user    string
		role    string
		minutes int
	)
	cmd := &cobra.Command{
		Use:     "token",
		Short:   "Firma un JWT con JWT_SECRET para un usuario, tenant y rol",
		Example: `  ledgerctl token --tenant 6f1c... --user integracion-erp --role accountant --minutes 1440`,
		// no abre el almacén
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.loadConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.requireTenant(); err != nil {
				return err
			}
			if user == "" {
				return errors.New("--user es requerido")
			}
			roles := []string{jwt.RoleAdmin, jwt.RoleAccountant, jwt.RoleAuditor}
			if !lo.Contains(roles, role) {
				return fmt.Errorf("--role debe ser uno de %v", roles)
			}
			if minutes <= 0 {
				minutes = e.cfg.JWT.Expiration
			}
			tok, err := jwt.Generate(e.cfg.JWT.Secret, user, e.tenant, role, e.cfg.JWT.Issuer, minutes)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user_id del token (actor en la bitácora)")
	cmd.Flags().StringVar(&role, "role", jwt.RoleAccountant, "admin, accountant o auditor")
	cmd.Flags().IntVar(&minutes, "minutes", 0, "vigencia; 0 = JWT_EXPIRATION_MINUTES")
	return cmd
}
