package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSequenceCmd(e *env) *cobra.Command {
	seq := &cobra.Command{
		Use:   "sequence",
		Short: "Consecutivos de numeración",
	}
	var name string
	peek := &cobra.Command{
		Use:   "peek",
		Short: "Muestra el último valor emitido sin consumir uno nuevo",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.requireTenant(); err != nil {
				return err
			}
			if name == "" {
				name = e.cfg.Invoice.SequenceName
			}
			last, err := e.svc.Numbers.Peek(cmd.Context(), e.tenant, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s/%s: %d\n", e.tenant, name, last)
			return nil
		},
	}
	peek.Flags().StringVar(&name, "name", "", "nombre del consecutivo (por defecto INVOICE_SEQUENCE_NAME)")
	seq.AddCommand(peek)
	return seq
}
