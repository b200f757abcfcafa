package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Ledger-api/internal/application/dto"
)

func newReconcileCmd(e *env) *cobra.Command {
	var (
		asJSON      bool
		invoices    bool
		failOnDrift bool
	)
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compara saldo almacenado y recalculado de las cuentas conciliables",
		Long: `Recorre en paralelo las cuentas conciliables del tenant y reporta las que no cuadran.
No modifica nada; para corregir use "ledgerctl repair".`,
		Example: `  ledgerctl reconcile --tenant 6f1c...
  ledgerctl reconcile --tenant 6f1c... --invoices --fail-on-drift`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.requireTenant(); err != nil {
				return err
			}
			ctx := cmd.Context()
			report, err := e.svc.Reconciliation.Run(ctx, e.tenant)
			if err != nil {
				return err
			}
			var bad []dto.InvoiceTotalsCheck
			if invoices {
				if bad, err = e.svc.Reconciliation.CheckInvoiceTotals(ctx, e.tenant); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(struct {
					*dto.ReconciliationReport
					Invoices []dto.InvoiceTotalsCheck `json:"invoices,omitempty"`
				}{report, bad}); err != nil {
					return err
				}
			} else {
				printReport(out, report, bad)
			}

			if failOnDrift && (report.Drifted > 0 || len(bad) > 0) {
				return fmt.Errorf("%d cuentas y %d facturas descuadradas", report.Drifted, len(bad))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "salida JSON")
	cmd.Flags().BoolVar(&invoices, "invoices", false, "verificar también los totales de las facturas")
	cmd.Flags().BoolVar(&failOnDrift, "fail-on-drift", false, "terminar con error si hay descuadres")
	return cmd
}

func printReport(out io.Writer, report *dto.ReconciliationReport, invoices []dto.InvoiceTotalsCheck) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CÓDIGO\tALMACENADO\tCALCULADO\tDIFERENCIA\tESTADO")
	for _, a := range report.Accounts {
		state := "ok"
		if !a.Consistent {
			state = "DESCUADRE"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", a.Code, a.Stored, a.Calculated, a.Difference, state)
	}
	_ = w.Flush()
	fmt.Fprintf(out, "%d cuentas verificadas, %d descuadradas\n", report.Checked, report.Drifted)
	for _, inv := range invoices {
		fmt.Fprintf(out, "factura %s: total %s, calculado %s\n", inv.Number, inv.Stored, inv.Calculated)
	}
}

func newRepairCmd(e *env) *cobra.Command {
	var accounts []string
	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Reemplaza el saldo almacenado por el recalculado",
		Long: `Recalcula apertura + movimientos y sobrescribe el saldo de las cuentas indicadas
(todas si no se pasa --account). Cada corrección queda en la bitácora con el actor.`,
		Example: `  ledgerctl repair --tenant 6f1c... --account 0b7e... --account 91d2...`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.requireTenant(); err != nil {
				return err
			}
			corrected, err := e.svc.Reconciliation.RecalculateAccountBalances(cmd.Context(), e.tenant, e.actor, accounts...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, c := range corrected {
				fmt.Fprintf(out, "%s: %s -> %s\n", c.Code, c.Stored, c.Calculated)
			}
			fmt.Fprintf(out, "%d saldos corregidos\n", len(corrected))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&accounts, "account", nil, "ID de cuenta a reparar (repetible)")
	return cmd
}
