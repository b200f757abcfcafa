package main

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jhoicas/Ledger-api/internal/bootstrap"
	"github.com/jhoicas/Ledger-api/pkg/config"
	"github.com/jhoicas/Ledger-api/pkg/logger"
)

// env estado compartido por los subcomandos, armado en PersistentPreRunE.
type env struct {
	envFile string
	tenant  string
	actor   string

	cfg   *config.Config
	log   *logger.Logger
	store *bootstrap.Store
	svc   *bootstrap.Services
}

func newRootCmd() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operación del libro contable y la facturación",
		Long: `ledgerctl ejecuta tareas de operación contra el mismo almacén que usa la API:

  migrate          aplica el esquema de PostgreSQL
  reconcile        compara saldos almacenados y recalculados (solo lectura)
  repair           reemplaza saldos descuadrados por el valor recalculado
  sequence peek    muestra el último consecutivo emitido
  token            firma un JWT para integraciones y operadores

La configuración sale de las variables de entorno (STORE_DRIVER, DATABASE_URL, ...)
y opcionalmente de un archivo .env.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.open(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if e.store != nil {
				e.store.Close()
			}
		},
	}
	root.PersistentFlags().StringVar(&e.envFile, "env-file", ".env", "archivo .env a cargar si existe")
	root.PersistentFlags().StringVar(&e.tenant, "tenant", "", "tenant (company_id) sobre el que operar")
	root.PersistentFlags().StringVar(&e.actor, "actor", "ledgerctl", "actor registrado en la bitácora")

	root.AddCommand(newMigrateCmd(e), newReconcileCmd(e), newRepairCmd(e), newSequenceCmd(e), newTokenCmd(e))
	return root
}

func (e *env) loadConfig(cmd *cobra.Command) error {
	if err := godotenv.Load(e.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	e.cfg = cfg
	e.log = logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, App: "ledgerctl", Output: cmd.ErrOrStderr()})
	return nil
}

func (e *env) open(cmd *cobra.Command) error {
	if err := e.loadConfig(cmd); err != nil {
		return err
	}
	store, err := bootstrap.OpenStore(cmd.Context(), e.cfg)
	if err != nil {
		return err
	}
	e.store = store
	e.svc = bootstrap.NewServices(store, e.cfg, e.log)
	return nil
}

func (e *env) requireTenant() error {
	if e.tenant == "" {
		return errors.New("--tenant es requerido")
	}
	return nil
}
