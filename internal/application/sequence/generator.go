// Package sequence emite consecutivos de documentos sin huecos ni duplicados.
package sequence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/Ledger-api/internal/domain"
	"github.com/jhoicas/Ledger-api/internal/domain/repository"
	"github.com/jhoicas/Ledger-api/pkg/retry"
)

// Format arma el número visible: PREFIJO-AÑO-VALOR con relleno de ceros.
// Format("INV", 2026, 42, 6) = "INV-2026-000042".
func Format(prefix string, year int, value int64, padding int) string {
	if padding < 1 {
		padding = 1
	}
	num := fmt.Sprintf("%0*d", padding, value)
	if prefix == "" {
		return fmt.Sprintf("%d-%s", year, num)
	}
	return fmt.Sprintf("%s-%d-%s", strings.ToUpper(prefix), year, num)
}

// Config formato del número.
type Config struct {
	Prefix  string
	Padding int
}

// Generator consecutivos por (tenant, nombre).
type Generator struct {
	store repository.Store
	retry *retry.Retrier
	cfg   Config
	now   func() time.Time
}

// NewGenerator construye el generador.
func NewGenerator(store repository.Store, retrier *retry.Retrier, cfg Config) *Generator {
	if cfg.Padding < 1 {
		cfg.Padding = 6
	}
	return &Generator{store: store, retry: retrier, cfg: cfg, now: time.Now}
}

// WithClock reemplaza el reloj usado para el año del número.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Next incrementa en una unidad atómica propia y devuelve el número formateado.
func (g *Generator) Next(ctx context.Context, tenantID, name string) (string, error) {
	var number string
	err := g.retry.Do(ctx, "sequence_next", func(ctx context.Context) error {
		return g.store.Run(ctx, func(ctx context.Context, r repository.Repos) error {
			var err error
			number, _, err = g.NextInTx(ctx, r, tenantID, name)
			return err
		})
	})
	if err != nil {
		return "", err
	}
	return number, nil
}

// NextInTx incrementa dentro de la unidad del caller. Si esa unidad se revierte,
// el valor no se consume y el siguiente intento lo vuelve a recibir.
func (g *Generator) NextInTx(ctx context.Context, r repository.Repos, tenantID, name string) (string, int64, error) {
	if tenantID == "" || name == "" {
		return "", 0, domain.Validationf("tenant y nombre de secuencia requeridos")
	}
	value, err := r.Sequences.Next(ctx, tenantID, name)
	if err != nil {
		return "", 0, err
	}
	return Format(g.cfg.Prefix, g.now().UTC().Year(), value, g.cfg.Padding), value, nil
}

// Peek último valor emitido (0 si nunca se usó).
func (g *Generator) Peek(ctx context.Context, tenantID, name string) (int64, error) {
	return g.store.Reader().Sequences.Peek(ctx, tenantID, name)
}
