package billing

import (
	"context"

	"github.com/jhoicas/Ledger-api/internal/application/ledger"
	"github.com/jhoicas/Ledger-api/internal/domain/entity"
	"github.com/jhoicas/Ledger-api/internal/domain/repository"
)

// LedgerPoster interfaz para integrar facturación con el libro contable.
// PostInTx y ReverseInTx usan los repositorios del caller (misma unidad atómica):
// si retornan error, el caller revierte todo.
type LedgerPoster interface {
	PostInTx(ctx context.Context, r repository.Repos, p ledger.Posting) (*entity.Transaction, error)
	ReverseInTx(ctx context.Context, r repository.Repos, tenantID, actorID, txID, reason string) (*entity.Transaction, error)
}

// NumberIssuer emite el consecutivo definitivo dentro de la unidad del caller.
type NumberIssuer interface {
	NextInTx(ctx context.Context, r repository.Repos, tenantID, name string) (string, int64, error)
}
