// Package memory almacén transaccional en memoria.
//
// El estado confirmado es inmutable y se publica en un atomic.Pointer: los lectores lo
// cargan sin bloquear. Los escritores se serializan con un mutex; cada unidad atómica
// trabaja sobre una copia y la publica solo si fn termina sin error (rollback = descartar la copia).
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/samber/lo"

	"github.com/jhoicas/Ledger-api/internal/domain/entity"
	"github.com/jhoicas/Ledger-api/internal/domain/repository"
)

type state struct {
	accounts      map[string]entity.Account
	accountCodes  map[string]string // tenant|code -> id
	transactions  map[string]entity.Transaction
	txByAccount   map[string][]string
	invoices      map[string]entity.Invoice // solo cabecera
	items         map[string][]entity.InvoiceItem
	payments      map[string]entity.Payment
	paysByInvoice map[string][]string
	sequences     map[string]int64 // tenant|name -> último valor
	audit         []entity.AuditLogEntry
	customers     map[string]entity.Customer
	companies     map[string]entity.Company
}

func newState() *state {
	return &state{
		accounts:      make(map[string]entity.Account),
		accountCodes:  make(map[string]string),
		transactions:  make(map[string]entity.Transaction),
		txByAccount:   make(map[string][]string),
		invoices:      make(map[string]entity.Invoice),
		items:         make(map[string][]entity.InvoiceItem),
		payments:      make(map[string]entity.Payment),
		paysByInvoice: make(map[string][]string),
		sequences:     make(map[string]int64),
		customers:     make(map[string]entity.Customer),
		companies:     make(map[string]entity.Company),
	}
}

// clone copia superficial de los mapas. Los slices se recortan (Clip) para que
// un append en la copia nunca escriba sobre el arreglo compartido con el estado publicado.
func (s *state) clone() *state {
	return &state{
		accounts:      maps.Clone(s.accounts),
		accountCodes:  maps.Clone(s.accountCodes),
		transactions:  maps.Clone(s.transactions),
		txByAccount:   clipAll(s.txByAccount),
		invoices:      maps.Clone(s.invoices),
		items:         clipAll(s.items),
		payments:      maps.Clone(s.payments),
		paysByInvoice: clipAll(s.paysByInvoice),
		sequences:     maps.Clone(s.sequences),
		audit:         slices.Clip(s.audit),
		customers:     maps.Clone(s.customers),
		companies:     maps.Clone(s.companies),
	}
}

func clipAll[T any](m map[string][]T) map[string][]T {
	out := make(map[string][]T, len(m))
	for k, v := range m {
		out[k] = slices.Clip(v)
	}
	return out
}

// Store implementa repository.Store en memoria.
type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[state]
}

var _ repository.Store = (*Store)(nil)

// New crea un almacén vacío.
func New() *Store {
	s := &Store{}
	s.current.Store(newState())
	return s
}

// Run ejecuta fn sobre una copia privada del estado y la publica si fn no falla.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) error {
	return s.commit(ctx, func(next *state) error {
		return fn(ctx, s.repos(next))
	})
}

func (s *Store) commit(ctx context.Context, fn func(next *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	next := s.current.Load().clone()
	if err := fn(next); err != nil {
		return err
	}
	s.current.Store(next)
	return nil
}

// Reader repos sobre el último estado confirmado. Las escrituras hechas por esta vía
// se confirman de inmediato, cada una en su propia unidad.
func (s *Store) Reader() repository.Repos {
	return s.repos(nil)
}

func (s *Store) repos(tx *state) repository.Repos {
	return repository.Repos{
		Accounts:     &accountRepo{s: s, tx: tx},
		Transactions: &transactionRepo{s: s, tx: tx},
		Invoices:     &invoiceRepo{s: s, tx: tx},
		Payments:     &paymentRepo{s: s, tx: tx},
		Sequences:    &sequenceRepo{s: s, tx: tx},
		Audit:        &auditRepo{s: s, tx: tx},
		Customers:    &customerRepo{s: s, tx: tx},
		Companies:    &companyRepo{s: s, tx: tx},
	}
}

// view estado para lectura: el de la unidad en curso o el confirmado.
func (s *Store) view(tx *state) *state {
	if tx != nil {
		return tx
	}
	return s.current.Load()
}

// apply escribe en la unidad en curso o, sin unidad, en una propia.
func (s *Store) apply(ctx context.Context, tx *state, fn func(st *state) error) error {
	if tx != nil {
		return fn(tx)
	}
	return s.commit(ctx, fn)
}

func key(parts ...string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += "|" + p
	}
	return out
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		return lo.Subset(items, offset, uint(len(items)))
	}
	return lo.Subset(items, offset, uint(limit))
}
