package repository

import (
	"context"
)

// SequenceRepository define el puerto de los consecutivos de documentos.
type SequenceRepository interface {
	// Next incrementa atómicamente el contador (tenant, nombre) y devuelve el nuevo valor.
	// El incremento queda bloqueado hasta el fin de la unidad atómica: si esta se revierte,
	// el número no se consume.
	Next(ctx context.Context, tenantID, name string) (int64, error)

	// Peek devuelve el último valor emitido (0 si el contador no existe).
	Peek(ctx context.Context, tenantID, name string) (int64, error)
}
