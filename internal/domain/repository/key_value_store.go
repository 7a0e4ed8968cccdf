package repository

import "context"

// KeyValueStore almacenamiento local clave/valor (equivalente a localStorage).
// Get devuelve domain.ErrNotFound si la clave no existe.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
