package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jhoicas/ventas-xp/internal/domain"
	"github.com/jhoicas/ventas-xp/internal/domain/entity"
	"github.com/jhoicas/ventas-xp/internal/domain/repository"
	"github.com/jhoicas/ventas-xp/pkg/logger"
)

// PersistKey clave única del subconjunto persistido.
const PersistKey = "app.state.v1"

// Persisted subconjunto del estado que se guarda localmente. Nunca incluye sesión ni usuario.
type Persisted struct {
	Products   []entity.Product      `json:"products"`
	Brands     []entity.Brand        `json:"brands"`
	Categories []entity.Category     `json:"categories"`
	Catalog    *entity.CatalogFilter `json:"catalog"`
}

// Snapshot extrae el subconjunto persistible de un estado.
func Snapshot(s State) Persisted {
	catalog := s.Catalog
	return Persisted{
		Products:   orEmpty(s.Products),
		Brands:     orEmpty(s.Brands),
		Categories: orEmpty(s.Categories),
		Catalog:    &catalog,
	}
}

// Bridge sincroniza el subconjunto persistible del store con un KeyValueStore.
// Es una caché de lectura: las escrituras de negocio siempre van primero al servidor.
type Bridge struct {
	store *Store
	kv    repository.KeyValueStore
	log   *logger.Logger

	mu   sync.Mutex
	last []byte
}

// NewBridge construye el puente de persistencia.
func NewBridge(store *Store, kv repository.KeyValueStore, log *logger.Logger) *Bridge {
	if log == nil {
		log = logger.Nop()
	}
	return &Bridge{store: store, kv: kv, log: log.Component("persistence")}
}

// Load lee el subconjunto guardado. Ausente o corrupto devuelve un Persisted vacío sin error.
func (b *Bridge) Load(ctx context.Context) (Persisted, []byte) {
	raw, err := b.kv.Get(ctx, PersistKey)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			b.log.Warn().Err(err).Msg("no se pudo leer el estado persistido")
		}
		return Persisted{}, nil
	}
	var p Persisted
	if err := json.Unmarshal(raw, &p); err != nil {
		b.log.Warn().Err(err).Msg("estado persistido corrupto; se ignora")
		return Persisted{}, nil
	}
	return p, raw
}

// Hydrate aplica sincrónicamente el subconjunto guardado; debe llamarse antes de cualquier fetch remoto.
func (b *Bridge) Hydrate(ctx context.Context) {
	p, raw := b.Load(ctx)
	b.mu.Lock()
	b.last = raw
	b.mu.Unlock()
	b.store.Dispatch(Hydrate{Snapshot: p})
}

// Attach suscribe el puente al store: cada cambio del subconjunto se escribe.
func (b *Bridge) Attach(ctx context.Context) (detach func()) {
	return b.store.Subscribe(func(State, Action) {
		if err := b.Flush(ctx); err != nil {
			b.log.Warn().Err(err).Msg("no se pudo persistir el estado")
		}
	})
}

// Flush escribe el subconjunto actual si difiere de la última escritura.
func (b *Bridge) Flush(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	raw, err := json.Marshal(Snapshot(b.store.State()))
	if err != nil {
		return fmt.Errorf("serializar estado: %w", err)
	}
	if bytes.Equal(raw, b.last) {
		return nil
	}
	if err := b.kv.Set(ctx, PersistKey, raw); err != nil {
		return fmt.Errorf("guardar estado: %w", err)
	}
	b.last = raw
	return nil
}
