package state_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ventas-xp/internal/application/state"
	"github.com/jhoicas/ventas-xp/internal/domain/entity"
	"github.com/jhoicas/ventas-xp/internal/infrastructure/storage"
)

func seedStore(st *state.Store) {
	st.Dispatch(state.SetSession{
		Session: &entity.Session{AccessToken: "secreto", RefreshToken: "r"},
		User:    &entity.User{ID: "u1", Email: "ana@example.com", Role: "admin"},
	})
	st.Dispatch(state.SetBrands{Items: []entity.Brand{{ID: "b1", Name: "Nike"}}})
	st.Dispatch(state.SetCategories{Items: []entity.Category{{ID: "c1", Name: "Calzado"}}})
	st.Dispatch(state.SetProducts{Items: []entity.Product{{
		ID: "p1", Name: "Air", BrandID: "b1", Category: "Calzado",
		Price: decimal.RequireFromString("199.90"), StockQuantity: 10, MinStock: 3,
	}}})
	q := "air"
	st.Dispatch(state.SetCatalogFilters{Patch: state.CatalogFilterPatch{Query: &q}})
}

func TestBridge_GuardaSinSesionNiUsuario(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	st := state.NewStore(nil)
	bridge := state.NewBridge(st, kv, nil)
	detach := bridge.Attach(ctx)
	defer detach()

	seedStore(st)

	raw, err := kv.Get(ctx, state.PersistKey)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.NotContains(t, doc, "session")
	assert.NotContains(t, doc, "user")
	assert.NotContains(t, string(raw), "secreto")
	assert.Contains(t, doc, "products")
	assert.Contains(t, doc, "catalog")
}

func TestBridge_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()

	first := state.NewStore(nil)
	b1 := state.NewBridge(first, kv, nil)
	seedStore(first)
	require.NoError(t, b1.Flush(ctx))

	second := state.NewStore(nil)
	state.NewBridge(second, kv, nil).Hydrate(ctx)

	want, err := json.Marshal(state.Snapshot(first.State()))
	require.NoError(t, err)
	got, err := json.Marshal(state.Snapshot(second.State()))
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))
	assert.Nil(t, second.State().Session, "la sesión nunca se restaura desde el almacenamiento local")
}

func TestBridge_DatosCorruptosHidratanVacio(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	require.NoError(t, kv.Set(ctx, state.PersistKey, []byte("{no es json")))

	st := state.NewStore(nil)
	state.NewBridge(st, kv, nil).Hydrate(ctx)

	s := st.State()
	assert.Empty(t, s.Products)
	assert.NotNil(t, s.Products)
	assert.Equal(t, entity.DefaultCatalogFilter(), s.Catalog)
}

func TestBridge_FlushNoReescribeSiNoCambia(t *testing.T) {
	ctx := context.Background()
	kv := &countingKV{MemoryStore: storage.NewMemoryStore()}
	st := state.NewStore(nil)
	bridge := state.NewBridge(st, kv, nil)

	require.NoError(t, bridge.Flush(ctx))
	require.NoError(t, bridge.Flush(ctx))
	st.Dispatch(state.SetSession{Session: &entity.Session{AccessToken: "t"}})
	require.NoError(t, bridge.Flush(ctx))

	assert.Equal(t, 1, kv.sets, "cambios de sesión no producen escrituras")
}

type countingKV struct {
	*storage.MemoryStore
	sets int
}

func (c *countingKV) Set(ctx context.Context, key string, value []byte) error {
	c.sets++
	return c.MemoryStore.Set(ctx, key, value)
}
