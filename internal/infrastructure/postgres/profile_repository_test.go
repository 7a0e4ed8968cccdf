package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ventas-xp/internal/domain"
	"github.com/jhoicas/ventas-xp/internal/domain/entity"
	"github.com/jhoicas/ventas-xp/internal/infrastructure/postgres"
)

type call struct {
	sql  string
	args []any
}

// fakeQuerier responde cada QueryRow con la siguiente fila programada.
type fakeQuerier struct {
	calls []call
	rows  []fakeRow
}

func (f *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.calls = append(f.calls, call{sql: sql, args: args})
	if len(f.rows) == 0 {
		return fakeRow{err: pgx.ErrNoRows}
	}
	r := f.rows[0]
	f.rows = f.rows[1:]
	return r
}

type fakeRow struct {
	value *string
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(**string)) = r.value
	return nil
}

func str(s string) *string { return &s }

func TestProfileStrategies_Orden(t *testing.T) {
	var names []string
	for _, s := range postgres.ProfileStrategies(&fakeQuerier{}) {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"profiles.id", "profiles.user_id", "profile.id", "profile.user_id", "profiles.email"}, names)
}

func TestProfileLookup_ConsultaPorColumna(t *testing.T) {
	q := &fakeQuerier{rows: []fakeRow{{value: str("admin")}}}
	strategies := postgres.ProfileStrategies(q)
	id := entity.Identity{ID: "u1", Email: "a@b.c"}

	got, err := strategies[1].LookupRole(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "admin", got)
	require.Len(t, q.calls, 1)
	assert.Equal(t, `SELECT role FROM "profiles" WHERE "user_id" = $1 LIMIT 1`, q.calls[0].sql)
	assert.Equal(t, []any{"u1"}, q.calls[0].args)

	_, err = strategies[4].LookupRole(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []any{"a@b.c"}, q.calls[1].args)
}

func TestProfileLookup_SinFilaNiValor(t *testing.T) {
	q := &fakeQuerier{rows: []fakeRow{{err: pgx.ErrNoRows}, {value: nil}}}
	s := postgres.ProfileStrategies(q)[0]

	got, err := s.LookupRole(context.Background(), entity.Identity{ID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.LookupRole(context.Background(), entity.Identity{ID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, got, "role NULL equivale a sin rol")

	// Sin email no se consulta.
	got, err = postgres.ProfileStrategies(q)[4].LookupRole(context.Background(), entity.Identity{ID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Len(t, q.calls, 2)
}

func TestProfileLookup_TablaInexistente(t *testing.T) {
	q := &fakeQuerier{rows: []fakeRow{{err: &pgconn.PgError{Code: "42P01"}}}}
	_, err := postgres.ProfileStrategies(q)[2].LookupRole(context.Background(), entity.Identity{ID: "u1"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateProfile(t *testing.T) {
	q := &fakeQuerier{rows: []fakeRow{{value: str("cliente")}}}
	repo := postgres.NewProfileRepository(q)

	p, err := repo.CreateProfile(context.Background(), entity.Profile{ID: "u1", UserID: "u1", Email: "a@b.c", Role: "cliente", FullName: "a"})
	require.NoError(t, err)
	assert.Equal(t, "cliente", p.Role)
	assert.Equal(t, "u1", q.calls[0].args[0])

	q.rows = []fakeRow{{err: &pgconn.PgError{Code: "23505"}}}
	_, err = repo.CreateProfile(context.Background(), entity.Profile{ID: "u1"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	q.rows = []fakeRow{{err: errors.New("conexión cerrada")}}
	_, err = repo.CreateProfile(context.Background(), entity.Profile{ID: "u1"})
	assert.Error(t, err)
}
