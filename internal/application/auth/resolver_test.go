package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ventas-xp/internal/application/auth"
	"github.com/jhoicas/ventas-xp/internal/domain"
	"github.com/jhoicas/ventas-xp/internal/domain/entity"
	"github.com/jhoicas/ventas-xp/internal/domain/repository"
	"github.com/jhoicas/ventas-xp/internal/domain/role"
)

// stubStrategy devuelve un rol fijo o un error, y cuenta las llamadas.
type stubStrategy struct {
	name  string
	role  string
	err   error
	calls int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) LookupRole(context.Context, entity.Identity) (string, error) {
	s.calls++
	return s.role, s.err
}

// recordingProvisioner guarda los perfiles creados.
type recordingProvisioner struct {
	created []entity.Profile
	err     error
}

func (p *recordingProvisioner) CreateProfile(_ context.Context, prof entity.Profile) (*entity.Profile, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.created = append(p.created, prof)
	return &prof, nil
}

func strategies(s ...*stubStrategy) []repository.ProfileLookupStrategy {
	out := make([]repository.ProfileLookupStrategy, len(s))
	for i := range s {
		out[i] = s[i]
	}
	return out
}

func TestResolve_RolEmbebidoNoPlaceholder(t *testing.T) {
	lookup := &stubStrategy{name: "profiles.id", role: "cliente"}
	r := auth.NewRoleResolver(strategies(lookup), nil, nil)

	u := r.Resolve(context.Background(), entity.Identity{ID: "u1", Role: "authenticated", Metadata: map[string]any{"role": " Admin "}})

	assert.Equal(t, "admin", u.Role)
	assert.Equal(t, role.Resolved, u.RoleStatus)
	assert.Zero(t, lookup.calls, "un rol concluyente no consulta perfiles")
}

func TestResolve_PrimeraEstrategiaConRolGana(t *testing.T) {
	failing := &stubStrategy{name: "profiles.id", err: errors.New("relation does not exist")}
	empty := &stubStrategy{name: "profiles.user_id"}
	hit := &stubStrategy{name: "profile.id", role: "Manager"}
	after := &stubStrategy{name: "profiles.email", role: "cliente"}
	prov := &recordingProvisioner{}
	r := auth.NewRoleResolver(strategies(failing, empty, hit, after), prov, nil)

	u := r.Resolve(context.Background(), entity.Identity{ID: "u1", Email: "a@b.c", Role: "authenticated"})

	assert.Equal(t, "manager", u.Role)
	assert.Equal(t, role.TierAdmin, u.Resolution().Tier())
	assert.Equal(t, 1, failing.calls)
	assert.Zero(t, after.calls, "se detiene en el primer resultado")
	assert.Empty(t, prov.created)
}

func TestResolve_SinPerfilCreaUnoConRolCliente(t *testing.T) {
	lookups := []*stubStrategy{
		{name: "profiles.id"}, {name: "profiles.user_id"}, {name: "profile.id"},
		{name: "profile.user_id"}, {name: "profiles.email", err: errors.New("network")},
	}
	prov := &recordingProvisioner{}
	r := auth.NewRoleResolver(strategies(lookups...), prov, nil)

	u := r.Resolve(context.Background(), entity.Identity{
		ID: "u1", Email: "ana.perez@example.com",
		Metadata: map[string]any{"name": "Ana", "avatar_url": "https://img/a.png"},
	})

	require.Len(t, prov.created, 1, "exactamente un perfil nuevo")
	created := prov.created[0]
	assert.Equal(t, "u1", created.ID)
	assert.Equal(t, "u1", created.UserID)
	assert.Equal(t, "cliente", created.Role)
	assert.Equal(t, "Ana", created.FullName)
	assert.Equal(t, "https://img/a.png", created.AvatarURL)

	assert.Equal(t, "cliente", u.Role)
	assert.Equal(t, role.Resolved, u.RoleStatus)
	for _, p := range lookups {
		assert.Equal(t, 1, p.calls, p.name)
	}
}

func TestResolve_FalloNoEsDenegacion(t *testing.T) {
	prov := &recordingProvisioner{err: errors.New("insert rechazado")}
	r := auth.NewRoleResolver(strategies(&stubStrategy{name: "profiles.id", err: errors.New("x")}), prov, nil)

	u := r.Resolve(context.Background(), entity.Identity{ID: "u1", Email: "a@b.c", Role: "empleado"})

	assert.Equal(t, role.Failed, u.RoleStatus)
	assert.Equal(t, "empleado", u.Role, "conserva el rol base")
	staff := []role.Tier{role.TierAdmin, role.TierEmployee}
	assert.Equal(t, role.AccessGranted, u.Resolution().Access(staff...))

	anon := r.Resolve(context.Background(), entity.Identity{ID: "u2"})
	assert.Equal(t, role.Failed, anon.RoleStatus)
	assert.Equal(t, role.AccessInconclusive, anon.Resolution().Access(role.TierAdmin))
}

func TestNewProfile_NombrePorDefecto(t *testing.T) {
	p := auth.NewProfile(entity.Identity{ID: "u1", Email: "leo@example.com"})
	assert.Equal(t, "leo", p.FullName)

	p = auth.NewProfile(entity.Identity{ID: "u1", Email: "leo@example.com", Metadata: map[string]any{"full_name": "Leo M", "name": "Leo"}})
	assert.Equal(t, "Leo M", p.FullName)
}

// racingStrategy no encuentra perfil hasta que otro cliente lo crea.
type racingStrategy struct {
	calls int
}

func (s *racingStrategy) Name() string { return "profiles.id" }

func (s *racingStrategy) LookupRole(context.Context, entity.Identity) (string, error) {
	s.calls++
	if s.calls == 1 {
		return "", nil
	}
	return "empleado", nil
}

func TestResolve_AltaConcurrenteReleeElPerfil(t *testing.T) {
	lookup := &racingStrategy{}
	prov := &recordingProvisioner{err: domain.ErrConflict}
	r := auth.NewRoleResolver([]repository.ProfileLookupStrategy{lookup}, prov, nil)

	u := r.Resolve(context.Background(), entity.Identity{ID: "u1", Email: "ana@example.com"})

	assert.Equal(t, "empleado", u.Role)
	assert.Equal(t, role.Resolved, u.RoleStatus)
	assert.Equal(t, 2, lookup.calls)
}

func TestResolve_EmpleadoEmbebidoSinPerfil(t *testing.T) {
	embedded := entity.Identity{ID: "u1", Email: "ana@example.com", Metadata: map[string]any{"role": "empleado"}}

	t.Run("con alta de perfil queda como cliente", func(t *testing.T) {
		prov := &recordingProvisioner{}
		r := auth.NewRoleResolver(strategies(&stubStrategy{name: "profiles.id"}), prov, nil)

		u := r.Resolve(context.Background(), embedded)

		require.Len(t, prov.created, 1)
		assert.Equal(t, role.Default, u.Role)
		assert.Equal(t, role.Resolved, u.RoleStatus)
		assert.ErrorIs(t, u.Resolution().Require(role.TierAdmin, role.TierEmployee), domain.ErrForbidden)
	})

	t.Run("sin alta conserva empleado como rol base", func(t *testing.T) {
		r := auth.NewRoleResolver(strategies(&stubStrategy{name: "profiles.id", err: errors.New("timeout")}), nil, nil)

		u := r.Resolve(context.Background(), embedded)

		assert.Equal(t, "empleado", u.Role)
		assert.Equal(t, role.Failed, u.RoleStatus)
		assert.NoError(t, u.Resolution().Require(role.TierAdmin, role.TierEmployee))
	})
}
