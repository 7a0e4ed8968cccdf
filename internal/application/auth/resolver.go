package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/jhoicas/ventas-xp/internal/domain"
	"github.com/jhoicas/ventas-xp/internal/domain/entity"
	"github.com/jhoicas/ventas-xp/internal/domain/repository"
	"github.com/jhoicas/ventas-xp/internal/domain/role"
	"github.com/jhoicas/ventas-xp/pkg/logger"
)

// RoleResolver convierte una identidad autenticada en un usuario con rol.
//
// Las estrategias se consultan en orden y de forma secuencial; la primera que devuelve
// un rol gana. Los errores de cada consulta se registran y se ignoran.
type RoleResolver struct {
	strategies  []repository.ProfileLookupStrategy
	provisioner repository.ProfileProvisioner
	log         *logger.Logger
}

// NewRoleResolver construye el resolvedor. provisioner puede ser nil (no se crean perfiles).
func NewRoleResolver(strategies []repository.ProfileLookupStrategy, provisioner repository.ProfileProvisioner, log *logger.Logger) *RoleResolver {
	if log == nil {
		log = logger.Nop()
	}
	return &RoleResolver{
		strategies:  strategies,
		provisioner: provisioner,
		log:         log.Component("role_resolver"),
	}
}

// BaseRole rol embebido en la identidad: user_metadata.role y luego el rol del proveedor.
func BaseRole(id entity.Identity) string {
	if r := role.Normalize(id.MetadataString("role")); r != "" {
		return r
	}
	return role.Normalize(id.Role)
}

// Resolve devuelve el usuario con su rol y el estado de la resolución (Resolved o Failed).
func (r *RoleResolver) Resolve(ctx context.Context, id entity.Identity) entity.User {
	base := BaseRole(id)
	user := entity.User{
		ID:       id.ID,
		Email:    id.Email,
		Metadata: id.Metadata,
	}
	if !role.IsPlaceholder(base) {
		return withResolution(user, role.Of(base))
	}

	if found := r.lookup(ctx, id); found != "" {
		return withResolution(user, role.Of(found))
	}

	if created := r.provision(ctx, id); created != "" {
		return withResolution(user, role.Of(created))
	}

	r.log.Warn().Str("user_id", id.ID).Str("base_role", base).Msg("no se pudo resolver el rol")
	return withResolution(user, role.FailedWith(base))
}

func (r *RoleResolver) lookup(ctx context.Context, id entity.Identity) string {
	for _, s := range r.strategies {
		if ctx.Err() != nil {
			return ""
		}
		found, err := s.LookupRole(ctx, id)
		if err != nil {
			r.log.Debug().Err(err).Str("strategy", s.Name()).Str("user_id", id.ID).Msg("consulta de perfil fallida")
			continue
		}
		if n := role.Normalize(found); n != "" {
			r.log.Debug().Str("strategy", s.Name()).Str("role", n).Msg("rol encontrado")
			return n
		}
	}
	return ""
}

func (r *RoleResolver) provision(ctx context.Context, id entity.Identity) string {
	if r.provisioner == nil || id.ID == "" || id.Email == "" {
		return ""
	}
	created, err := r.provisioner.CreateProfile(ctx, NewProfile(id))
	if errors.Is(err, domain.ErrConflict) {
		// Otra sesión creó el perfil entre la consulta y el alta.
		r.log.Debug().Str("user_id", id.ID).Msg("perfil creado en paralelo; se vuelve a consultar")
		return r.lookup(ctx, id)
	}
	if err != nil {
		r.log.Warn().Err(err).Str("user_id", id.ID).Msg("no se pudo crear el perfil")
		return ""
	}
	if created == nil || strings.TrimSpace(created.Role) == "" {
		r.log.Info().Str("user_id", id.ID).Msg("perfil creado")
		return role.Default
	}
	r.log.Info().Str("user_id", id.ID).Str("role", created.Role).Msg("perfil creado")
	return created.Role
}

// NewProfile perfil por defecto para una identidad sin fila en la tabla de perfiles.
func NewProfile(id entity.Identity) entity.Profile {
	fullName := id.MetadataString("full_name")
	if fullName == "" {
		fullName = id.MetadataString("name")
	}
	if fullName == "" {
		fullName = entity.EmailLocalPart(id.Email)
	}
	return entity.Profile{
		ID:        id.ID,
		UserID:    id.ID,
		Email:     id.Email,
		Role:      role.Default,
		FullName:  fullName,
		AvatarURL: id.MetadataString("avatar_url"),
	}
}

func withResolution(u entity.User, res role.Resolution) entity.User {
	u.Role = res.Role
	u.RoleStatus = res.Status
	return u
}
