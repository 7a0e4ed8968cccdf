package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/ventas-xp/internal/domain"
	"github.com/jhoicas/ventas-xp/internal/domain/entity"
	"github.com/jhoicas/ventas-xp/internal/domain/repository"
)

// Querier lo mínimo que necesitan los repositorios; lo cumplen *pgxpool.Pool, *pgx.Conn y pgx.Tx.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// profileKey columna de la identidad usada como filtro.
type profileKey int

const (
	byID profileKey = iota
	byEmail
)

// ProfileLookup consulta el rol en una tabla y columna concretas.
type ProfileLookup struct {
	q      Querier
	table  string
	column string
	key    profileKey
}

var _ repository.ProfileLookupStrategy = (*ProfileLookup)(nil)

// ProfileStrategies devuelve las consultas de respaldo en el orden en que deben probarse:
// profiles.id, profiles.user_id, profile.id, profile.user_id y por último profiles.email.
func ProfileStrategies(q Querier) []repository.ProfileLookupStrategy {
	return []repository.ProfileLookupStrategy{
		&ProfileLookup{q: q, table: "profiles", column: "id", key: byID},
		&ProfileLookup{q: q, table: "profiles", column: "user_id", key: byID},
		&ProfileLookup{q: q, table: "profile", column: "id", key: byID},
		&ProfileLookup{q: q, table: "profile", column: "user_id", key: byID},
		&ProfileLookup{q: q, table: "profiles", column: "email", key: byEmail},
	}
}

// Name identifica la estrategia en los logs (tabla.columna).
func (s *ProfileLookup) Name() string { return s.table + "." + s.column }

// LookupRole devuelve el rol de la fila o "" si no existe.
func (s *ProfileLookup) LookupRole(ctx context.Context, id entity.Identity) (string, error) {
	value := id.ID
	if s.key == byEmail {
		value = id.Email
	}
	if value == "" {
		return "", nil
	}
	query := fmt.Sprintf(`SELECT role FROM %s WHERE %s = $1 LIMIT 1`,
		pgx.Identifier{s.table}.Sanitize(), pgx.Identifier{s.column}.Sanitize())

	var r *string
	err := s.q.QueryRow(ctx, query, value).Scan(&r)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		if isUndefinedTable(err) {
			return "", fmt.Errorf("tabla %s inexistente: %w", s.table, domain.ErrNotFound)
		}
		return "", fmt.Errorf("lookup %s: %w", s.Name(), err)
	}
	if r == nil {
		return "", nil
	}
	return *r, nil
}

// ProfileRepo crea perfiles en la tabla profiles.
type ProfileRepo struct {
	q Querier
}

var _ repository.ProfileProvisioner = (*ProfileRepo)(nil)

// NewProfileRepository construye el adaptador de perfiles.
func NewProfileRepository(q Querier) *ProfileRepo {
	return &ProfileRepo{q: q}
}

// CreateProfile inserta el perfil y devuelve la fila con el rol que quedó guardado
// (un default o trigger de la tabla puede reemplazarlo).
func (r *ProfileRepo) CreateProfile(ctx context.Context, p entity.Profile) (*entity.Profile, error) {
	query := `
		INSERT INTO profiles (id, user_id, email, role, full_name, avatar_url)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		RETURNING role`
	var stored *string
	err := r.q.QueryRow(ctx, query, p.ID, p.UserID, p.Email, p.Role, p.FullName, p.AvatarURL).Scan(&stored)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("perfil %s: %w", p.ID, domain.ErrConflict)
		}
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	out := p
	out.Role = ""
	if stored != nil {
		out.Role = *stored
	}
	return &out, nil
}
