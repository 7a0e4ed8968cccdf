package repository

import (
	"context"

	"github.com/jhoicas/ventas-xp/internal/domain/entity"
)

// ProfileLookupStrategy una consulta de respaldo para obtener el rol de una identidad.
// Devuelve "" sin error cuando no hay fila; cualquier error se trata como "probar la siguiente".
type ProfileLookupStrategy interface {
	Name() string
	LookupRole(ctx context.Context, id entity.Identity) (string, error)
}

// ProfileProvisioner crea el perfil de una identidad que no tiene ninguno.
type ProfileProvisioner interface {
	CreateProfile(ctx context.Context, p entity.Profile) (*entity.Profile, error)
}
