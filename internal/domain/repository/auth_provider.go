package repository

import (
	"context"

	"github.com/jhoicas/ventas-xp/internal/domain/entity"
)

// AuthListener recibe los cambios de estado de autenticación (session nil al cerrar sesión).
type AuthListener func(event entity.AuthEvent, session *entity.Session)

// SignUpRequest datos de registro.
type SignUpRequest struct {
	Email    string
	Password string
	Name     string
	Role     string
}

// UserUpdate cambios sobre el usuario autenticado; campos vacíos no se modifican.
type UserUpdate struct {
	Email    string
	Password string
	Data     map[string]any
}

// AuthProvider superficie del proveedor de autenticación externo.
// Cualquier implementación (Supabase, simulada local) es intercambiable.
type AuthProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*entity.Session, error)
	SignUp(ctx context.Context, in SignUpRequest) (*entity.Session, error)
	SignOut(ctx context.Context) error
	GetSession(ctx context.Context) (*entity.Session, error)
	OnAuthStateChange(l AuthListener) (unsubscribe func())
	ResetPasswordForEmail(ctx context.Context, email string) error
	// SignInWithOAuth devuelve la URL de autorización; el código se canjea con ExchangeCode.
	SignInWithOAuth(ctx context.Context, provider, redirectTo string) (authURL string, err error)
	ExchangeCode(ctx context.Context, code string) (*entity.Session, error)
	UpdateUser(ctx context.Context, in UserUpdate) (*entity.Identity, error)
}
