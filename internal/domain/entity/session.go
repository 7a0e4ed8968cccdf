package entity

import "time"

// Session manejador opaco de la sesión del proveedor de auth. Nunca se persiste junto al catálogo.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	Identity     Identity  `json:"-"`
}

// Expired indica si la sesión venció (sin fecha de expiración nunca vence).
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// AuthEvent tipo de cambio de estado de autenticación.
type AuthEvent string

const (
	AuthSignedIn    AuthEvent = "SIGNED_IN"
	AuthSignedOut   AuthEvent = "SIGNED_OUT"
	AuthUserUpdated AuthEvent = "USER_UPDATED"
)
