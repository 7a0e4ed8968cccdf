package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jhoicas/ventas-xp/internal/application/state"
	"github.com/jhoicas/ventas-xp/internal/domain"
	"github.com/jhoicas/ventas-xp/internal/domain/entity"
	"github.com/jhoicas/ventas-xp/internal/domain/repository"
	"github.com/jhoicas/ventas-xp/pkg/logger"
)

// CatalogRefresher recarga las colecciones del catálogo para la sesión vigente.
type CatalogRefresher interface {
	Refresh(ctx context.Context) (applied bool, err error)
}

// SessionManager ciclo de vida de la sesión: traduce eventos del proveedor de auth
// en SET_SESSION (con rol resuelto) seguido de un refresco del catálogo.
type SessionManager struct {
	provider  repository.AuthProvider
	resolver  *RoleResolver
	store     *state.Store
	bridge    *state.Bridge
	refresher CatalogRefresher
	log       *logger.Logger

	mu          sync.Mutex
	ctx         context.Context
	unsubscribe func()
	detach      func()
}

// NewSessionManager construye el gestor. bridge y refresher pueden ser nil.
func NewSessionManager(
	provider repository.AuthProvider,
	resolver *RoleResolver,
	store *state.Store,
	bridge *state.Bridge,
	refresher CatalogRefresher,
	log *logger.Logger,
) *SessionManager {
	if log == nil {
		log = logger.Nop()
	}
	return &SessionManager{
		provider:  provider,
		resolver:  resolver,
		store:     store,
		bridge:    bridge,
		refresher: refresher,
		log:       log.Component("session"),
	}
}

// Start hidrata el estado local, se suscribe a los eventos del proveedor y aplica la sesión existente.
// ctx gobierna también el manejo de eventos posteriores.
func (m *SessionManager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.unsubscribe != nil {
		m.mu.Unlock()
		return nil
	}
	m.ctx = ctx
	if m.bridge != nil {
		m.bridge.Hydrate(ctx)
		m.detach = m.bridge.Attach(ctx)
	}
	m.unsubscribe = m.provider.OnAuthStateChange(m.onAuthEvent)
	m.mu.Unlock()

	sess, err := m.provider.GetSession(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("no se pudo leer la sesión guardada")
		sess = nil
	}
	m.Apply(ctx, sess)
	return nil
}

// Close cancela la suscripción al proveedor y al almacenamiento local.
func (m *SessionManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	if m.detach != nil {
		m.detach()
		m.detach = nil
	}
}

func (m *SessionManager) eventContext() context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ctx == nil {
		return context.Background()
	}
	return m.ctx
}

func (m *SessionManager) onAuthEvent(event entity.AuthEvent, sess *entity.Session) {
	m.log.Debug().Str("event", string(event)).Bool("session", sess != nil).Msg("evento de autenticación")
	m.Apply(m.eventContext(), sess)
}

// Apply reemplaza la sesión del store. El usuario entra con el rol pendiente y se completa
// al terminar la resolución, siempre que ningún otro cambio de sesión la haya reemplazado.
func (m *SessionManager) Apply(ctx context.Context, sess *entity.Session) {
	if sess == nil {
		m.store.Dispatch(state.SetSession{})
		m.refresh(ctx)
		return
	}

	pending := entity.User{
		ID:       sess.Identity.ID,
		Email:    sess.Identity.Email,
		Metadata: sess.Identity.Metadata,
	}
	epoch := m.store.DispatchEpoch(state.SetSession{Session: sess, User: &pending})

	resolved := m.resolver.Resolve(ctx, sess.Identity)
	if !m.store.ApplyAt(epoch, state.SetUser{User: &resolved}) {
		m.log.Debug().Str("user_id", resolved.ID).Msg("resolución de rol descartada: la sesión cambió")
		return
	}
	m.log.Info().
		Str("user_id", resolved.ID).
		Str("role", resolved.Role).
		Str("status", resolved.RoleStatus.String()).
		Msg("sesión aplicada")
	m.refresh(ctx)
}

func (m *SessionManager) refresh(ctx context.Context) {
	if m.refresher == nil {
		return
	}
	if _, err := m.refresher.Refresh(ctx); err != nil {
		m.log.Warn().Err(err).Msg("no se pudo refrescar el catálogo")
	}
}

// AccessToken token de la sesión vigente; implementa apiclient.TokenSource.
func (m *SessionManager) AccessToken(context.Context) (string, error) {
	if sess := m.store.State().Session; sess != nil {
		return sess.AccessToken, nil
	}
	return "", nil
}

// CurrentUser usuario de la sesión vigente (nil sin sesión).
func (m *SessionManager) CurrentUser() *entity.User {
	return m.store.State().User
}

// SignIn inicia sesión con email y contraseña. La sesión se aplica vía el evento SIGNED_IN.
func (m *SessionManager) SignIn(ctx context.Context, email, password string) (*entity.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("email y contraseña son obligatorios: %w", domain.ErrInvalidInput)
	}
	return m.provider.SignInWithPassword(ctx, email, password)
}

// SignUp registra un usuario nuevo.
func (m *SessionManager) SignUp(ctx context.Context, in repository.SignUpRequest) (*entity.Session, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("email y contraseña son obligatorios: %w", domain.ErrInvalidInput)
	}
	if len(in.Password) < 6 {
		return nil, fmt.Errorf("la contraseña debe tener al menos 6 caracteres: %w", domain.ErrInvalidInput)
	}
	return m.provider.SignUp(ctx, in)
}

// SignOut cierra la sesión en el proveedor.
func (m *SessionManager) SignOut(ctx context.Context) error {
	return m.provider.SignOut(ctx)
}

// ResetPassword solicita el correo de recuperación.
func (m *SessionManager) ResetPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email obligatorio: %w", domain.ErrInvalidInput)
	}
	return m.provider.ResetPasswordForEmail(ctx, email)
}

// SignInWithOAuth devuelve la URL de autorización del proveedor OAuth.
func (m *SessionManager) SignInWithOAuth(ctx context.Context, provider, redirectTo string) (string, error) {
	return m.provider.SignInWithOAuth(ctx, provider, redirectTo)
}

// CompleteOAuth canjea el código recibido en el callback.
func (m *SessionManager) CompleteOAuth(ctx context.Context, code string) (*entity.Session, error) {
	if code == "" {
		return nil, fmt.Errorf("código OAuth vacío: %w", domain.ErrInvalidInput)
	}
	return m.provider.ExchangeCode(ctx, code)
}

// UpdateUser actualiza email, contraseña o metadatos del usuario autenticado.
func (m *SessionManager) UpdateUser(ctx context.Context, in repository.UserUpdate) (*entity.Identity, error) {
	if m.store.State().Session == nil {
		return nil, domain.ErrUnauthorized
	}
	return m.provider.UpdateUser(ctx, in)
}
