// Package localauth proveedor de autenticación local, usado cuando no hay credenciales de Supabase.
// Guarda usuarios y sesión en el almacenamiento local bajo app.users y app.session.
package localauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/ventas-xp/internal/domain"
	"github.com/jhoicas/ventas-xp/internal/domain/entity"
	"github.com/jhoicas/ventas-xp/internal/domain/repository"
	"github.com/jhoicas/ventas-xp/internal/domain/role"
	"github.com/jhoicas/ventas-xp/internal/infrastructure/authevents"
	"github.com/jhoicas/ventas-xp/pkg/jwt"
	"github.com/jhoicas/ventas-xp/pkg/logger"
)

// Claves en el almacenamiento local.
const (
	UsersKey   = "app.users"
	SessionKey = "app.session"
)

var _ repository.AuthProvider = (*Provider)(nil)

// JWTConfig configuración de los tokens emitidos localmente.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

type storedUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	PasswordHash string         `json:"password_hash"`
	Role         string         `json:"role"`
	Name         string         `json:"name"`
	Metadata     map[string]any `json:"user_metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

func (u storedUser) identity() entity.Identity {
	md := map[string]any{}
	for k, v := range u.Metadata {
		md[k] = v
	}
	md["name"] = u.Name
	md["role"] = u.Role
	return entity.Identity{ID: u.ID, Email: u.Email, Role: u.Role, Metadata: md}
}

// Provider implementación simulada de repository.AuthProvider.
type Provider struct {
	kv  repository.KeyValueStore
	jwt JWTConfig
	log *logger.Logger
	bus authevents.Bus

	mu sync.Mutex
}

// New construye el proveedor local.
func New(kv repository.KeyValueStore, cfg JWTConfig, log *logger.Logger) *Provider {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.ExpMinutes <= 0 {
		cfg.ExpMinutes = 60 * 24
	}
	return &Provider{kv: kv, jwt: cfg, log: log.Component("localauth")}
}

func (p *Provider) readUsers(ctx context.Context) ([]storedUser, error) {
	raw, err := p.kv.Get(ctx, UsersKey)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("localauth: leer usuarios: %w", err)
	}
	var users []storedUser
	if err := json.Unmarshal(raw, &users); err != nil {
		p.log.Warn().Err(err).Msg("usuarios locales corruptos; se ignoran")
		return nil, nil
	}
	return users, nil
}

func (p *Provider) writeUsers(ctx context.Context, users []storedUser) error {
	raw, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("localauth: serializar usuarios: %w", err)
	}
	return p.kv.Set(ctx, UsersKey, raw)
}

func findByEmail(users []storedUser, email string) int {
	for i, u := range users {
		if strings.EqualFold(u.Email, email) {
			return i
		}
	}
	return -1
}

func findByID(users []storedUser, id string) int {
	for i, u := range users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

// issue genera el token, guarda la sesión y la devuelve.
func (p *Provider) issue(ctx context.Context, u storedUser) (*entity.Session, error) {
	id := u.identity()
	tok, err := jwt.Generate(p.jwt.Secret, u.ID, u.Email, u.Role, p.jwt.Issuer, id.Metadata, p.jwt.ExpMinutes)
	if err != nil {
		return nil, fmt.Errorf("localauth: generar token: %w", err)
	}
	sess := &entity.Session{
		AccessToken: tok,
		ExpiresAt:   time.Now().Add(time.Duration(p.jwt.ExpMinutes) * time.Minute).UTC(),
		Identity:    id,
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("localauth: serializar sesión: %w", err)
	}
	if err := p.kv.Set(ctx, SessionKey, raw); err != nil {
		return nil, fmt.Errorf("localauth: guardar sesión: %w", err)
	}
	return sess, nil
}

// SignUp crea el usuario con contraseña hasheada (bcrypt) e inicia sesión.
func (p *Provider) SignUp(ctx context.Context, in repository.SignUpRequest) (*entity.Session, error) {
	p.mu.Lock()
	users, err := p.readUsers(ctx)
	if err != nil {
		p.mu.Unlock()
		return nil, err
	}
	if findByEmail(users, in.Email) >= 0 {
		p.mu.Unlock()
		return nil, domain.ErrEmailAlreadyExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		p.mu.Unlock()
		return nil, fmt.Errorf("localauth: hash: %w", err)
	}
	r := role.Normalize(in.Role)
	if r == "" {
		r = role.Default
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = entity.EmailLocalPart(in.Email)
	}
	u := storedUser{
		ID:           "usr_" + uuid.NewString(),
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         r,
		Name:         name,
		CreatedAt:    time.Now().UTC(),
	}
	users = append(users, u)
	if err := p.writeUsers(ctx, users); err != nil {
		p.mu.Unlock()
		return nil, err
	}
	sess, err := p.issue(ctx, u)
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}

	p.log.Info().Str("user_id", u.ID).Str("role", u.Role).Msg("usuario local registrado")
	p.bus.Emit(entity.AuthSignedIn, sess)
	return sess, nil
}

// SignInWithPassword verifica la contraseña con bcrypt.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (*entity.Session, error) {
	p.mu.Lock()
	users, err := p.readUsers(ctx)
	if err != nil {
		p.mu.Unlock()
		return nil, err
	}
	i := findByEmail(users, email)
	if i < 0 || bcrypt.CompareHashAndPassword([]byte(users[i].PasswordHash), []byte(password)) != nil {
		p.mu.Unlock()
		return nil, domain.ErrInvalidCredentials
	}
	sess, err := p.issue(ctx, users[i])
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}
	p.bus.Emit(entity.AuthSignedIn, sess)
	return sess, nil
}

// SignOut borra la sesión guardada.
func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	err := p.kv.Delete(ctx, SessionKey)
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("localauth: cerrar sesión: %w", err)
	}
	p.bus.Emit(entity.AuthSignedOut, nil)
	return nil
}

// GetSession devuelve la sesión guardada si su token sigue siendo válido; nil si no hay.
func (p *Provider) GetSession(ctx context.Context) (*entity.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	raw, err := p.kv.Get(ctx, SessionKey)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("localauth: leer sesión: %w", err)
	}
	var sess entity.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		p.log.Warn().Err(err).Msg("sesión local corrupta; se descarta")
		return nil, p.kv.Delete(ctx, SessionKey)
	}
	claims, err := jwt.Parse(p.jwt.Secret, sess.AccessToken)
	if err != nil {
		p.log.Info().Err(err).Msg("sesión local vencida o inválida")
		return nil, p.kv.Delete(ctx, SessionKey)
	}
	sess.Identity = entity.Identity{
		ID:       claims.Subject,
		Email:    claims.Email,
		Role:     claims.Role,
		Metadata: claims.UserMetadata,
	}
	return &sess, nil
}

// OnAuthStateChange suscribe l a SIGNED_IN, SIGNED_OUT y USER_UPDATED.
func (p *Provider) OnAuthStateChange(l repository.AuthListener) func() {
	return p.bus.Subscribe(l)
}

// ResetPasswordForEmail sólo confirma que el email existe; no hay correo en modo local.
func (p *Provider) ResetPasswordForEmail(ctx context.Context, email string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	users, err := p.readUsers(ctx)
	if err != nil {
		return err
	}
	if findByEmail(users, email) < 0 {
		return fmt.Errorf("email no registrado: %w", domain.ErrUserNotFound)
	}
	return nil
}

// SignInWithOAuth no está disponible sin conexión.
func (p *Provider) SignInWithOAuth(_ context.Context, provider, _ string) (string, error) {
	return "", fmt.Errorf("OAuth no disponible en modo sin conexión (%s): %w", provider, domain.ErrUnsupported)
}

// ExchangeCode no está disponible sin conexión.
func (p *Provider) ExchangeCode(context.Context, string) (*entity.Session, error) {
	return nil, fmt.Errorf("OAuth no disponible en modo sin conexión: %w", domain.ErrUnsupported)
}

// UpdateUser modifica email, contraseña o metadatos del usuario con sesión y reemite el token.
func (p *Provider) UpdateUser(ctx context.Context, in repository.UserUpdate) (*entity.Identity, error) {
	current, err := p.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.ErrUnauthorized
	}

	p.mu.Lock()
	users, err := p.readUsers(ctx)
	if err != nil {
		p.mu.Unlock()
		return nil, err
	}
	i := findByID(users, current.Identity.ID)
	if i < 0 {
		p.mu.Unlock()
		return nil, domain.ErrUserNotFound
	}
	u := users[i]
	if in.Email != "" && !strings.EqualFold(in.Email, u.Email) {
		if findByEmail(users, in.Email) >= 0 {
			p.mu.Unlock()
			return nil, domain.ErrEmailAlreadyExists
		}
		u.Email = in.Email
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			p.mu.Unlock()
			return nil, fmt.Errorf("localauth: hash: %w", err)
		}
		u.PasswordHash = string(hash)
	}
	for k, v := range in.Data {
		switch k {
		case "name", "full_name":
			if s, ok := v.(string); ok && s != "" {
				u.Name = s
			}
		case "role":
			if s, ok := v.(string); ok {
				u.Role = role.Normalize(s)
			}
		default:
			if u.Metadata == nil {
				u.Metadata = map[string]any{}
			}
			u.Metadata[k] = v
		}
	}
	users[i] = u
	if err := p.writeUsers(ctx, users); err != nil {
		p.mu.Unlock()
		return nil, err
	}
	sess, err := p.issue(ctx, u)
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}

	p.bus.Emit(entity.AuthUserUpdated, sess)
	id := sess.Identity
	return &id, nil
}
