// Package supabase adapta GoTrue (auth) y PostgREST (perfiles) de Supabase a los puertos del dominio.
package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/ventas-xp/internal/domain"
	"github.com/jhoicas/ventas-xp/internal/domain/entity"
	"github.com/jhoicas/ventas-xp/internal/domain/repository"
	"github.com/jhoicas/ventas-xp/internal/infrastructure/apiclient"
	"github.com/jhoicas/ventas-xp/internal/infrastructure/authevents"
	"github.com/jhoicas/ventas-xp/pkg/config"
	pkgjwt "github.com/jhoicas/ventas-xp/pkg/jwt"
	"github.com/jhoicas/ventas-xp/pkg/logger"
)

// Claves del almacenamiento local.
const (
	SessionKey  = "app.auth.session"
	VerifierKey = "app.auth.pkce"
)

// refreshMargin antelación con la que se renueva un token por vencer.
const refreshMargin = time.Minute

var _ repository.AuthProvider = (*AuthClient)(nil)

// AuthClient proveedor de autenticación sobre la API REST de GoTrue (/auth/v1).
type AuthClient struct {
	baseURL string
	anonKey string
	http    *apiclient.Client
	kv      repository.KeyValueStore
	log     *logger.Logger
	bus     authevents.Bus

	mu sync.Mutex
}

// NewAuthClient construye el cliente. opts se pasan al apiclient subyacente (p. ej. WithHTTPClient en tests).
func NewAuthClient(cfg config.SupabaseConfig, kv repository.KeyValueStore, log *logger.Logger, opts ...apiclient.Option) *AuthClient {
	if log == nil {
		log = logger.Nop()
	}
	base := strings.TrimRight(cfg.URL, "/") + "/auth/v1"
	opts = append([]apiclient.Option{apiclient.WithHeader("apikey", cfg.AnonKey), apiclient.WithLogger(log)}, opts...)
	return &AuthClient{
		baseURL: base,
		anonKey: cfg.AnonKey,
		http:    apiclient.New(base, nil, opts...),
		kv:      kv,
		log:     log.Component("supabase_auth"),
	}
}

// userPayload usuario tal como lo devuelve GoTrue.
type userPayload struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Role         string         `json:"role"`
	UserMetadata map[string]any `json:"user_metadata"`
}

func (u userPayload) identity() entity.Identity {
	return entity.Identity{ID: u.ID, Email: u.Email, Role: u.Role, Metadata: u.UserMetadata}
}

// tokenResponse respuesta de /token y /signup con sesión.
type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	ExpiresAt    int64        `json:"expires_at"`
	User         *userPayload `json:"user"`
}

// storedSession forma persistida bajo SessionKey.
type storedSession struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresAt    time.Time   `json:"expires_at"`
	User         userPayload `json:"user"`
}

// toSession arma la sesión; la identidad sale de los claims del access token y se completa con el usuario.
func (s storedSession) toSession() *entity.Session {
	id := s.User.identity()
	if claims, err := pkgjwt.ParseUnverified(s.AccessToken); err == nil {
		if claims.Subject != "" {
			id.ID = claims.Subject
		}
		if claims.Email != "" {
			id.Email = claims.Email
		}
		if claims.Role != "" {
			id.Role = claims.Role
		}
		if len(claims.UserMetadata) > 0 {
			id.Metadata = claims.UserMetadata
		}
	}
	return &entity.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    s.ExpiresAt,
		Identity:     id,
	}
}

func (t tokenResponse) stored(now time.Time) storedSession {
	s := storedSession{AccessToken: t.AccessToken, RefreshToken: t.RefreshToken}
	switch {
	case t.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(t.ExpiresAt, 0).UTC()
	case t.ExpiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(t.ExpiresIn) * time.Second).UTC()
	}
	if t.User != nil {
		s.User = *t.User
	}
	return s
}

func (c *AuthClient) call(ctx context.Context, method, path, bearer string, body any, out any) error {
	if bearer == "" {
		bearer = c.anonKey
	}
	raw, err := c.http.Do(ctx, apiclient.Request{
		Method: method,
		Path:   path,
		Body:   body,
		Header: http.Header{"Authorization": {"Bearer " + bearer}},
	})
	if err != nil {
		return authError(err)
	}
	if out == nil || raw == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("supabase: respuesta inesperada de %s: %w", path, err)
	}
	return nil
}

// authError traduce los errores de GoTrue a los errores del dominio.
func authError(err error) error {
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("supabase: %w", err)
	}
	var body struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		Error            string `json:"error"`
		ErrorCode        string `json:"error_code"`
		ErrorDescription string `json:"error_description"`
	}
	if apiErr.Body != nil {
		_ = json.Unmarshal(apiErr.Body, &body)
	}
	msg := firstNonEmpty(body.Msg, body.ErrorDescription, body.Message, apiErr.Message)

	switch {
	case body.Error == "invalid_grant" || body.ErrorCode == "invalid_credentials":
		return fmt.Errorf("supabase: %s: %w", msg, domain.ErrInvalidCredentials)
	case body.ErrorCode == "user_already_exists" || body.ErrorCode == "email_exists":
		return fmt.Errorf("supabase: %s: %w", msg, domain.ErrEmailAlreadyExists)
	case apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden:
		return fmt.Errorf("supabase: %s: %w", msg, domain.ErrUnauthorized)
	case apiErr.Status == http.StatusUnprocessableEntity || apiErr.Status == http.StatusBadRequest:
		return fmt.Errorf("supabase: %s: %w", msg, domain.ErrInvalidInput)
	}
	return fmt.Errorf("supabase: %s: %w", msg, err)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (c *AuthClient) readSession(ctx context.Context) (*storedSession, error) {
	raw, err := c.kv.Get(ctx, SessionKey)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("supabase: leer sesión: %w", err)
	}
	var s storedSession
	if err := json.Unmarshal(raw, &s); err != nil || s.AccessToken == "" {
		c.log.Warn().Msg("sesión guardada corrupta; se descarta")
		return nil, c.kv.Delete(ctx, SessionKey)
	}
	return &s, nil
}

func (c *AuthClient) writeSession(ctx context.Context, s storedSession) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("supabase: serializar sesión: %w", err)
	}
	if err := c.kv.Set(ctx, SessionKey, raw); err != nil {
		return fmt.Errorf("supabase: guardar sesión: %w", err)
	}
	return nil
}

// establish guarda la sesión de una respuesta de token y emite el evento.
func (c *AuthClient) establish(ctx context.Context, t tokenResponse, event entity.AuthEvent) (*entity.Session, error) {
	stored := t.stored(time.Now())
	c.mu.Lock()
	err := c.writeSession(ctx, stored)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	sess := stored.toSession()
	c.log.Info().Str("user_id", sess.Identity.ID).Str("event", string(event)).Msg("sesión establecida")
	c.bus.Emit(event, sess)
	return sess, nil
}

// SignInWithPassword grant_type=password.
func (c *AuthClient) SignInWithPassword(ctx context.Context, email, password string) (*entity.Session, error) {
	var t tokenResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.call(ctx, http.MethodPost, "/token?grant_type=password", "", body, &t); err != nil {
		return nil, err
	}
	return c.establish(ctx, t, entity.AuthSignedIn)
}

// SignUp registra el usuario. Si el proyecto exige confirmar el email no hay sesión: devuelve nil, nil.
func (c *AuthClient) SignUp(ctx context.Context, in repository.SignUpRequest) (*entity.Session, error) {
	data := map[string]any{}
	if in.Name != "" {
		data["name"] = in.Name
		data["full_name"] = in.Name
	}
	if in.Role != "" {
		data["role"] = in.Role
	}
	body := map[string]any{"email": in.Email, "password": in.Password, "data": data}

	var raw json.RawMessage
	if err := c.call(ctx, http.MethodPost, "/signup", "", body, &raw); err != nil {
		return nil, err
	}
	var t tokenResponse
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("supabase: respuesta de signup: %w", err)
		}
	}
	if t.AccessToken == "" {
		c.log.Info().Str("email", in.Email).Msg("registro pendiente de confirmación por email")
		return nil, nil
	}
	return c.establish(ctx, t, entity.AuthSignedIn)
}

// SignOut revoca la sesión en el servidor (best effort) y la borra localmente.
func (c *AuthClient) SignOut(ctx context.Context) error {
	c.mu.Lock()
	s, err := c.readSession(ctx)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	if s != nil {
		if err := c.call(ctx, http.MethodPost, "/logout", s.AccessToken, nil, nil); err != nil {
			c.log.Warn().Err(err).Msg("logout remoto fallido; se cierra la sesión local igualmente")
		}
	}
	c.mu.Lock()
	err = c.kv.Delete(ctx, SessionKey)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("supabase: borrar sesión: %w", err)
	}
	c.bus.Emit(entity.AuthSignedOut, nil)
	return nil
}

// GetSession devuelve la sesión guardada, renovándola con el refresh token si está por vencer.
func (c *AuthClient) GetSession(ctx context.Context) (*entity.Session, error) {
	c.mu.Lock()
	s, err := c.readSession(ctx)
	c.mu.Unlock()
	if err != nil || s == nil {
		return nil, err
	}
	if s.ExpiresAt.IsZero() || time.Until(s.ExpiresAt) > refreshMargin {
		return s.toSession(), nil
	}
	if s.RefreshToken == "" {
		return nil, c.clearSession(ctx)
	}

	var t tokenResponse
	body := map[string]string{"refresh_token": s.RefreshToken}
	if err := c.call(ctx, http.MethodPost, "/token?grant_type=refresh_token", "", body, &t); err != nil {
		c.log.Info().Err(err).Msg("no se pudo renovar la sesión")
		return nil, c.clearSession(ctx)
	}
	if t.User == nil {
		t.User = &s.User
	}
	stored := t.stored(time.Now())
	c.mu.Lock()
	err = c.writeSession(ctx, stored)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return stored.toSession(), nil
}

func (c *AuthClient) clearSession(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Delete(ctx, SessionKey)
}

// AccessToken token de la sesión guardada ("" sin sesión).
func (c *AuthClient) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.readSession(ctx)
	if err != nil || s == nil {
		return "", err
	}
	return s.AccessToken, nil
}

// OnAuthStateChange suscribe l a los eventos de sesión.
func (c *AuthClient) OnAuthStateChange(l repository.AuthListener) func() {
	return c.bus.Subscribe(l)
}

// ResetPasswordForEmail envía el correo de recuperación.
func (c *AuthClient) ResetPasswordForEmail(ctx context.Context, email string) error {
	return c.call(ctx, http.MethodPost, "/recover", "", map[string]string{"email": email}, nil)
}

// UpdateUser PUT /user con el token del usuario; la sesión guardada adopta el usuario actualizado.
func (c *AuthClient) UpdateUser(ctx context.Context, in repository.UserUpdate) (*entity.Identity, error) {
	c.mu.Lock()
	s, err := c.readSession(ctx)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrUnauthorized
	}

	body := map[string]any{}
	if in.Email != "" {
		body["email"] = in.Email
	}
	if in.Password != "" {
		body["password"] = in.Password
	}
	if len(in.Data) > 0 {
		body["data"] = in.Data
	}
	var u userPayload
	if err := c.call(ctx, http.MethodPut, "/user", s.AccessToken, body, &u); err != nil {
		return nil, err
	}

	s.User = u
	c.mu.Lock()
	err = c.writeSession(ctx, *s)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	sess := s.toSession()
	// Los metadatos recién guardados mandan sobre los del token, que sigue siendo el anterior.
	if len(u.UserMetadata) > 0 {
		sess.Identity.Metadata = u.UserMetadata
	}
	c.bus.Emit(entity.AuthUserUpdated, sess)
	id := sess.Identity
	return &id, nil
}

// SignInWithOAuth genera el verificador PKCE y devuelve la URL de /authorize.
func (c *AuthClient) SignInWithOAuth(ctx context.Context, provider, redirectTo string) (string, error) {
	if provider == "" {
		return "", fmt.Errorf("supabase: proveedor OAuth vacío: %w", domain.ErrInvalidInput)
	}
	verifier := newVerifier()
	c.mu.Lock()
	err := c.kv.Set(ctx, VerifierKey, []byte(verifier))
	c.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("supabase: guardar verificador PKCE: %w", err)
	}

	q := url.Values{}
	q.Set("provider", provider)
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	q.Set("code_challenge", challenge(verifier))
	q.Set("code_challenge_method", "s256")
	return c.baseURL + "/authorize?" + q.Encode(), nil
}

// ExchangeCode canjea el código del callback por una sesión (grant_type=pkce).
func (c *AuthClient) ExchangeCode(ctx context.Context, code string) (*entity.Session, error) {
	c.mu.Lock()
	verifier, err := c.kv.Get(ctx, VerifierKey)
	c.mu.Unlock()
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("supabase: no hay un inicio de sesión OAuth en curso: %w", domain.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("supabase: leer verificador PKCE: %w", err)
	}

	var t tokenResponse
	body := map[string]string{"auth_code": code, "code_verifier": string(verifier)}
	if err := c.call(ctx, http.MethodPost, "/token?grant_type=pkce", "", body, &t); err != nil {
		return nil, err
	}
	c.mu.Lock()
	_ = c.kv.Delete(ctx, VerifierKey)
	c.mu.Unlock()
	return c.establish(ctx, t, entity.AuthSignedIn)
}
