package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jhoicas/ventas-xp/internal/domain"
	"github.com/jhoicas/ventas-xp/internal/domain/entity"
	"github.com/jhoicas/ventas-xp/internal/domain/repository"
	"github.com/jhoicas/ventas-xp/internal/infrastructure/apiclient"
	"github.com/jhoicas/ventas-xp/pkg/config"
	"github.com/jhoicas/ventas-xp/pkg/logger"
)

// Profiles consultas de perfiles vía PostgREST (/rest/v1) con el token del usuario.
type Profiles struct {
	http *apiclient.Client
}

var _ repository.ProfileProvisioner = (*Profiles)(nil)

// NewProfiles construye el cliente. tokens entrega el token del usuario; sin sesión se usa la anon key.
func NewProfiles(cfg config.SupabaseConfig, tokens apiclient.TokenSource, log *logger.Logger, opts ...apiclient.Option) *Profiles {
	if log == nil {
		log = logger.Nop()
	}
	bearer := apiclient.TokenFunc(func(ctx context.Context) (string, error) {
		if tokens != nil {
			if tok, err := tokens.AccessToken(ctx); err == nil && tok != "" {
				return tok, nil
			}
		}
		return cfg.AnonKey, nil
	})
	base := strings.TrimRight(cfg.URL, "/") + "/rest/v1"
	opts = append([]apiclient.Option{apiclient.WithHeader("apikey", cfg.AnonKey), apiclient.WithLogger(log)}, opts...)
	return &Profiles{http: apiclient.New(base, bearer, opts...)}
}

// Strategies consultas de rol en el orden de respaldo:
// profiles.id, profiles.user_id, profile.id, profile.user_id, profiles.email.
func (p *Profiles) Strategies() []repository.ProfileLookupStrategy {
	return []repository.ProfileLookupStrategy{
		restLookup{p: p, table: "profiles", column: "id"},
		restLookup{p: p, table: "profiles", column: "user_id"},
		restLookup{p: p, table: "profile", column: "id"},
		restLookup{p: p, table: "profile", column: "user_id"},
		restLookup{p: p, table: "profiles", column: "email", byEmail: true},
	}
}

type restLookup struct {
	p       *Profiles
	table   string
	column  string
	byEmail bool
}

func (l restLookup) Name() string { return l.table + "." + l.column }

func (l restLookup) LookupRole(ctx context.Context, id entity.Identity) (string, error) {
	value := id.ID
	if l.byEmail {
		value = id.Email
	}
	if value == "" {
		return "", nil
	}
	q := url.Values{}
	q.Set("select", "role")
	q.Set(l.column, "eq."+value)
	q.Set("limit", "1")

	raw, err := l.p.http.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "/" + l.table + "?" + q.Encode()})
	if err != nil {
		return "", fmt.Errorf("lookup %s: %w", l.Name(), err)
	}
	var rows []struct {
		Role *string `json:"role"`
	}
	if raw != nil {
		if err := json.Unmarshal(raw, &rows); err != nil {
			return "", fmt.Errorf("lookup %s: respuesta inesperada: %w", l.Name(), err)
		}
	}
	if len(rows) == 0 || rows[0].Role == nil {
		return "", nil
	}
	return *rows[0].Role, nil
}

// CreateProfile inserta en profiles y devuelve la fila guardada (Prefer: return=representation).
func (p *Profiles) CreateProfile(ctx context.Context, prof entity.Profile) (*entity.Profile, error) {
	body := map[string]any{
		"id":        prof.ID,
		"user_id":   prof.UserID,
		"email":     prof.Email,
		"role":      prof.Role,
		"full_name": prof.FullName,
	}
	if prof.AvatarURL != "" {
		body["avatar_url"] = prof.AvatarURL
	}
	raw, err := p.http.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/profiles",
		Body:   body,
		Header: http.Header{"Prefer": {"return=representation"}},
	})
	if err != nil {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
			return nil, fmt.Errorf("perfil %s: %w", prof.ID, domain.ErrConflict)
		}
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	var rows []entity.Profile
	if raw != nil {
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("insert profile: respuesta inesperada: %w", err)
		}
	}
	if len(rows) == 0 {
		out := prof
		return &out, nil
	}
	return &rows[0], nil
}
