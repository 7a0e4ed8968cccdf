package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jhoicas/ventas-xp/internal/application/auth"
	"github.com/jhoicas/ventas-xp/internal/application/catalog"
	"github.com/jhoicas/ventas-xp/internal/application/sales"
	"github.com/jhoicas/ventas-xp/internal/application/state"
	"github.com/jhoicas/ventas-xp/internal/desktop"
	"github.com/jhoicas/ventas-xp/internal/domain/repository"
	"github.com/jhoicas/ventas-xp/internal/infrastructure/apiclient"
	"github.com/jhoicas/ventas-xp/internal/infrastructure/localauth"
	"github.com/jhoicas/ventas-xp/internal/infrastructure/pdf"
	"github.com/jhoicas/ventas-xp/internal/infrastructure/postgres"
	"github.com/jhoicas/ventas-xp/internal/infrastructure/storage"
	"github.com/jhoicas/ventas-xp/internal/infrastructure/supabase"
	"github.com/jhoicas/ventas-xp/pkg/config"
	"github.com/jhoicas/ventas-xp/pkg/logger"
)

// Deps dependencias ya construidas que usan los comandos.
type Deps struct {
	Config    *config.Config
	Log       *logger.Logger
	Store     *state.Store
	Bridge    *state.Bridge
	Session   *auth.SessionManager
	Refresher *catalog.Refresher
	Catalog   *catalog.UseCase
	Sales     *sales.UseCase
	Desktop   *desktop.Manager

	closers []func() error
}

// Close detiene la sesión, vuelca el estado pendiente y libera conexiones.
func (d *Deps) Close() error {
	if d.Session != nil {
		d.Session.Close()
	}
	var firstErr error
	if d.Bridge != nil {
		if err := d.Bridge.Flush(context.Background()); err != nil {
			firstErr = err
		}
	}
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type wireOptions struct {
	httpClient *http.Client
	kv         repository.KeyValueStore
}

// WireOption ajusta la construcción de dependencias.
type WireOption func(*wireOptions)

// WithHTTPClient usa hc para todas las llamadas HTTP salientes.
func WithHTTPClient(hc *http.Client) WireOption {
	return func(o *wireOptions) { o.httpClient = hc }
}

// WithKeyValueStore reemplaza el almacenamiento configurado.
func WithKeyValueStore(kv repository.KeyValueStore) WireOption {
	return func(o *wireOptions) { o.kv = kv }
}

// Wire construye el grafo completo a partir de la configuración.
//
// Sin credenciales de Supabase se usa el proveedor local. Con DATABASE_URL o DB_HOST
// las consultas de perfil van directo a PostgreSQL en lugar de PostgREST.
func Wire(ctx context.Context, cfg *config.Config, log *logger.Logger, opts ...WireOption) (*Deps, error) {
	if log == nil {
		log = logger.Nop()
	}
	var o wireOptions
	for _, opt := range opts {
		opt(&o)
	}
	d := &Deps{Config: cfg, Log: log}

	kv := o.kv
	if kv == nil {
		opened, closeKV, err := storage.Open(ctx, cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("abrir almacenamiento: %w", err)
		}
		kv = opened
		d.closers = append(d.closers, closeKV)
	}

	var httpOpts []apiclient.Option
	if o.httpClient != nil {
		httpOpts = append(httpOpts, apiclient.WithHTTPClient(o.httpClient))
	}

	d.Store = state.NewStore(log)
	d.Bridge = state.NewBridge(d.Store, kv, log)

	// El token lo aporta el gestor de sesión, que se construye después.
	tokens := apiclient.TokenFunc(func(ctx context.Context) (string, error) {
		if d.Session == nil {
			return "", nil
		}
		return d.Session.AccessToken(ctx)
	})

	var (
		provider    repository.AuthProvider
		strategies  []repository.ProfileLookupStrategy
		provisioner repository.ProfileProvisioner
	)
	if cfg.UseMockAuth() {
		log.Info().Msg("sin credenciales de Supabase: se usa el proveedor de auth local")
		provider = localauth.New(kv, localauth.JWTConfig{
			Secret:     cfg.JWT.Secret,
			ExpMinutes: cfg.JWT.Expiration,
			Issuer:     cfg.JWT.Issuer,
		}, log)
	} else {
		provider = supabase.NewAuthClient(cfg.Supabase, kv, log, httpOpts...)
		profiles := supabase.NewProfiles(cfg.Supabase, tokens, log, httpOpts...)
		strategies = profiles.Strategies()
		provisioner = profiles
	}

	if cfg.DB.Enabled() {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Warn().Err(err).Msg("PostgreSQL no disponible; se mantienen las consultas por REST")
		} else {
			d.closers = append(d.closers, func() error { pool.Close(); return nil })
			strategies = postgres.ProfileStrategies(pool)
			provisioner = postgres.NewProfileRepository(pool)
		}
	}

	api := apiclient.New(cfg.API.BaseURL, tokens, append(httpOpts, apiclient.WithLogger(log))...)

	d.Refresher = catalog.NewRefresher(api, d.Store, log)
	d.Catalog = catalog.NewUseCase(api, d.Store, log)
	d.Sales = sales.NewUseCase(api, api, d.Store, pdf.NewLedgerGenerator(), log)
	resolver := auth.NewRoleResolver(strategies, provisioner, log)
	d.Session = auth.NewSessionManager(provider, resolver, d.Store, d.Bridge, d.Refresher, log)
	d.Desktop = desktop.NewManager()
	return d, nil
}
