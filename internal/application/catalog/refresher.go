package catalog

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/ventas-xp/internal/application/state"
	"github.com/jhoicas/ventas-xp/internal/domain/entity"
	"github.com/jhoicas/ventas-xp/internal/domain/repository"
	"github.com/jhoicas/ventas-xp/pkg/logger"
)

// Refresher recarga las cuatro colecciones del catálogo desde el backend.
//
// Las cuatro peticiones salen en paralelo y se aplican juntas; si alguna falla
// se vacían todas. El resultado sólo se aplica si el epoch capturado al empezar
// sigue vigente, de modo que un cambio de sesión en vuelo nunca recibe datos ajenos.
type Refresher struct {
	gw    repository.CatalogGateway
	store *state.Store
	log   *logger.Logger
}

// NewRefresher construye el refresco del catálogo.
func NewRefresher(gw repository.CatalogGateway, store *state.Store, log *logger.Logger) *Refresher {
	if log == nil {
		log = logger.Nop()
	}
	return &Refresher{gw: gw, store: store, log: log.Component("catalog_refresh")}
}

// Refresh devuelve applied=false si el resultado quedó obsoleto antes de aplicarse.
func (r *Refresher) Refresh(ctx context.Context) (bool, error) {
	current, epoch := r.store.Current()
	if current.User == nil {
		return r.store.ApplyAt(epoch, state.ResetCatalog{}), nil
	}

	var (
		brands     []entity.Brand
		categories []entity.Category
		products   []entity.Product
		lines      []entity.Line
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		brands, err = r.gw.FetchBrands(gctx)
		return err
	})
	g.Go(func() (err error) {
		categories, err = r.gw.FetchCategories(gctx)
		return err
	})
	g.Go(func() (err error) {
		products, err = r.gw.FetchProducts(gctx)
		return err
	})
	g.Go(func() (err error) {
		lines, err = r.gw.FetchLines(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		applied := r.store.ApplyAt(epoch, state.ResetCatalog{})
		r.log.Warn().Err(err).Bool("applied", applied).Msg("refresco fallido; catálogo vaciado")
		return applied, fmt.Errorf("refrescar catálogo: %w", err)
	}

	applied := r.store.ApplyAt(epoch,
		state.SetBrands{Items: brands},
		state.SetCategories{Items: categories},
		state.SetProducts{Items: products},
		state.SetLines{Items: lines},
	)
	if !applied {
		r.log.Debug().Uint64("epoch", epoch).Msg("refresco obsoleto descartado")
		return false, nil
	}
	r.log.Info().
		Int("brands", len(brands)).
		Int("categories", len(categories)).
		Int("products", len(products)).
		Int("lines", len(lines)).
		Msg("catálogo actualizado")
	return true, nil
}
