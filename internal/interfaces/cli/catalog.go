package cli

import (
	"fmt"
	"strconv"

	"github.com/go-extras/cobraflags"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/jhoicas/ventas-xp/internal/application/dto"
	"github.com/jhoicas/ventas-xp/internal/application/state"
	"github.com/jhoicas/ventas-xp/internal/domain"
	"github.com/jhoicas/ventas-xp/internal/domain/entity"
)

const (
	descriptionFlag = "description"
	brandFlag       = "brand"
	categoryFlag    = "category"
	lineFlag        = "line"
	imageFlag       = "image"
	logoFlag        = "logo"
)

// authed envuelve RunE exigiendo sesión activa.
func (a *app) authed(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.requireUser(); err != nil {
			return err
		}
		return run(cmd, args)
	}
}

func (a *app) catalogCommand() *cobra.Command {
	var query, category, brand, minPrice, maxPrice string
	var reset bool
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Buscar productos; los filtros se recuerdan entre ejecuciones",
		RunE: a.authed(func(cmd *cobra.Command, _ []string) error {
			var patch state.CatalogFilterPatch
			if reset {
				all := entity.FilterAll
				empty := ""
				zero := decimal.Zero
				patch = state.CatalogFilterPatch{Query: &empty, Category: &all, BrandID: &all, MinPrice: &zero, MaxPrice: &zero}
			}
			fl := cmd.Flags()
			if fl.Changed("query") {
				patch.Query = &query
			}
			if fl.Changed(categoryFlag) {
				patch.Category = &category
			}
			if fl.Changed(brandFlag) {
				patch.BrandID = &brand
			}
			if fl.Changed("min") {
				d, err := parseDecimal(minPrice)
				if err != nil {
					return err
				}
				patch.MinPrice = &d
			}
			if fl.Changed("max") {
				d, err := parseDecimal(maxPrice)
				if err != nil {
					return err
				}
				patch.MaxPrice = &d
			}
			return writeProducts(cmd.OutOrStdout(), a.deps.Catalog.Filter(patch))
		}),
	}
	cmd.Flags().StringVar(&query, "query", "", "texto en nombre o descripción")
	cmd.Flags().StringVar(&category, categoryFlag, "", "nombre de categoría ('all' desactiva)")
	cmd.Flags().StringVar(&brand, brandFlag, "", "id de marca ('all' desactiva)")
	cmd.Flags().StringVar(&minPrice, "min", "", "precio mínimo")
	cmd.Flags().StringVar(&maxPrice, "max", "", "precio máximo")
	cmd.Flags().BoolVar(&reset, "reset", false, "limpiar los filtros guardados")
	return cmd
}

func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("número inválido %q: %w", s, domain.ErrInvalidInput)
	}
	return d, nil
}

// ── Marcas ───────────────────────────────────────────────────────────────────

func (a *app) brandsCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "brands", Short: "Gestionar marcas"}

	list := &cobra.Command{
		Use:   "list",
		Short: "Listar marcas",
		RunE: a.authed(func(cmd *cobra.Command, _ []string) error {
			t := newTable(cmd.OutOrStdout(), "ID", "NOMBRE", "DESCRIPCIÓN")
			for _, b := range a.deps.Store.State().Brands {
				t.row(b.ID, b.Name, b.Description)
			}
			return t.flush()
		}),
	}

	addFlags := map[string]cobraflags.Flag{
		descriptionFlag: &cobraflags.StringFlag{Name: descriptionFlag, Usage: "descripción"},
		logoFlag:        &cobraflags.StringFlag{Name: logoFlag, Usage: "URL del logo"},
	}
	add := &cobra.Command{
		Use:   "add NOMBRE",
		Short: "Crear una marca",
		Args:  cobra.ExactArgs(1),
		RunE: a.authed(func(cmd *cobra.Command, args []string) error {
			b, err := a.deps.Catalog.SaveBrand(cmd.Context(), entity.Brand{
				Name:        args[0],
				Description: addFlags[descriptionFlag].GetString(),
				Logo:        addFlags[logoFlag].GetString(),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marca %q guardada (%s).\n", b.Name, b.ID)
			return nil
		}),
	}
	cobraflags.RegisterMap(add, addFlags)

	rm := &cobra.Command{
		Use:   "rm ID",
		Short: "Eliminar una marca sin productos",
		Args:  cobra.ExactArgs(1),
		RunE: a.authed(func(cmd *cobra.Command, args []string) error {
			if err := a.deps.Catalog.DeleteBrand(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Marca eliminada.")
			return nil
		}),
	}

	cmd.AddCommand(list, add, rm)
	return cmd
}

// ── Categorías ───────────────────────────────────────────────────────────────

func (a *app) categoriesCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "categories", Short: "Gestionar categorías"}

	list := &cobra.Command{
		Use:   "list",
		Short: "Listar categorías",
		RunE: a.authed(func(cmd *cobra.Command, _ []string) error {
			t := newTable(cmd.OutOrStdout(), "ID", "NOMBRE", "DESCRIPCIÓN")
			for _, c := range a.deps.Store.State().Categories {
				t.row(c.ID, c.Name, c.Description)
			}
			return t.flush()
		}),
	}

	addFlags := map[string]cobraflags.Flag{
		descriptionFlag: &cobraflags.StringFlag{Name: descriptionFlag, Usage: "descripción"},
	}
	add := &cobra.Command{
		Use:   "add NOMBRE",
		Short: "Crear una categoría",
		Args:  cobra.ExactArgs(1),
		RunE: a.authed(func(cmd *cobra.Command, args []string) error {
			c, err := a.deps.Catalog.SaveCategory(cmd.Context(), entity.Category{
				Name:        args[0],
				Description: addFlags[descriptionFlag].GetString(),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Categoría %q guardada (%s).\n", c.Name, c.ID)
			return nil
		}),
	}
	cobraflags.RegisterMap(add, addFlags)

	rm := &cobra.Command{
		Use:   "rm ID",
		Short: "Eliminar una categoría",
		Args:  cobra.ExactArgs(1),
		RunE: a.authed(func(cmd *cobra.Command, args []string) error {
			if err := a.deps.Catalog.DeleteCategory(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Categoría eliminada.")
			return nil
		}),
	}

	cmd.AddCommand(list, add, rm)
	return cmd
}

// ── Líneas ───────────────────────────────────────────────────────────────────

func (a *app) linesCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "lines", Short: "Gestionar líneas de productos"}

	var brandFilter string
	list := &cobra.Command{
		Use:   "list",
		Short: "Listar líneas",
		RunE: a.authed(func(cmd *cobra.Command, _ []string) error {
			lines := a.deps.Store.State().Lines
			if brandFilter != "" {
				lines = a.deps.Catalog.LinesOf(brandFilter)
			}
			t := newTable(cmd.OutOrStdout(), "ID", "NOMBRE", "MARCA", "DESCRIPCIÓN")
			for _, l := range lines {
				t.row(l.ID, l.Name, l.BrandID, l.Description)
			}
			return t.flush()
		}),
	}
	list.Flags().StringVar(&brandFilter, brandFlag, "", "id de marca")

	addFlags := map[string]cobraflags.Flag{
		brandFlag:       &cobraflags.StringFlag{Name: brandFlag, Usage: "id de la marca"},
		descriptionFlag: &cobraflags.StringFlag{Name: descriptionFlag, Usage: "descripción"},
	}
	add := &cobra.Command{
		Use:   "add NOMBRE",
		Short: "Crear una línea dentro de una marca",
		Args:  cobra.ExactArgs(1),
		RunE: a.authed(func(cmd *cobra.Command, args []string) error {
			l, err := a.deps.Catalog.SaveLine(cmd.Context(), dto.LineInput{
				Name:        args[0],
				BrandID:     addFlags[brandFlag].GetString(),
				Description: addFlags[descriptionFlag].GetString(),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Línea %q guardada (%s).\n", l.Name, l.ID)
			return nil
		}),
	}
	cobraflags.RegisterMap(add, addFlags)

	rm := &cobra.Command{
		Use:   "rm ID",
		Short: "Eliminar una línea",
		Args:  cobra.ExactArgs(1),
		RunE: a.authed(func(cmd *cobra.Command, args []string) error {
			if err := a.deps.Catalog.DeleteLine(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Línea eliminada.")
			return nil
		}),
	}

	cmd.AddCommand(list, add, rm)
	return cmd
}

// ── Productos ────────────────────────────────────────────────────────────────

func (a *app) productsCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "products", Short: "Gestionar productos"}

	list := &cobra.Command{
		Use:   "list",
		Short: "Listar productos",
		RunE: a.authed(func(cmd *cobra.Command, _ []string) error {
			return writeProducts(cmd.OutOrStdout(), a.deps.Store.State().Products)
		}),
	}

	low := &cobra.Command{
		Use:   "low",
		Short: "Productos en o bajo su stock mínimo",
		RunE: a.authed(func(cmd *cobra.Command, _ []string) error {
			products, err := a.deps.Catalog.LowStock(cmd.Context())
			if err != nil {
				return err
			}
			return writeProducts(cmd.OutOrStdout(), products)
		}),
	}

	cmd.AddCommand(list, low, a.productAddCommand(), a.productStockCommand(), &cobra.Command{
		Use:   "rm ID",
		Short: "Eliminar un producto",
		Args:  cobra.ExactArgs(1),
		RunE: a.authed(func(cmd *cobra.Command, args []string) error {
			if err := a.deps.Catalog.DeleteProduct(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Producto eliminado.")
			return nil
		}),
	})
	return cmd
}

func (a *app) productAddCommand() *cobra.Command {
	flags := map[string]cobraflags.Flag{
		descriptionFlag: &cobraflags.StringFlag{Name: descriptionFlag, Usage: "descripción"},
		brandFlag:       &cobraflags.StringFlag{Name: brandFlag, Usage: "nombre de la marca (se crea si no existe)"},
		categoryFlag:    &cobraflags.StringFlag{Name: categoryFlag, Value: entity.DefaultCategory, Usage: "nombre de la categoría"},
		lineFlag:        &cobraflags.StringFlag{Name: lineFlag, Usage: "id de la línea"},
		imageFlag:       &cobraflags.StringFlag{Name: imageFlag, Usage: "URL de la imagen"},
	}
	var (
		id     string
		price  string
		stock  int
		minQty int
	)
	cmd := &cobra.Command{
		Use:   "add NOMBRE",
		Short: "Crear o editar un producto",
		Args:  cobra.ExactArgs(1),
		RunE: a.authed(func(cmd *cobra.Command, args []string) error {
			p, err := parseDecimal(price)
			if err != nil {
				return err
			}
			brand, err := a.deps.Catalog.QuickCreateBrand(cmd.Context(), flags[brandFlag].GetString())
			if err != nil {
				return err
			}
			in := dto.ProductInput{
				ID:            id,
				Name:          args[0],
				Description:   flags[descriptionFlag].GetString(),
				Category:      flags[categoryFlag].GetString(),
				BrandID:       brand.ID,
				LineID:        flags[lineFlag].GetString(),
				Price:         p,
				Image:         flags[imageFlag].GetString(),
				StockQuantity: stock,
			}
			if cmd.Flags().Changed("min") {
				in.MinStock = &minQty
			}
			saved, err := a.deps.Catalog.SaveProduct(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Producto %q guardado (%s), stock mínimo %d.\n", saved.Name, saved.ID, saved.MinStock)
			return nil
		}),
	}
	cobraflags.RegisterMap(cmd, flags)
	cmd.Flags().StringVar(&id, "id", "", "id del producto a editar")
	cmd.Flags().StringVar(&price, "price", "0", "precio unitario")
	cmd.Flags().IntVar(&stock, "stock", 0, "unidades en stock")
	cmd.Flags().IntVar(&minQty, "min", 0, "stock mínimo (por defecto 30% del stock)")
	return cmd
}

func (a *app) productStockCommand() *cobra.Command {
	var minQty int
	cmd := &cobra.Command{
		Use:   "stock ID CANTIDAD",
		Short: "Fijar el stock de un producto",
		Args:  cobra.ExactArgs(2),
		RunE: a.authed(func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("cantidad inválida %q: %w", args[1], domain.ErrInvalidInput)
			}
			var minStock *int
			if cmd.Flags().Changed("min") {
				minStock = &minQty
			}
			p, err := a.deps.Catalog.UpdateStock(cmd.Context(), args[0], qty, minStock)
			if err != nil {
				return err
			}
			if p == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Stock actualizado.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stock de %q: %d (mínimo %d).\n", p.Name, p.StockQuantity, p.MinStock)
			return nil
		}),
	}
	cmd.Flags().IntVar(&minQty, "min", 0, "stock mínimo (por defecto 30% del stock)")
	return cmd
}
