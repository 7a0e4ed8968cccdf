package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/jhoicas/ventas-xp/internal/application/dto"
	"github.com/jhoicas/ventas-xp/internal/application/sales"
	"github.com/jhoicas/ventas-xp/internal/domain"
	"github.com/jhoicas/ventas-xp/internal/domain/entity"
)

const (
	paymentFlag       = "payment"
	customerFlag      = "customer"
	customerEmailFlag = "customer-email"
	outFlag           = "out"
)

func (a *app) salesCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "sales", Short: "Libro de ventas"}
	cmd.AddCommand(
		a.salesListCommand(),
		a.salesCreateCommand(),
		a.salesUpdateCommand(),
		a.salesDeleteCommand(),
		a.salesReportCommand(),
	)
	return cmd
}

func (a *app) salesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Listar mis ventas",
		RunE: a.authed(func(cmd *cobra.Command, _ []string) error {
			list, err := a.deps.Sales.ListMine(cmd.Context())
			if err != nil {
				return err
			}
			views := sales.Views(list)
			out := cmd.OutOrStdout()
			t := newTable(out, "ID", "FECHA", "CLIENTE", "PAGO", "ÍTEMS", "TOTAL")
			for _, v := range views {
				t.row(v.ID, v.SaleDate.Format("2006-01-02 15:04"), v.CustomerName, v.PaymentMethod, strconv.Itoa(v.ItemCount), v.TotalAmount.StringFixed(2))
			}
			if err := t.flush(); err != nil {
				return err
			}

			sum := sales.Summary(views)
			fmt.Fprintf(out, "\n%d ventas, total %s\n", sum.Count, sum.Total.StringFixed(2))
			methods := make([]string, 0, len(sum.ByPayment))
			for m := range sum.ByPayment {
				methods = append(methods, m)
			}
			sort.Strings(methods)
			for _, m := range methods {
				fmt.Fprintf(out, "  %s: %s\n", m, sum.ByPayment[m].StringFixed(2))
			}
			return nil
		}),
	}
}

// parseItems interpreta entradas "PRODUCTO:CANTIDAD"; sin cantidad cuenta 1.
func parseItems(raw []string) ([]dto.SaleItemRequest, error) {
	items := make([]dto.SaleItemRequest, 0, len(raw))
	for _, r := range raw {
		id, qty, found := strings.Cut(strings.TrimSpace(r), ":")
		n := 1
		if found {
			v, err := strconv.Atoi(qty)
			if err != nil || v <= 0 {
				return nil, fmt.Errorf("cantidad inválida en %q: %w", r, domain.ErrInvalidInput)
			}
			n = v
		}
		if id == "" {
			return nil, fmt.Errorf("producto vacío en %q: %w", r, domain.ErrInvalidInput)
		}
		items = append(items, dto.SaleItemRequest{ProductID: id, Quantity: n})
	}
	return items, nil
}

func customerFlags() map[string]cobraflags.Flag {
	return map[string]cobraflags.Flag{
		paymentFlag:       &cobraflags.StringFlag{Name: paymentFlag, Usage: "efectivo, tarjeta o transferencia"},
		customerFlag:      &cobraflags.StringFlag{Name: customerFlag, Usage: "nombre del cliente"},
		customerEmailFlag: &cobraflags.StringFlag{Name: customerEmailFlag, Usage: "email del cliente"},
	}
}

func (a *app) salesCreateCommand() *cobra.Command {
	flags := customerFlags()
	var rawItems []string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Registrar una venta",
		RunE: a.authed(func(cmd *cobra.Command, _ []string) error {
			items, err := parseItems(rawItems)
			if err != nil {
				return err
			}
			sale, err := a.deps.Sales.Create(cmd.Context(), dto.CreateSaleRequest{
				Items:         items,
				PaymentMethod: flags[paymentFlag].GetString(),
				CustomerName:  flags[customerFlag].GetString(),
				CustomerEmail: flags[customerEmailFlag].GetString(),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Venta %s registrada por %s.\n", sale.ID, sale.TotalAmount.StringFixed(2))
			return nil
		}),
	}
	cobraflags.RegisterMap(cmd, flags)
	cmd.Flags().StringSliceVar(&rawItems, "item", nil, "PRODUCTO:CANTIDAD (repetible)")
	return cmd
}

// findSale busca una venta propia por id.
func (a *app) findSale(ctx context.Context, id string) (entity.Sale, error) {
	list, err := a.deps.Sales.ListMine(ctx)
	if err != nil {
		return entity.Sale{}, err
	}
	for _, s := range list {
		if s.ID == id {
			return s, nil
		}
	}
	return entity.Sale{}, fmt.Errorf("venta %s: %w", id, domain.ErrNotFound)
}

func (a *app) salesUpdateCommand() *cobra.Command {
	flags := customerFlags()
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Cambiar método de pago o datos del cliente",
		Args:  cobra.ExactArgs(1),
		RunE: a.authed(func(cmd *cobra.Command, args []string) error {
			current, err := a.findSale(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			req := dto.UpdateSaleRequest{ID: current.ID}
			if cmd.Flags().Changed(paymentFlag) {
				v := flags[paymentFlag].GetString()
				req.PaymentMethod = &v
			}
			if cmd.Flags().Changed(customerFlag) {
				v := flags[customerFlag].GetString()
				req.CustomerName = &v
			}
			if cmd.Flags().Changed(customerEmailFlag) {
				v := flags[customerEmailFlag].GetString()
				req.CustomerEmail = &v
			}
			if _, err := a.deps.Sales.Update(cmd.Context(), current, req); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Venta actualizada.")
			return nil
		}),
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func (a *app) salesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Eliminar una venta",
		Args:  cobra.ExactArgs(1),
		RunE: a.authed(func(cmd *cobra.Command, args []string) error {
			s, err := a.findSale(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := a.deps.Sales.Delete(cmd.Context(), s); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Venta eliminada.")
			return nil
		}),
	}
}

func (a *app) salesReportCommand() *cobra.Command {
	flags := map[string]cobraflags.Flag{
		outFlag: &cobraflags.StringFlag{Name: outFlag, Value: "ventas.pdf", Usage: "archivo PDF de salida"},
	}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Exportar mis ventas a PDF",
		RunE: a.authed(func(cmd *cobra.Command, _ []string) error {
			pdf, err := a.deps.Sales.Report(cmd.Context())
			if err != nil {
				return err
			}
			path := flags[outFlag].GetString()
			if err := os.WriteFile(path, pdf, 0o644); err != nil {
				return fmt.Errorf("escribir reporte: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reporte guardado en %s (%d bytes).\n", path, len(pdf))
			return nil
		}),
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}
