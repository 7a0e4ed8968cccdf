// Package cli expone el cliente de ventas como comandos cobra.
//
// Cada invocación construye las dependencias, arranca la sesión (hidratando el
// catálogo guardado y refrescándolo si hay usuario) y las libera al terminar.
package cli

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/jhoicas/ventas-xp/pkg/config"
	"github.com/jhoicas/ventas-xp/pkg/logger"
)

// ConfigLoader obtiene la configuración del entorno.
type ConfigLoader func() (*config.Config, error)

// Builder construye las dependencias para una configuración ya ajustada por los flags.
type Builder func(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Deps, error)

// Options entrada de Execute.
type Options struct {
	Args   []string
	Out    io.Writer
	Err    io.Writer
	Load   ConfigLoader
	Build  Builder
	Logger func(cfg *config.Config) *logger.Logger
}

type app struct {
	opts      Options
	ephemeral bool
	logLevel  string
	deps      *Deps
}

// Execute ejecuta la línea de comandos y libera las dependencias al terminar.
func Execute(ctx context.Context, opts Options) error {
	if opts.Load == nil {
		opts.Load = config.Load
	}
	if opts.Build == nil {
		opts.Build = func(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Deps, error) {
			return Wire(ctx, cfg, log)
		}
	}
	if opts.Logger == nil {
		opts.Logger = func(cfg *config.Config) *logger.Logger {
			return logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Out: opts.Err})
		}
	}

	a := &app{opts: opts}
	root := a.rootCommand()
	if opts.Args != nil {
		root.SetArgs(opts.Args)
	}
	if opts.Out != nil {
		root.SetOut(opts.Out)
	}
	if opts.Err != nil {
		root.SetErr(opts.Err)
	}

	err := root.ExecuteContext(ctx)
	if a.deps != nil {
		if cerr := a.deps.Close(); cerr != nil {
			a.deps.Log.Warn().Err(cerr).Msg("cierre incompleto")
		}
	}
	return err
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "ventasxp",
		Short:         "Cliente de ventas e inventario",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
	}
	root.PersistentFlags().BoolVar(&a.ephemeral, "ephemeral", false, "guardar sesión y catálogo sólo en memoria")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "nivel de log (trace, debug, info, warn, error)")

	root.AddCommand(
		a.loginCommand(),
		a.signupCommand(),
		a.logoutCommand(),
		a.whoamiCommand(),
		a.resetPasswordCommand(),
		a.oauthCommand(),
		a.catalogCommand(),
		a.brandsCommand(),
		a.categoriesCommand(),
		a.linesCommand(),
		a.productsCommand(),
		a.salesCommand(),
		a.desktopCommand(),
	)
	return root
}

func (a *app) setup(ctx context.Context) error {
	cfg, err := a.opts.Load()
	if err != nil {
		return err
	}
	if a.ephemeral {
		cfg.Storage.Driver = config.StorageMemory
	}
	if a.logLevel != "" {
		cfg.App.LogLevel = a.logLevel
	}
	log := a.opts.Logger(cfg)

	deps, err := a.opts.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	a.deps = deps
	return deps.Session.Start(ctx)
}

// requireUser falla si no hay sesión activa.
func (a *app) requireUser() error {
	if a.deps.Session.CurrentUser() == nil {
		return errNoSession
	}
	return nil
}

var errNoSession = errors.New("no hay sesión activa; ejecuta 'ventasxp login'")
