package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/jhoicas/ventas-xp/internal/domain/entity"
	"github.com/jhoicas/ventas-xp/internal/domain/repository"
	"github.com/jhoicas/ventas-xp/internal/domain/role"
	httpcallback "github.com/jhoicas/ventas-xp/internal/interfaces/http"
)

const (
	emailFlag    = "email"
	passwordFlag = "password"
	nameFlag     = "name"
	roleFlag     = "role"
	providerFlag = "provider"
)

// oauthTimeout espera máxima del callback OAuth.
const oauthTimeout = 5 * time.Minute

func credentialFlags() map[string]cobraflags.Flag {
	return map[string]cobraflags.Flag{
		emailFlag: &cobraflags.StringFlag{
			Name:  emailFlag,
			Usage: "email de la cuenta",
		},
		passwordFlag: &cobraflags.StringFlag{
			Name:  passwordFlag,
			Usage: "contraseña",
		},
	}
}

func (a *app) loginCommand() *cobra.Command {
	flags := credentialFlags()
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Iniciar sesión con email y contraseña",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.deps.Session.SignIn(cmd.Context(), flags[emailFlag].GetString(), flags[passwordFlag].GetString()); err != nil {
				return err
			}
			return a.printUser(cmd)
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func (a *app) signupCommand() *cobra.Command {
	flags := credentialFlags()
	flags[nameFlag] = &cobraflags.StringFlag{Name: nameFlag, Usage: "nombre completo"}
	flags[roleFlag] = &cobraflags.StringFlag{Name: roleFlag, Usage: "rol solicitado (admin, empleado, cliente)"}

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Registrar una cuenta nueva",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := a.deps.Session.SignUp(cmd.Context(), repository.SignUpRequest{
				Email:    flags[emailFlag].GetString(),
				Password: flags[passwordFlag].GetString(),
				Name:     flags[nameFlag].GetString(),
				Role:     role.Normalize(flags[roleFlag].GetString()),
			})
			if err != nil {
				return err
			}
			if sess == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Cuenta creada. Revisa tu correo para confirmarla antes de iniciar sesión.")
				return nil
			}
			return a.printUser(cmd)
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func (a *app) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Cerrar la sesión",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.deps.Session.SignOut(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Sesión cerrada.")
			return nil
		},
	}
}

func (a *app) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Mostrar el usuario y su rol",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireUser(); err != nil {
				return err
			}
			return a.printUser(cmd)
		},
	}
}

func (a *app) resetPasswordCommand() *cobra.Command {
	flags := map[string]cobraflags.Flag{
		emailFlag: &cobraflags.StringFlag{Name: emailFlag, Usage: "email de la cuenta"},
	}
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Enviar el correo de recuperación de contraseña",
		RunE: func(cmd *cobra.Command, _ []string) error {
			email := flags[emailFlag].GetString()
			if err := a.deps.Session.ResetPassword(cmd.Context(), email); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Se envió el enlace de recuperación a %s.\n", email)
			return nil
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func (a *app) oauthCommand() *cobra.Command {
	flags := map[string]cobraflags.Flag{
		providerFlag: &cobraflags.StringFlag{Name: providerFlag, Value: "google", Usage: "proveedor OAuth"},
	}
	cmd := &cobra.Command{
		Use:   "oauth",
		Short: "Iniciar sesión con un proveedor OAuth desde el navegador",
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr := a.deps.Config.OAuth.CallbackAddr()
			srv := httpcallback.NewCallbackServer(a.deps.Session, a.deps.Log)

			authURL, err := a.deps.Session.SignInWithOAuth(cmd.Context(), flags[providerFlag].GetString(), httpcallback.RedirectURL(addr))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Abre esta URL en el navegador:\n\n  %s\n\n", authURL)

			ctx, cancel := context.WithTimeout(cmd.Context(), oauthTimeout)
			defer cancel()
			if _, err := srv.Serve(ctx, addr); err != nil {
				return err
			}
			return a.printUser(cmd)
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func (a *app) printUser(cmd *cobra.Command) error {
	u := a.deps.Session.CurrentUser()
	if u == nil {
		return errNoSession
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usuario: %s <%s>\n", u.DisplayName(), u.Email)
	fmt.Fprintf(out, "ID:      %s\n", u.ID)
	fmt.Fprintf(out, "Rol:     %s (%s)\n", roleLabel(u), u.RoleStatus)
	fmt.Fprintf(out, "Admin:   %s\n", u.Resolution().Access(role.TierAdmin))
	return nil
}

func roleLabel(u *entity.User) string {
	if u.Role == "" {
		return "sin rol"
	}
	return u.Role
}
