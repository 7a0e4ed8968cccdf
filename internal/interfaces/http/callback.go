// Package http expone el servidor loopback que recibe el callback OAuth (PKCE) del proveedor de auth.
package http

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/ventas-xp/internal/application/dto"
	"github.com/jhoicas/ventas-xp/internal/domain"
	"github.com/jhoicas/ventas-xp/internal/domain/entity"
	"github.com/jhoicas/ventas-xp/pkg/logger"
)

// CallbackPath ruta registrada como redirect_to en el proveedor.
const CallbackPath = "/auth/callback"

// OAuthCompleter canjea el código del callback por una sesión.
type OAuthCompleter interface {
	CompleteOAuth(ctx context.Context, code string) (*entity.Session, error)
}

// CallbackResult resultado del primer callback recibido.
type CallbackResult struct {
	Session *entity.Session
	Err     error
}

// CallbackServer servidor Fiber de un solo uso: entrega el primer callback por Result().
type CallbackServer struct {
	app       *fiber.App
	completer OAuthCompleter
	log       *logger.Logger
	result    chan CallbackResult
}

// NewCallbackServer construye el servidor con sus rutas.
func NewCallbackServer(completer OAuthCompleter, log *logger.Logger) *CallbackServer {
	if log == nil {
		log = logger.Nop()
	}
	s := &CallbackServer{
		completer: completer,
		log:       log.Component("oauth_callback"),
		result:    make(chan CallbackResult, 1),
	}
	app := fiber.New(fiber.Config{
		AppName:               "ventasxp-oauth",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
	})
	app.Use(recover.New())
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get(CallbackPath, s.handleCallback)
	s.app = app
	return s
}

// App devuelve la app Fiber (tests con app.Test).
func (s *CallbackServer) App() *fiber.App { return s.app }

// Result canal con el resultado del primer callback.
func (s *CallbackServer) Result() <-chan CallbackResult { return s.result }

// RedirectURL URL de callback para una dirección de escucha.
func RedirectURL(addr string) string {
	return "http://" + addr + CallbackPath
}

func (s *CallbackServer) deliver(r CallbackResult) {
	select {
	case s.result <- r:
	default:
		// Ya se entregó un resultado; los callbacks repetidos sólo se responden.
	}
}

func (s *CallbackServer) handleCallback(c *fiber.Ctx) error {
	if msg := c.Query("error_description", c.Query("error")); msg != "" {
		err := fmt.Errorf("oauth: %s: %w", msg, domain.ErrUnauthorized)
		s.deliver(CallbackResult{Err: err})
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "OAUTH_DENIED", Message: msg})
	}
	code := c.Query("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "falta el parámetro code"})
	}

	sess, err := s.completer.CompleteOAuth(c.UserContext(), code)
	if err != nil {
		s.log.Warn().Err(err).Msg("canje del código OAuth fallido")
		s.deliver(CallbackResult{Err: err})
		status := fiber.StatusBadGateway
		if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrUnauthorized) {
			status = fiber.StatusUnauthorized
		}
		return c.Status(status).JSON(dto.ErrorResponse{Code: "OAUTH_FAILED", Message: err.Error()})
	}

	s.deliver(CallbackResult{Session: sess})
	email := ""
	if sess != nil {
		email = sess.Identity.Email
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(successPage(email))
}

func successPage(email string) string {
	return `<!doctype html><html><head><meta charset="utf-8"><title>Sesión iniciada</title></head>` +
		`<body style="font-family:Tahoma,sans-serif;background:#3a6ea5;color:#fff;text-align:center;padding-top:15%">` +
		`<h2>Bienvenido ` + html.EscapeString(email) + `</h2><p>Ya puede cerrar esta pestaña y volver a la terminal.</p>` +
		`</body></html>`
}

// Serve escucha en addr hasta recibir un callback o hasta que ctx termine, y apaga el servidor.
func (s *CallbackServer) Serve(ctx context.Context, addr string) (*entity.Session, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("oauth: escuchar en %s: %w", addr, err)
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- s.app.Listener(ln) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
			s.log.Error().Err(err).Msg("apagado del servidor de callback")
		}
		_ = ln.Close()
	}()

	s.log.Info().Str("addr", addr).Msg("esperando callback OAuth")
	select {
	case r := <-s.result:
		return r.Session, r.Err
	case err := <-serveErr:
		return nil, fmt.Errorf("oauth: servidor de callback: %w", err)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
