package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/jhoicas/ventas-xp/internal/domain"
	"github.com/jhoicas/ventas-xp/pkg/logger"
)

// maxBodyBytes límite de lectura de respuestas.
const maxBodyBytes = 8 << 20

// TokenSource entrega el access token de la sesión actual ("" sin sesión).
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// TokenFunc adapta una función a TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

// AccessToken implementa TokenSource.
func (f TokenFunc) AccessToken(ctx context.Context) (string, error) { return f(ctx) }

// APIError respuesta no 2xx del backend.
type APIError struct {
	Status  int
	Body    json.RawMessage
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// FormData cuerpo multipart ya codificado; se envía tal cual con su propio Content-Type.
type FormData struct {
	ContentType string
	Body        []byte
}

// NewFormData codifica campos simples como multipart/form-data.
func NewFormData(fields map[string]string) (FormData, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return FormData{}, fmt.Errorf("api: form field %s: %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return FormData{}, fmt.Errorf("api: cerrar form: %w", err)
	}
	return FormData{ContentType: w.FormDataContentType(), Body: buf.Bytes()}, nil
}

// Request petición al backend. Body nil no envía cuerpo; FormData se envía sin serializar.
type Request struct {
	Method string
	Path   string
	Body   any
	Header http.Header
}

// Client envoltorio HTTP del backend de colecciones.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	header     http.Header
	log        *logger.Logger
}

// Option configura el Client.
type Option func(*Client)

// WithHTTPClient reemplaza el http.Client (tests, proxies).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithHeader agrega una cabecera fija a todas las peticiones (p. ej. apikey de Supabase).
func WithHeader(key, value string) Option {
	return func(c *Client) { c.header.Set(key, value) }
}

// WithLogger asigna el logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l.Component("apiclient") }
}

// New construye el cliente. baseURL vacío es válido: las llamadas con rutas relativas fallan con ErrNotConfigured.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		header:     http.Header{},
		log:        logger.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) buildURL(path string) (string, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path, nil
	}
	if c.baseURL == "" {
		return "", fmt.Errorf("api: API_BASE_URL no está configurada: %w", domain.ErrNotConfigured)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path, nil
}

// Do ejecuta la petición y devuelve el cuerpo JSON de la respuesta.
// 204, cuerpo vacío o cuerpo que no es JSON devuelven nil sin error. Nunca reintenta.
func (c *Client) Do(ctx context.Context, r Request) (json.RawMessage, error) {
	url, err := c.buildURL(r.Path)
	if err != nil {
		return nil, err
	}
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	header := c.header.Clone()
	for k, v := range r.Header {
		header[k] = append([]string(nil), v...)
	}

	var body io.Reader
	switch b := r.Body.(type) {
	case nil:
	case FormData:
		body = bytes.NewReader(b.Body)
		if header.Get("Content-Type") == "" && b.ContentType != "" {
			header.Set("Content-Type", b.ContentType)
		}
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("api: serializar body: %w", err)
		}
		body = bytes.NewReader(raw)
		if header.Get("Content-Type") == "" {
			header.Set("Content-Type", "application/json")
		}
	}

	if header.Get("Authorization") == "" && c.tokens != nil {
		// Sin token la petición sale anónima; el backend decide.
		if tok, err := c.tokens.AccessToken(ctx); err == nil && tok != "" {
			header.Set("Authorization", "Bearer "+tok)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("api: crear request: %w", err)
	}
	req.Header = header

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("api: %s %s cancelado: %w", method, r.Path, ctx.Err())
		}
		return nil, fmt.Errorf("api: %s %s: %w", method, r.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("api: leer respuesta: %w", err)
	}
	c.log.Debug().
		Str("method", method).
		Str("path", r.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp.StatusCode, raw)
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	return parseJSONSafe(raw), nil
}

func newAPIError(status int, raw []byte) *APIError {
	e := &APIError{Status: status, Body: parseJSONSafe(raw)}
	var msg struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if e.Body != nil {
		_ = json.Unmarshal(e.Body, &msg)
	}
	switch {
	case msg.Message != "":
		e.Message = msg.Message
	case msg.Error != "":
		e.Message = msg.Error
	default:
		e.Message = fmt.Sprintf("Error %d", status)
	}
	return e
}

func parseJSONSafe(raw []byte) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !json.Valid(raw) || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	return json.RawMessage(raw)
}
