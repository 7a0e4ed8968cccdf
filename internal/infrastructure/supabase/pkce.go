package supabase

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"

	"github.com/google/uuid"
)

// newVerifier code_verifier de 64 caracteres hexadecimales (dentro del alfabeto no reservado de RFC 7636).
func newVerifier() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

// challenge S256: base64url sin relleno del SHA-256 del verificador.
func challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
