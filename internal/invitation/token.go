package invitation

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// GenerateToken creates an invitation token with the "cwinv_" prefix
// followed by 32 URL-safe random characters. Tokens are stored as-is and
// carried in redemption links as a query parameter.
func GenerateToken() (string, error) {
	b := make([]byte, 24) // 24 bytes -> 32 base64url chars
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating random bytes: %w", err)
	}
	return "cwinv_" + base64.RawURLEncoding.EncodeToString(b), nil
}
