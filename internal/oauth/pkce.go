package oauth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// GenerateCodeChallenge computes the S256 challenge for a verifier:
// code_challenge = BASE64URL(SHA256(ASCII(code_verifier))), unpadded
// per RFC 7636.
func GenerateCodeChallenge(verifier string) string {
	h := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(h[:])
}

// ValidateCodeChallenge checks that the verifier matches the stored
// challenge. Only the S256 method is accepted; "plain" violates OAuth 2.1
// and any unknown method fails closed.
func ValidateCodeChallenge(verifier, challenge, method string) bool {
	switch method {
	case "S256", "":
		return GenerateCodeChallenge(verifier) == challenge
	default:
		return false
	}
}

// GenerateAuthorizationCode generates a random authorization code.
func GenerateAuthorizationCode() (string, error) {
	return randomToken(authorizationCodeBytes)
}

// GenerateAccessToken generates a random access token.
func GenerateAccessToken() (string, error) {
	return randomToken(accessTokenBytes)
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
