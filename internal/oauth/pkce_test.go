package oauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCodeChallenge(t *testing.T) {
	// Known vector from RFC 7636 Appendix B.
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	want := "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"

	assert.Equal(t, want, GenerateCodeChallenge(verifier))
}

func TestValidateCodeChallenge(t *testing.T) {
	verifier := "some-random-verifier-string-that-is-long-enough"
	challenge := GenerateCodeChallenge(verifier)

	tests := []struct {
		name      string
		verifier  string
		challenge string
		method    string
		want      bool
	}{
		{"valid S256", verifier, challenge, "S256", true},
		{"valid with empty method defaults to S256", verifier, challenge, "", true},
		{"wrong verifier", "other-verifier", challenge, "S256", false},
		{"plain is rejected", challenge, challenge, "plain", false},
		{"unknown method fails closed", verifier, challenge, "S512", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateCodeChallenge(tt.verifier, tt.challenge, tt.method))
		})
	}
}

func TestGeneratedTokensAreUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		code, err := GenerateAuthorizationCode()
		require.NoError(t, err)
		token, err := GenerateAccessToken()
		require.NoError(t, err)

		for _, v := range []string{code, token} {
			_, dup := seen[v]
			require.False(t, dup)
			seen[v] = struct{}{}
		}

		// 32 bytes base64url-encoded without padding.
		assert.Len(t, code, 43)
		assert.Len(t, token, 43)
	}
}
