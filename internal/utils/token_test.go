package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAuthToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := NewAuthToken()
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(tok, TokenPrefix))
		assert.Len(t, tok, len(TokenPrefix)+2*tokenBytes)
		assert.False(t, seen[tok])
		seen[tok] = true
	}
}

func TestHashToken(t *testing.T) {
	assert.Equal(t, HashToken("token_abc"), HashToken("token_abc"))
	assert.NotEqual(t, HashToken("token_abc"), HashToken("token_abd"))
	assert.Len(t, HashToken("x"), 64)
}

func TestParseAuthorization(t *testing.T) {
	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"token_abc", "token_abc", true},
		{"Token token_abc", "token_abc", true},
		{"token token_abc", "token_abc", true},
		{"Bearer token_abc", "token_abc", true},
		{"", "", false},
		{"Token", "Token", true}, // a bare value that happens to read "Token"
		{"Token ", "", false},
		{"Token  token_abc", "", false},
		{"Basic token_abc", "", false},
		{"Token token_abc extra", "", false},
		{"Token\ttoken_abc", "", false},
	}
	for _, c := range cases {
		got, ok := ParseAuthorization(c.header)
		assert.Equal(t, c.ok, ok, "header %q", c.header)
		if c.ok {
			assert.Equal(t, c.token, got, "header %q", c.header)
		}
	}
}
