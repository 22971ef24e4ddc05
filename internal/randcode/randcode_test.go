package randcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode(t *testing.T) {
	code, err := Code(0)
	require.NoError(t, err)
	assert.Len(t, code, 6)

	code, err = Code(10)
	require.NoError(t, err)
	assert.Len(t, code, 10)
	for _, r := range code {
		assert.True(t, strings.ContainsRune(CodeAlphabet, r), "unexpected rune %q", r)
	}
}

func TestPassword(t *testing.T) {
	pw, err := Password(4)
	require.NoError(t, err)
	assert.Len(t, pw, 12)

	a, _ := Password(16)
	b, _ := Password(16)
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
}
