package hashing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodeHash_KnownVector(t *testing.T) {
	// SHA-256("hello world")
	require.Equal(t,
		"b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
		CodeHash([]byte("hello world")))
}

func TestCodeHash_EmptyInput(t *testing.T) {
	require.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		CodeHash(nil))
	require.Equal(t, CodeHash(nil), CodeHash([]byte{}))
}

func TestCodeHash_SensitiveToWhitespace(t *testing.T) {
	a := CodeHash([]byte("const x = 1;\n"))
	b := CodeHash([]byte("const x = 1;\r\n"))
	require.NotEqual(t, a, b)
	require.Len(t, a, 64)
}
