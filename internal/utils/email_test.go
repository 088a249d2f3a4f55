package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPart(t *testing.T) {
	assert.Equal(t, "alice", LocalPart("alice"))
	assert.Equal(t, "alice", LocalPart("Alice@example.com"))
	assert.Equal(t, "alice", LocalPart("  ALICE@evil.com  "))
	assert.Equal(t, "alice.smith", LocalPart("alice.smith@a@b"))
	assert.Equal(t, "", LocalPart("@example.com"))
	assert.Equal(t, "", LocalPart(""))
}

func TestNormalizeDomainName(t *testing.T) {
	name, err := NormalizeDomainName("Example.COM.")
	require.NoError(t, err)
	assert.Equal(t, "example.com", name)

	name, err = NormalizeDomainName("  MÜNCHEN.de ")
	require.NoError(t, err)
	assert.Equal(t, "xn--mnchen-3ya.de", name)

	_, err = NormalizeDomainName("exa mple.com")
	assert.Error(t, err)
}

func TestGenerateNanoIDWithPrefix(t *testing.T) {
	id := GenerateNanoIDWithPrefix("dom", 16)
	assert.Regexp(t, "^dom_[a-z0-9]{16}$", id)
	assert.NotEqual(t, id, GenerateNanoIDWithPrefix("dom", 16))
}
