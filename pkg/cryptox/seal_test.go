package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundTrip(t *testing.T) {
	c, err := NewCipher([]byte("key material"))
	require.NoError(t, err)

	sealed, err := c.Seal("ghu_supersecret")
	require.NoError(t, err)
	require.NotEqual(t, "ghu_supersecret", sealed)

	opened, err := c.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, "ghu_supersecret", opened)
}

func TestSealProducesFreshNonces(t *testing.T) {
	c, err := NewCipher([]byte("key material"))
	require.NoError(t, err)

	a, err := c.Seal("same plaintext")
	require.NoError(t, err)
	b, err := c.Seal("same plaintext")
	require.NoError(t, err)

	require.NotEqual(t, a, b, "each seal must use a fresh nonce")
}

func TestOpenRejectsWrongKey(t *testing.T) {
	a, err := NewCipher([]byte("key-a"))
	require.NoError(t, err)
	b, err := NewCipher([]byte("key-b"))
	require.NoError(t, err)

	sealed, err := a.Seal("secret")
	require.NoError(t, err)

	_, err = b.Open(sealed)
	require.Error(t, err)
}

func TestOpenRejectsTamperedCiphertext(t *testing.T) {
	c, err := NewCipher([]byte("key material"))
	require.NoError(t, err)

	sealed, err := c.Seal("secret")
	require.NoError(t, err)

	tampered := []byte(sealed)
	tampered[len(tampered)-1] ^= 1

	_, err = c.Open(string(tampered))
	require.Error(t, err)
}

func TestNewCipherRejectsEmptyKey(t *testing.T) {
	_, err := NewCipher(nil)
	require.Error(t, err)
}

func TestGenerateTokenLengthAndUniqueness(t *testing.T) {
	a, err := GenerateToken(TokenSize128)
	require.NoError(t, err)
	b, err := GenerateToken(TokenSize128)
	require.NoError(t, err)

	require.NotEmpty(t, a)
	require.NotEqual(t, a, b)
}
