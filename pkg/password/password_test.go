package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	first, err := h.Hash("longenough1")
	require.NoError(t, err)
	second, err := h.Hash("longenough1")
	require.NoError(t, err)

	assert.NotEqual(t, "longenough1", first)
	assert.NotEqual(t, first, second, "salt must make hashes differ")
	assert.True(t, h.Verify("longenough1", first))
	assert.True(t, h.Verify("longenough1", second))
	assert.False(t, h.Verify("wrongpass", first))
}

func TestHasher_VerifyGarbageHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	assert.False(t, h.Verify("anything", "not-a-bcrypt-hash"))
	assert.False(t, h.Verify("anything", ""))
}

func TestNewHasher_InvalidCostFallsBack(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(bcrypt.MaxCost+1).cost)
	assert.Equal(t, bcrypt.MinCost, NewHasher(bcrypt.MinCost).cost)
}

func TestHasher_TooLongPassword(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	_, err := h.Hash(strings.Repeat("a", MaxLength+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	// 72 字节的多字节字符串仍然可以哈希
	exact := strings.Repeat("я", MaxLength/2)
	hash, err := h.Hash(exact)
	require.NoError(t, err)
	assert.True(t, h.Verify(exact, hash))
}
