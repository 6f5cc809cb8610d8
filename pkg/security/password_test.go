package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propscout/propscout-backend/pkg/config"
)

var cheapCost = config.PasswordConfig{
	ArgonMemoryKB:    8 * 1024,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func TestHashAndVerify(t *testing.T) {
	hash, err := HashPassword("correct horse battery", cheapCost)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$"), hash)

	ok, err := VerifyPassword("correct horse battery", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("correct horse battery!", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashesAreSalted(t *testing.T) {
	a, err := HashPassword("same-password", cheapCost)
	require.NoError(t, err)
	b, err := HashPassword("same-password", cheapCost)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyUsesEmbeddedCost(t *testing.T) {
	hash, err := HashPassword("rotate-my-cost", cheapCost)
	require.NoError(t, err)

	// A later config change must not break existing hashes.
	ok, err := VerifyPassword("rotate-my-cost", hash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint32(8*1024), costFrom(cheapCost).memory)
	assert.Equal(t, uint32(64*1024), costFrom(config.PasswordConfig{ArgonMemoryKB: 64 * 1024}).memory)
}

func TestVerifyRejectsMalformed(t *testing.T) {
	for _, bad := range []string{
		"",
		"not-a-hash",
		"$bcrypt$v=19$m=8,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=18$m=8,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=8,t=1,p=1$$a2V5",
		"$argon2id$v=19$m=8,t=1,p=1$c2FsdA$!!",
	} {
		_, err := VerifyPassword("whatever", bad)
		assert.ErrorIs(t, err, ErrInvalidHash, bad)
	}
}

func TestHashRejectsShortPassword(t *testing.T) {
	_, err := HashPassword("short", cheapCost)
	assert.Error(t, err)
}

func TestCostBounds(t *testing.T) {
	c := costFrom(config.PasswordConfig{})
	assert.Equal(t, uint32(8), c.memory)
	assert.Equal(t, uint32(1), c.passes)
	assert.Equal(t, uint8(1), c.lanes)
	assert.Equal(t, 8, c.saltLen)
	assert.Equal(t, uint32(16), c.keyLen)
}
