// AngelaMos | 2026
// security_test.go

package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cheapParams = Argon2Params{Memory: 1024, Time: 1, Threads: 1, KeyLen: 32, SaltLen: 16}

func withParams(t *testing.T, p Argon2Params) {
	t.Helper()
	prev := currentParams()
	SetPasswordParams(p)
	t.Cleanup(func() { SetPasswordParams(prev) })
}

func TestHashAndVerifyPassword(t *testing.T) {
	withParams(t, cheapParams)

	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	other, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other)

	ok, err := VerifyPassword("hunter22", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("hunter23", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	for _, h := range []string{"", "plain", "$bcrypt$v=19$m=1,t=1,p=1$a$b", "$argon2id$v=1$m=1,t=1,p=1$a$b"} {
		_, err := VerifyPassword("x", h)
		assert.ErrorIs(t, err, ErrMalformedHash, h)
	}
}

func TestRehashOnParamChange(t *testing.T) {
	withParams(t, cheapParams)

	hash, err := HashPassword("hunter22")
	require.NoError(t, err)

	ok, upgraded, err := VerifyPasswordWithRehash("hunter22", hash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, upgraded)

	stronger := cheapParams
	stronger.Time = 2
	SetPasswordParams(stronger)

	ok, upgraded, err = VerifyPasswordWithRehash("hunter22", hash)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotEmpty(t, upgraded)
	assert.Contains(t, upgraded, "t=2")

	ok, upgraded, err = VerifyPasswordWithRehash("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, upgraded)
}

func TestVerifyPasswordTimingSafe(t *testing.T) {
	withParams(t, cheapParams)

	ok, _, err := VerifyPasswordTimingSafe("anything", nil)
	require.NoError(t, err)
	assert.False(t, ok)

	empty := ""
	ok, _, err = VerifyPasswordTimingSafe("anything", &empty)
	require.NoError(t, err)
	assert.False(t, ok)

	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	ok, _, err = VerifyPasswordTimingSafe("hunter22", &hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRefreshTokenHashing(t *testing.T) {
	a, err := GenerateRefreshToken()
	require.NoError(t, err)
	b, err := GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	assert.Len(t, HashToken(a), 64)
	assert.Equal(t, HashToken(a), HashToken(a))
	assert.NotEqual(t, HashToken(a), HashToken(b))
}
