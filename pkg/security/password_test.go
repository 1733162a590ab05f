package security_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/gamestore-backend/pkg/config"
	"github.com/angelmondragon/gamestore-backend/pkg/security"
)

// cheap keeps argon2 fast enough for unit tests.
var cheap = config.PasswordConfig{ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := security.HashPassword("correct horse battery", cheap)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$"), hash)

	ok, err := security.VerifyPassword("correct horse battery", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = security.VerifyPassword("correct horse stapler", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHashPasswordSaltsEachCall(t *testing.T) {
	a, err := security.HashPassword("same-password", cheap)
	require.NoError(t, err)
	b, err := security.HashPassword("same-password", cheap)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	_, err := security.HashPassword("", cheap)
	require.Error(t, err)
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	valid, err := security.HashPassword("pw", cheap)
	require.NoError(t, err)
	parts := strings.Split(valid, "$")

	for name, encoded := range map[string]string{
		"not phc":       "not-a-hash",
		"bcrypt":        "$2a$10$abcdefghijklmnopqrstuuJ7h8o0T0b8o9S1VbJ0bq8r3mY6Q1i2",
		"wrong version": strings.Replace(valid, "v=19", "v=16", 1),
		"bad params":    strings.Join(append(parts[:3:3], "m=x,t=1,p=1", parts[4], parts[5]), "$"),
		"bad salt":      strings.Join(append(parts[:4:4], "!!", parts[5]), "$"),
		"empty key":     strings.Join(append(parts[:5:5], ""), "$"),
	} {
		_, err := security.VerifyPassword("pw", encoded)
		require.ErrorIs(t, err, security.ErrInvalidHash, name)
	}
}

func TestNeedsRehash(t *testing.T) {
	stronger := cheap
	stronger.ArgonTime = 2

	hash, err := security.HashPassword("pw", cheap)
	require.NoError(t, err)

	require.False(t, security.NeedsRehash(hash, cheap))
	require.True(t, security.NeedsRehash(hash, stronger))
	require.True(t, security.NeedsRehash("garbage", cheap))
}

func TestOutOfRangeCostsAreClamped(t *testing.T) {
	hash, err := security.HashPassword("pw", config.PasswordConfig{})
	require.NoError(t, err)
	require.Contains(t, hash, "$m=8,t=1,p=1$")

	ok, err := security.VerifyPassword("pw", hash)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestBurnVerifyDoesNotPanic(t *testing.T) {
	require.NotPanics(t, func() { security.BurnVerify("whatever", cheap) })
}
