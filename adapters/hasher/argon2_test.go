package hasher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agora-market/admission/core"
)

func TestHashAndVerify(t *testing.T) {
	h := NewArgon2()

	passwords := []string{"password123", "P@ssw0rd!#$", strings.Repeat("a", 100), ""}
	for _, password := range passwords {
		encoded, err := h.Hash(password)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$"))
		require.NoError(t, h.Verify(password, encoded))
	}
}

func TestHashUsesUniqueSalts(t *testing.T) {
	h := NewArgon2()

	first, err := h.Hash("same-password")
	require.NoError(t, err)
	second, err := h.Hash("same-password")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.NoError(t, h.Verify("same-password", first))
	require.NoError(t, h.Verify("same-password", second))
}

func TestVerifyRejects(t *testing.T) {
	h := NewArgon2()

	encoded, err := h.Hash("correct horse")
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		require.ErrorIs(t, h.Verify("battery staple", encoded), core.ErrInvalidCredentials)
	})

	t.Run("malformed digest", func(t *testing.T) {
		for _, bad := range []string{"", "plain", "$bcrypt$whatever", "$argon2id$v=19$m=1,t=1,p=1$!$!"} {
			require.ErrorIs(t, h.Verify("correct horse", bad), core.ErrInvalidCredentials)
		}
	})
}
