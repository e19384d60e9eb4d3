package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "marketplace/internal/errors"
)

func TestHashPassword_Salted(t *testing.T) {
	first, err := HashPassword("password123")
	require.NoError(t, err)
	second, err := HashPassword("password123")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NotEqual(t, "password123", first)
	assert.True(t, VerifyPassword("password123", first))
	assert.True(t, VerifyPassword("password123", second))
}

func TestVerifyPassword_Mismatch(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)

	assert.False(t, VerifyPassword("password124", hash))
	assert.False(t, VerifyPassword("password123", "not-a-hash"))
}

func TestHashPassword_Length(t *testing.T) {
	hash, err := HashPassword(strings.Repeat("x", 72))
	require.NoError(t, err)
	assert.True(t, VerifyPassword(strings.Repeat("x", 72), hash))

	_, err = HashPassword(strings.Repeat("x", 80))
	assert.ErrorIs(t, err, apperrors.ErrPasswordTooLong)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	// four bytes per rune, so 20 runes is 80 bytes
	_, err = HashPassword(strings.Repeat("😀", 20))
	assert.ErrorIs(t, err, apperrors.ErrPasswordTooLong)
}
