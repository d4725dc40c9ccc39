package utils_test

import (
	"testing"

	"github.com/pedalcraft/commerce-backend/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestValidatePasswordStrength(t *testing.T) {
	require.Error(t, utils.ValidatePasswordStrength("short1"))
	require.Error(t, utils.ValidatePasswordStrength("lettersonly"))
	require.Error(t, utils.ValidatePasswordStrength("12345678"))
	require.NoError(t, utils.ValidatePasswordStrength("letters4nd1"))
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := utils.HashPassword("correct horse 1")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse 1", hash)

	require.NoError(t, utils.CheckPassword(hash, "correct horse 1"))
	require.ErrorIs(t, utils.CheckPassword(hash, "wrong horse 1"), utils.ErrPasswordHashMismatch)
}
