package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	ti, err := NewTokenIssuer("", time.Hour)
	require.NoError(t, err)

	token, err := ti.Generate("admin", true)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."), "JWT из трёх частей")

	claims, err := ti.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, Issuer, claims.Issuer)
}

func TestValidateRejectsForeignAndBroken(t *testing.T) {
	a, err := NewTokenIssuer(GenerateSecureSecret(), time.Hour)
	require.NoError(t, err)
	b, err := NewTokenIssuer(GenerateSecureSecret(), time.Hour)
	require.NoError(t, err)

	token, err := a.Generate("op", false)
	require.NoError(t, err)

	_, err = b.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "Чужая подпись")
	_, err = a.Validate("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredToken(t *testing.T) {
	ti, err := NewTokenIssuer("", time.Nanosecond)
	require.NoError(t, err)
	token, err := ti.Generate("op", false)
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)
	_, err = ti.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuerSecretValidation(t *testing.T) {
	_, err := NewTokenIssuer("***", time.Hour)
	assert.Error(t, err)
	_, err = NewTokenIssuer("c2hvcnQ=", time.Hour)
	assert.Error(t, err, "Короткий секрет")
}

func TestOperators(t *testing.T) {
	ops := NewOperators()
	require.NoError(t, ops.Add("Admin", "secret", true))
	assert.ErrorIs(t, ops.Add("admin", "other", false), ErrUserExists)
	assert.Error(t, ops.Add("  ", "x", false))
	assert.Equal(t, 1, ops.Len())

	op, err := ops.Authenticate("ADMIN", "secret")
	require.NoError(t, err)
	assert.True(t, op.IsAdmin)

	_, err = ops.Authenticate("admin", "wrong")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = ops.Authenticate("nobody", "secret")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
