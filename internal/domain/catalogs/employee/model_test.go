package employee

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillbook/internal/core/apperror"
)

func TestSetPIN(t *testing.T) {
	e := NewEmployee("EMP-001", "Dewi Lestari", RoleCashier)

	require.NoError(t, e.SetPIN("1234"))
	assert.NotEqual(t, "1234", e.PINHash, "only the hash is stored")
	assert.True(t, e.CheckPIN("1234"))
	assert.False(t, e.CheckPIN("4321"))

	for _, pin := range []string{"", "123", "123456789", "12a4"} {
		err := e.SetPIN(pin)
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation), "pin %q", pin)
	}
}

func TestCheckPIN_NoHashNeverMatches(t *testing.T) {
	e := NewEmployee("EMP-001", "Dewi Lestari", RoleCashier)
	assert.False(t, e.CheckPIN(""))
	assert.False(t, e.CheckPIN("1234"))
}

func TestValidate_Role(t *testing.T) {
	ctx := context.Background()

	for _, role := range []Role{RoleCashier, RoleManager, RoleAdmin} {
		assert.NoError(t, NewEmployee("EMP-001", "Dewi Lestari", role).Validate(ctx))
	}

	bad := NewEmployee("EMP-001", "Dewi Lestari", Role("superuser"))
	assert.True(t, apperror.IsCode(bad.Validate(ctx), apperror.CodeValidation))
}
