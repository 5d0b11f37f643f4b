package password_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"lodge/shared/password"
)

func TestHashAndVerify(t *testing.T) {
	hashed, err := password.Hash("front-desk")
	require.NoError(t, err)

	assert.NoError(t, password.Verify("front-desk", hashed))
	assert.ErrorIs(t, password.Verify("back-desk", hashed), password.ErrInvalidPassword)
	assert.ErrorIs(t, password.Verify("", hashed), password.ErrInvalidPassword)

	_, err = password.Hash("")
	assert.Error(t, err)
}

func TestNeedsRehash(t *testing.T) {
	current, err := password.Hash("front-desk")
	require.NoError(t, err)

	cheap, err := bcrypt.GenerateFromPassword([]byte("front-desk"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.False(t, password.NeedsRehash(current))
	assert.True(t, password.NeedsRehash(string(cheap)))
	assert.True(t, password.NeedsRehash("not-a-hash"))
}
