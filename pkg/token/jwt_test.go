package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify(t *testing.T) {
	m := NewJWTManager("secret", 1)

	jwt, err := m.Generate("kim@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, jwt)

	email, err := m.Verify(jwt)
	require.NoError(t, err)
	assert.Equal(t, "kim@example.com", email)
}

func TestVerifyWrongSecret(t *testing.T) {
	m := NewJWTManager("secret", 1)
	jwt, err := m.Generate("kim@example.com")
	require.NoError(t, err)

	other := NewJWTManager("not-the-secret", 1)
	_, err = other.Verify(jwt)
	assert.Error(t, err)
}

func TestVerifyExpired(t *testing.T) {
	m := NewJWTManager("secret", -1)
	jwt, err := m.Generate("kim@example.com")
	require.NoError(t, err)

	_, err = m.Verify(jwt)
	assert.Error(t, err)
}

func TestVerifyGarbage(t *testing.T) {
	m := NewJWTManager("secret", 1)
	_, err := m.Verify("not.a.token")
	assert.Error(t, err)
}
