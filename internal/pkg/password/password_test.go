package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("Secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123", hash)
	assert.True(t, Verify("Secret123", hash))
	assert.False(t, Verify("secret123", hash))
}

func TestHashToken(t *testing.T) {
	assert.Len(t, HashToken("abc"), 64)
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
}

func TestValidatePassword(t *testing.T) {
	assert.False(t, ValidatePassword("short"))
	assert.True(t, ValidatePassword("12345678"))
	// eight Arabic letters are sixteen bytes but eight characters
	assert.True(t, ValidatePassword("كلمةسرية"))
	assert.False(t, ValidatePassword("كلمة"))
}
