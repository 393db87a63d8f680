package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hashed, err := Hash("secret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "secret-pass", hashed)

	assert.True(t, Verify("secret-pass", hashed))
	assert.False(t, Verify("wrong-pass", hashed))
}

func TestHashToken(t *testing.T) {
	a := HashToken("some-token")
	b := HashToken("some-token")
	c := HashToken("other-token")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64) // sha256 hex
}
