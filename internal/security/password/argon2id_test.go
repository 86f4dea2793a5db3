package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// params livianos para que el test no tarde
var fast = Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}

func TestHashVerify(t *testing.T) {
	phc, err := Hash(fast, "correct horse")
	require.NoError(t, err)
	assert.Contains(t, phc, "$argon2id$v=19$m=8192,t=1,p=1$")

	assert.True(t, Verify("correct horse", phc))
	assert.False(t, Verify("wrong horse", phc))
}

func TestHash_Empty(t *testing.T) {
	_, err := Hash(fast, "")
	require.ErrorIs(t, err, ErrEmptyPassword)
}

func TestVerify_Malformed(t *testing.T) {
	for _, phc := range []string{"", "plain", "$bcrypt$x$y$z$w", "$argon2id$v=19$m=1,t=1,p=1$!!$!!"} {
		assert.False(t, Verify("x", phc), phc)
	}
}
