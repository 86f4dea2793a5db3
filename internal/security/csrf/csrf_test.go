package csrf

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/mailrelay/internal/cache"
)

func TestIssueVerify(t *testing.T) {
	ctx := context.Background()
	m := NewManager(cache.NewMemory("t"), time.Minute)

	tok, err := m.Issue(ctx, "sid-1")
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	assert.NoError(t, m.Verify(ctx, "sid-1", tok))
	assert.ErrorIs(t, m.Verify(ctx, "sid-2", tok), ErrInvalidToken)
	assert.ErrorIs(t, m.Verify(ctx, "sid-1", "forged"), ErrInvalidToken)
	assert.ErrorIs(t, m.Verify(ctx, "sid-1", ""), ErrInvalidToken)

	// un token nuevo invalida el anterior
	tok2, err := m.Issue(ctx, "sid-1")
	require.NoError(t, err)
	assert.ErrorIs(t, m.Verify(ctx, "sid-1", tok), ErrInvalidToken)
	assert.NoError(t, m.Verify(ctx, "sid-1", tok2))
}

func TestVerify_Expired(t *testing.T) {
	ctx := context.Background()
	m := NewManager(cache.NewMemory(""), 20*time.Millisecond)
	tok, err := m.Issue(ctx, "sid")
	require.NoError(t, err)
	time.Sleep(40 * time.Millisecond)
	assert.ErrorIs(t, m.Verify(ctx, "sid", tok), ErrInvalidToken)
}

func TestIssue_EmptySession(t *testing.T) {
	_, err := NewManager(cache.NewMemory(""), 0).Issue(context.Background(), " ")
	assert.Error(t, err)
}
