package walletclient

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evmbridge/sdk-go/core/boundary"
)

func TestRefTracker(t *testing.T) {
	ctx := context.Background()
	reg := boundary.NewRegistry()
	tracker := &refTracker{registry: reg}

	c, _ := newMockClient(t, nil)
	other := boundary.NewObjectRef(c)

	for i := 0; i < 5; i++ {
		require.NoError(t, tracker.track([]any{`{"to":"0x01"}`, c.ref}))
	}
	require.NoError(t, tracker.track([]any{other, nil}))
	assert.Len(t, tracker.refs, 2)

	_, err := reg.ResolveRef(ctx, c.ref.ID())
	require.NoError(t, err)

	tracker.release()
	tracker.release()
	_, err = reg.ResolveRef(ctx, c.ref.ID())
	assert.True(t, errors.Is(err, boundary.ErrRefNotFound))
	_, err = reg.ResolveRef(ctx, other.ID())
	assert.True(t, errors.Is(err, boundary.ErrRefNotFound))

	err = tracker.track([]any{c.ref})
	assert.True(t, errors.Is(err, ErrClosed))
}
