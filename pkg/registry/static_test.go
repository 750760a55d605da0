package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticRegistry_ReturnsConfiguredState(t *testing.T) {
	r := NewStaticRegistry(1050, map[string]uint64{"aa": 100}, map[string]uint64{"bb": 200})
	ctx := context.Background()

	block, err := r.CurrentBlockNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1050), block)

	mre, err := r.MrenclaveRegistry(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), mre["aa"])

	r.SetBlock(2000)
	block, err = r.CurrentBlockNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2000), block)
}

func TestStaticRegistry_MapsAreCopiesNotAliases(t *testing.T) {
	r := NewStaticRegistry(0, map[string]uint64{"aa": 1}, nil)
	out, err := r.MrenclaveRegistry(context.Background())
	require.NoError(t, err)
	out["aa"] = 999

	out2, err := r.MrenclaveRegistry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), out2["aa"])
}
