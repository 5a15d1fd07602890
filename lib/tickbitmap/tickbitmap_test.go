package tickbitmap_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tricorn-fi/clmm-engine/lib/tickbitmap"
)

func TestFlipTickTogglesInitialized(t *testing.T) {
	b := tickbitmap.New()
	require.False(t, b.IsInitialized(60, 60))
	b.FlipTick(60, 60)
	require.True(t, b.IsInitialized(60, 60))
	b.FlipTick(60, 60)
	require.False(t, b.IsInitialized(60, 60))
}

func TestFlipTickNegativeTick(t *testing.T) {
	b := tickbitmap.New()
	b.FlipTick(-60, 60)
	require.True(t, b.IsInitialized(-60, 60))
	require.False(t, b.IsInitialized(-120, 60))
}

func TestNextInitializedTickWithinOneWordLte(t *testing.T) {
	b := tickbitmap.New()
	b.FlipTick(-60, 60)
	b.FlipTick(0, 60)
	b.FlipTick(60, 60)

	next, init := b.NextInitializedTickWithinOneWord(60, 60, true)
	require.True(t, init)
	require.Equal(t, int32(60), next)

	next, init = b.NextInitializedTickWithinOneWord(59, 60, true)
	require.True(t, init)
	require.Equal(t, int32(0), next)
}

func TestNextInitializedTickWithinOneWordGt(t *testing.T) {
	b := tickbitmap.New()
	b.FlipTick(-60, 60)
	b.FlipTick(0, 60)
	b.FlipTick(60, 60)

	next, init := b.NextInitializedTickWithinOneWord(-60, 60, false)
	require.True(t, init)
	require.Equal(t, int32(0), next)
}

func TestNextInitializedTickWithinOneWordEmptyWordReturnsBoundary(t *testing.T) {
	b := tickbitmap.New()
	next, init := b.NextInitializedTickWithinOneWord(0, 60, true)
	require.False(t, init)
	require.Equal(t, int32(0), next)

	next, init = b.NextInitializedTickWithinOneWord(0, 60, false)
	require.False(t, init)
	require.Equal(t, int32(255*60), next)
}

func TestCloneIsIndependent(t *testing.T) {
	b := tickbitmap.New()
	b.FlipTick(60, 60)
	clone := b.Clone()
	clone.FlipTick(120, 60)

	require.False(t, b.IsInitialized(120, 60))
	require.True(t, clone.IsInitialized(120, 60))
}
