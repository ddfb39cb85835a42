package localversion

import (
	"math"
	"strconv"
	"testing"

	contextutils "jupyterchat/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBump(t *testing.T) {
	tests := []struct {
		name string
		in   string
		opts BumpOptions
		want string
	}{
		{name: "first tag normalizes patch", in: "0.19.0a1", want: "0.19.90a1+twd1"},
		{name: "first tag keeps patch", in: "0.19.0a1", opts: BumpOptions{KeepPatch: true}, want: "0.19.0a1+twd1"},
		{name: "final release", in: "1.2.3", want: "1.2.90+twd1"},
		{name: "final release keep patch", in: "1.2.3", opts: BumpOptions{KeepPatch: true}, want: "1.2.3+twd1"},
		{name: "increments tag", in: "0.19.90a1+twd1", want: "0.19.90a1+twd2"},
		{name: "increments tag past nine", in: "0.19.0a1+twd9", want: "0.19.0a1+twd10"},
		{name: "increment ignores keep patch", in: "0.19.0rc2+twd5", opts: BumpOptions{KeepPatch: true}, want: "0.19.0rc2+twd6"},
		{name: "increment never touches patch", in: "0.19.3b1+twd5", want: "0.19.3b1+twd6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BumpPython(tt.in, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Python())
		})
	}
}

func TestBump_WithoutTagAppendsSuffix(t *testing.T) {
	for _, in := range []string{"0.0.0", "0.19.0a1", "3.1.4b1", "9.9.9rc9"} {
		got, err := BumpPython(in, BumpOptions{KeepPatch: true})
		require.NoError(t, err)
		assert.Equal(t, in+"+twd1", got.Python())
	}
}

func TestBump_DoesNotModifyReceiver(t *testing.T) {
	v := Version{Minor: 19, PreRelease: Alpha, PreReleaseNum: 1}
	next, err := v.Bump(BumpOptions{})
	require.NoError(t, err)

	assert.Equal(t, 0, v.Build)
	assert.Equal(t, 0, v.Patch)
	assert.Equal(t, 1, next.Build)
	assert.Equal(t, PatchSentinel, next.Patch)
}

func TestBump_NPMRendering(t *testing.T) {
	got, err := BumpPython("0.19.0a1", BumpOptions{})
	require.NoError(t, err)
	assert.Equal(t, "0.19.90-alpha.1+twd1", got.NPM())
}

func TestBumpPython_InvalidInput(t *testing.T) {
	_, err := BumpPython("0.19.0a1+twd1+twd2", BumpOptions{})
	assert.Error(t, err)
}

func TestBump_BuildCounterOverflow(t *testing.T) {
	in := "1.2.3+twd" + strconv.Itoa(math.MaxInt)
	v, err := ParsePython(in)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, v.Build)

	_, err = v.Bump(BumpOptions{})
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrInvalidInput))

	_, err = BumpPython(in, BumpOptions{})
	assert.True(t, contextutils.IsError(err, contextutils.ErrInvalidInput))
}
