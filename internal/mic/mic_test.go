package mic

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextModeAlwaysGranted(t *testing.T) {
	for _, mode := range []string{"", DeviceNone} {
		assert.NoError(t, New(mode).Request(context.Background()))
	}
}

func TestAutoFindsCaptureNode(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pcmC0D0p"), nil, 0o600))
	p := &Probe{Mode: DeviceAuto, Dir: dir}
	assert.ErrorIs(t, p.Request(context.Background()), ErrNoCaptureDevice, "playback only")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "pcmC0D0c"), nil, 0o600))
	assert.NoError(t, p.Request(context.Background()))
}

func TestAutoMissingDir(t *testing.T) {
	p := &Probe{Mode: DeviceAuto, Dir: filepath.Join(t.TempDir(), "snd")}
	assert.ErrorIs(t, p.Request(context.Background()), ErrNoCaptureDevice)
}

func TestUnknownModeAndCancel(t *testing.T) {
	assert.Error(t, New("bluetooth").Request(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, New(DeviceNone).Request(ctx), context.Canceled)
}
