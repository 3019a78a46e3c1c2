// Package mic answers the microphone permission preflight for terminal
// sessions.
package mic

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoCaptureDevice is returned when no capture device can be found.
var ErrNoCaptureDevice = errors.New("no audio capture device found")

// Device modes.
const (
	// DeviceNone is text mode: the user types and no device is held.
	DeviceNone = "none"
	// DeviceAuto probes for a capture device.
	DeviceAuto = "auto"
)

// Probe implements voice.Microphone.
type Probe struct {
	Mode string
	// Dir is the ALSA device directory. Defaults to /dev/snd.
	Dir string
}

// New returns a Probe for mode ("none" or "auto").
func New(mode string) *Probe {
	return &Probe{Mode: mode, Dir: "/dev/snd"}
}

// Request grants access in text mode and otherwise requires a readable
// capture device.
func (p *Probe) Request(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch p.Mode {
	case "", DeviceNone:
		return nil
	case DeviceAuto:
		return p.probe()
	default:
		return fmt.Errorf("unknown microphone mode %q", p.Mode)
	}
}

// probe looks for ALSA capture nodes, named pcmC<card>D<device>c.
func (p *Probe) probe() error {
	entries, err := os.ReadDir(p.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNoCaptureDevice
		}
		return err
	}
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "pcmC") || !strings.HasSuffix(name, "c") {
			continue
		}
		f, err := os.Open(filepath.Join(p.Dir, name))
		if err != nil {
			if errors.Is(err, os.ErrPermission) {
				return fmt.Errorf("capture device %s: %w", name, err)
			}
			continue
		}
		_ = f.Close()
		return nil
	}
	return ErrNoCaptureDevice
}
