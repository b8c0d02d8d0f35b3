package deck

import (
	"fmt"

	"github.com/muesli/streamdeck"
	"github.com/sirupsen/logrus"

	"github.com/jose-valero/tourneydeck/internal/ui"
)

// Hardware drives a physical Stream Deck. Present diffs against the
// previous frame so stable keys never repaint; the device's USB
// throughput is the bottleneck, not the raster.
type Hardware struct {
	dev  streamdeck.Device
	keys chan KeyEvent

	last    ui.Frame
	painted bool

	log *logrus.Entry
}

// Open claims the first connected deck. This is the one startup error
// worth dying for: without a device there is nothing to operate.
func Open(log *logrus.Logger) (*Hardware, error) {
	devs, err := streamdeck.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerate stream decks: %w", err)
	}
	if len(devs) == 0 {
		return nil, fmt.Errorf("no stream deck connected")
	}

	dev := devs[0]
	if err := dev.Open(); err != nil {
		return nil, fmt.Errorf("open stream deck: %w", err)
	}

	entry := log.WithFields(logrus.Fields{
		"component": "deck",
		"serial":    dev.Serial,
		"keys":      dev.Keys,
	})
	entry.Info("stream deck opened")

	h := &Hardware{
		dev:  dev,
		keys: make(chan KeyEvent, 16),
		log:  entry,
	}

	raw, err := dev.ReadKeys()
	if err != nil {
		dev.Close()
		return nil, fmt.Errorf("read stream deck keys: %w", err)
	}
	go h.translate(raw)

	if err := dev.Clear(); err != nil {
		entry.WithError(err).Warn("clear on open failed")
	}
	return h, nil
}

// translate narrows the driver's key stream to our event type. Closes
// the outbound channel when the device goes away, which ends the app's
// input loop.
func (h *Hardware) translate(raw chan streamdeck.Key) {
	for k := range raw {
		h.keys <- KeyEvent{Index: int(k.Index), Pressed: k.Pressed}
	}
	h.log.Warn("stream deck key stream closed")
	close(h.keys)
}

func (h *Hardware) Keys() <-chan KeyEvent {
	return h.keys
}

// Present paints the keys that changed since the last frame.
func (h *Hardware) Present(f ui.Frame) {
	size := int(h.dev.Pixels)
	n := int(h.dev.Keys)
	if n > ui.NumKeys {
		n = ui.NumKeys
	}

	for i := 0; i < n; i++ {
		if h.painted && f[i] == h.last[i] {
			continue
		}
		img := paintKey(size, f[i])
		if err := h.dev.SetImage(uint8(i), img); err != nil {
			h.log.WithError(err).WithField("key", i).Warn("set key image failed")
		}
	}
	h.last = f
	h.painted = true
}

func (h *Hardware) SetBrightness(pct int) error {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return h.dev.SetBrightness(uint8(pct))
}

// Close blanks the surface and releases the device.
func (h *Hardware) Close() error {
	if err := h.dev.Clear(); err != nil {
		h.log.WithError(err).Warn("clear on close failed")
	}
	return h.dev.Close()
}
