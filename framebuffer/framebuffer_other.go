//go:build !linux

package framebuffer

import "github.com/BeatGlow/panel"

// Open is not supported on this platform.
func Open(_ string, _ *panel.Config) (panel.Display, error) {
	return nil, ErrNotSupported
}
