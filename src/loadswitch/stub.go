//go:build !linux

package loadswitch

import "errors"

// GPIO is not available on non-Linux platforms.
type GPIO struct{}

// NewGPIO returns an error on non-Linux platforms.
func NewGPIO(chipName string, offset int) (*GPIO, error) {
	return nil, errors.New("loadswitch: gpio not supported on this platform (requires Linux)")
}

// SetOutputEnabled does nothing on non-Linux platforms.
func (g *GPIO) SetOutputEnabled(enabled bool) {}

// Close does nothing on non-Linux platforms.
func (g *GPIO) Close() error {
	return nil
}
