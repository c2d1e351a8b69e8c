//go:build linux

package loadswitch

import (
	"fmt"
	"log"

	"github.com/warthog618/go-gpiocdev"
)

// GPIO drives a load-switch line through the Linux GPIO character device.
type GPIO struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewGPIO requests the given line on the given chip as an output, initially
// low (load off).
func NewGPIO(chipName string, offset int) (*GPIO, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	line, err := chip.RequestLine(offset, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request load switch line %d: %w", offset, err)
	}

	return &GPIO{chip: chip, line: line}, nil
}

// SetOutputEnabled drives the line. Errors are logged rather than returned:
// the caller is inside the simulation tick and has no recovery path anyway.
func (g *GPIO) SetOutputEnabled(enabled bool) {
	value := 0
	if enabled {
		value = 1
	}
	if err := g.line.SetValue(value); err != nil {
		log.Printf("Load switch: failed to set line: %v\n", err)
	}
}

// Close drives the line low and releases GPIO resources.
func (g *GPIO) Close() error {
	var errs []error

	if g.line != nil {
		if err := g.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("lower load switch line: %w", err))
		}
		if err := g.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close load switch line: %w", err))
		}
	}
	if g.chip != nil {
		if err := g.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
