// Package clipboard copies text to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

// ErrUnavailable is returned when the platform has no clipboard utility.
var ErrUnavailable = errors.New("no clipboard utility available")

// Copier writes text to the clipboard.
type Copier struct {
	unsupported func() bool
	write       func(text string) error
}

// New returns a Copier backed by the platform clipboard.
func New() *Copier {
	return &Copier{
		unsupported: func() bool { return clipboard.Unsupported },
		write:       clipboard.WriteAll,
	}
}

// Available reports whether Copy can reach a clipboard utility.
func (c *Copier) Available() bool {
	return !c.unsupported()
}

// Copy places text on the clipboard.
func (c *Copier) Copy(text string) error {
	if c.unsupported() {
		return ErrUnavailable
	}
	if err := c.write(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}
