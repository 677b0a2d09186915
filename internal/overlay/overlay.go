package overlay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Display shows status and result text to the user. Every call replaces
// whatever was shown before.
type Display interface {
	Show(ctx context.Context, text string) error
}

type DisplayFunc func(ctx context.Context, text string) error

func (f DisplayFunc) Show(ctx context.Context, text string) error {
	return f(ctx, text)
}

// Writer prints every shown text as its own line.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) Show(_ context.Context, text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := fmt.Fprintln(w.w, text); err != nil {
		return fmt.Errorf("write text: %w", err)
	}

	return nil
}

type multi []Display

// Multi shows the text on every display, even when some of them fail.
func Multi(displays ...Display) Display {
	return multi(displays)
}

func (m multi) Show(ctx context.Context, text string) error {
	var errs []error
	for _, d := range m {
		if err := d.Show(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
