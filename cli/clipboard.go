package cli

import (
	"fmt"
	"time"

	"github.com/atotto/clipboard"
)

// Clipboard is the system clipboard, replaced by a fake in tests.
type Clipboard interface {
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// copySecret puts secret on the clipboard and, when d is positive, blocks
// until it is cleared: either after d or by ClearClipboard.
func (app *App) copySecret(secret string, d time.Duration) error {
	if err := app.Clipboard.WriteAll(secret); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	if d <= 0 {
		fmt.Fprintln(app.Out, "Password copied to clipboard.")
		return nil
	}

	cleared := make(chan struct{})
	app.clipMu.Lock()
	app.clipCleared = cleared
	app.clipMu.Unlock()

	fmt.Fprintf(app.Out, "Password copied to clipboard. Clearing in %s...\n", d)
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return app.ClearClipboard()
	case <-cleared:
		return nil
	}
}

// ClearClipboard empties the clipboard if a copied password is still pending.
// It is safe to call from a signal handler goroutine.
func (app *App) ClearClipboard() error {
	app.clipMu.Lock()
	defer app.clipMu.Unlock()
	if app.clipCleared == nil {
		return nil
	}
	close(app.clipCleared)
	app.clipCleared = nil
	if err := app.Clipboard.WriteAll(""); err != nil {
		return fmt.Errorf("clear clipboard: %w", err)
	}
	return nil
}
