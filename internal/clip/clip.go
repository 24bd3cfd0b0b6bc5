// Package clip provides text writing to the system clipboard.
package clip

import (
	"fmt"
	"sync"

	"golang.design/x/clipboard"

	appLog "weekslot/internal/log"
)

var (
	initOnce sync.Once
	initErr  error
)

// Init initializes the clipboard. Safe to call multiple times; later calls
// return the first result.
func Init() error {
	initOnce.Do(func() {
		if err := clipboard.Init(); err != nil {
			appLog.Error("clip: failed to initialize clipboard", err)
			initErr = fmt.Errorf("clip: init: %w", err)
		}
	})
	return initErr
}

// WriteText copies text to the system clipboard.
func WriteText(text string) error {
	if err := Init(); err != nil {
		return err
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	appLog.Debug("clip: copied text", "bytes", len(text))
	return nil
}
