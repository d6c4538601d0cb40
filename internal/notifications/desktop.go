package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/beeep"
)

// beeep labels notifications through a package-level AppName.
var appNameMu sync.Mutex

type notifyFunc func(title, message string, icon any) error

// Desktop shows alerts on the local desktop notification service.
type Desktop struct {
	appName string
	notify  notifyFunc
}

// NewDesktop returns a notifier that labels alerts with appName.
func NewDesktop(appName string) *Desktop {
	return &Desktop{appName: appName, notify: beeep.Notify}
}

// Notify delivers one alert. The display timeout is left to the desktop
// notification server; ctx bounds how long delivery may block.
func (d *Desktop) Notify(ctx context.Context, title, message string, _ time.Duration) error {
	done := make(chan error, 1)
	go func() {
		appNameMu.Lock()
		defer appNameMu.Unlock()
		if d.appName != "" {
			beeep.AppName = d.appName
		}
		done <- d.notify(title, message, "")
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("desktop notify: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("desktop notify: %w", ctx.Err())
	}
}
