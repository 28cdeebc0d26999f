// Package popup opens, positions, and tracks the lifetime of the Guahh
// authentication window.
package popup

import (
	"errors"
	"time"
)

// Popup dimensions and identity are fixed; reopening under the same name
// lets launchers that support window naming reuse the existing window.
const (
	Width      = 500
	Height     = 650
	WindowName = "guahh_login"

	// DefaultPollInterval is how often the watcher checks a window that
	// cannot push a closed signal.
	DefaultPollInterval = 500 * time.Millisecond
)

// ErrBlocked reports that the launcher refused to open the popup. It is
// surfaced to the user once and never retried automatically.
var ErrBlocked = errors.New("login popup blocked")

// Geometry positions a popup on screen.
type Geometry struct {
	Width  int
	Height int
	Left   int
	Top    int
}

// Center computes the fixed-size popup geometry centered on a screen of the
// given dimensions.
func Center(screenWidth, screenHeight int) Geometry {
	return Geometry{
		Width:  Width,
		Height: Height,
		Left:   (screenWidth - Width) / 2,
		Top:    (screenHeight - Height) / 2,
	}
}

// Window is one opened authentication window.
type Window interface {
	// Focus raises the window. Best effort; launchers that cannot focus
	// external windows treat it as a no-op.
	Focus()
	// Close dismisses the window. Closing an already-closed window is not
	// an error.
	Close() error
	// IsClosed reports whether the window has gone away.
	IsClosed() bool
}

// CloseNotifier is implemented by windows that can push a closed signal.
// The watcher prefers it over polling IsClosed.
type CloseNotifier interface {
	Closed() <-chan struct{}
}

// Launcher opens authentication windows and reports the screen the popup is
// centered on.
type Launcher interface {
	ScreenSize() (width, height int)
	Open(url, name string, geo Geometry) (Window, error)
}

// Notifier surfaces user-visible messages outside the log stream, such as
// the popup-blocked notice.
type Notifier interface {
	Notify(message string)
}
