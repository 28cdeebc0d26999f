package popup

import (
	"fmt"
	"os"
	"os/exec"

	dErrors "guahh-connect/pkg/domain-errors"
)

// BrowserLauncher opens popups as app-mode browser windows. The browser
// process lives as long as the window, so closure detection rides on process
// exit.
type BrowserLauncher struct {
	command      string
	screenWidth  int
	screenHeight int
}

// NewBrowserLauncher constructs a launcher around a Chromium-family binary.
// Screen dimensions come from configuration; the launcher cannot query the
// display server portably.
func NewBrowserLauncher(command string, screenWidth, screenHeight int) (*BrowserLauncher, error) {
	if command == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "browser command is required")
	}
	if screenWidth <= 0 || screenHeight <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "screen dimensions must be positive")
	}
	return &BrowserLauncher{
		command:      command,
		screenWidth:  screenWidth,
		screenHeight: screenHeight,
	}, nil
}

func (l *BrowserLauncher) ScreenSize() (int, int) {
	return l.screenWidth, l.screenHeight
}

func (l *BrowserLauncher) Open(rawURL, name string, geo Geometry) (Window, error) {
	args := []string{
		"--app=" + rawURL,
		fmt.Sprintf("--window-size=%d,%d", geo.Width, geo.Height),
		fmt.Sprintf("--window-position=%d,%d", geo.Left, geo.Top),
		"--class=" + name,
	}
	cmd := exec.Command(l.command, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("launch browser window: %w", err)
	}

	w := &processWindow{cmd: cmd, done: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(w.done)
	}()
	return w, nil
}

// processWindow tracks an app-mode browser window through its process.
type processWindow struct {
	cmd  *exec.Cmd
	done chan struct{}
}

var _ CloseNotifier = (*processWindow)(nil)

// Focus is a no-op; focus of external windows belongs to the window manager.
func (w *processWindow) Focus() {}

func (w *processWindow) Close() error {
	select {
	case <-w.done:
		return nil
	default:
	}
	if err := w.cmd.Process.Signal(os.Interrupt); err != nil {
		return w.cmd.Process.Kill()
	}
	return nil
}

func (w *processWindow) IsClosed() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

func (w *processWindow) Closed() <-chan struct{} {
	return w.done
}
