package call

import (
	"errors"
	"sync"
)

// ErrCaptureBusy means another session currently holds the local audio/video
// capture devices.
var ErrCaptureBusy = errors.New("call: capture devices held by another session")

// CaptureGuard models the local microphone and camera as a per-device
// singleton. Only the active session may hold them; the controller releases
// them before a session becomes terminal.
type CaptureGuard struct {
	mu     sync.Mutex
	holder *Controller
}

func NewCaptureGuard() *CaptureGuard {
	return &CaptureGuard{}
}

func (g *CaptureGuard) acquire(c *Controller) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.holder != nil && g.holder != c {
		return ErrCaptureBusy
	}
	g.holder = c
	return nil
}

func (g *CaptureGuard) release(c *Controller) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.holder == c {
		g.holder = nil
	}
}

// Held reports whether any session currently holds the capture devices.
func (g *CaptureGuard) Held() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.holder != nil
}
