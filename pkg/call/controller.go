package call

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nvdoan/wavelink-backend/internal/apperror"
)

// State is the lifecycle position of one call session.
type State int

const (
	StateIdle State = iota
	StateJoining
	StateActive
	StateLeaving
	StateEnded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateJoining:
		return "joining"
	case StateActive:
		return "active"
	case StateLeaving:
		return "leaving"
	case StateEnded:
		return "ended"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateEnded || s == StateFailed
}

var (
	// ErrNotIdle means Join was called on a session that already joined or
	// finished. A fresh call needs a fresh Controller.
	ErrNotIdle = errors.New("call: session is not idle; create a new session")
	// ErrEmptyCallID means Join was called without a call identifier.
	ErrEmptyCallID = errors.New("call: callID must not be empty")
)

// TokenSource produces the signed credential the engine authenticates with.
type TokenSource interface {
	Issue(userID string) (string, error)
}

// Options override the post-join capture defaults. The zero value gives the
// standard behavior: microphone unmuted, camera on.
type Options struct {
	MuteMicrophone bool
	CameraOff      bool
}

// Controller drives one call session. It issues at most one engine operation
// at a time, pairs every room-entry request with exactly one leave (teardown
// included), and always reaches a terminal state.
type Controller struct {
	engine Engine
	tokens TokenSource
	guard  *CaptureGuard

	mu           sync.Mutex
	state        State
	callID       string
	joinSent     bool
	leaveIssued  bool
	closePending bool
	captureHeld  bool
}

// NewController creates an idle session bound to the given engine. A nil
// guard gets a private one (single-session processes and tests).
func NewController(engine Engine, tokens TokenSource, guard *CaptureGuard) *Controller {
	if guard == nil {
		guard = NewCaptureGuard()
	}
	c := &Controller{engine: engine, tokens: tokens, guard: guard}
	engine.OnHangup(func() {
		_ = c.Close(context.Background())
	})
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CallID returns the identifier the session joined with, or "".
func (c *Controller) CallID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.callID
}

// Join enters the call. Only valid from idle; a second join while one is
// outstanding is rejected without issuing anything to the engine.
//
// On confirmation the session becomes active and local capture starts with
// the defaults (microphone unmuted, camera on, publishing) unless opts
// override them. On engine failure the session becomes failed; the caller
// owns any retry policy.
//
// If the session was torn down while the join was in flight, the leave is
// issued immediately after the join settles and the session ends.
func (c *Controller) Join(ctx context.Context, callID, userID string, opts Options) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrNotIdle
	}
	if callID == "" {
		c.mu.Unlock()
		return ErrEmptyCallID
	}
	c.state = StateJoining
	c.callID = callID
	c.mu.Unlock()

	cred, err := c.tokens.Issue(userID)
	if err != nil {
		// No room-entry request was sent, so no leave is owed.
		c.setState(StateFailed)
		return fmt.Errorf("call: issuing credential: %w", err)
	}

	c.mu.Lock()
	c.joinSent = true
	c.mu.Unlock()

	joinErr := c.engine.Join(ctx, callID, cred)

	if joinErr != nil {
		// The entry request went out; leave anyway so no server-side
		// membership can be orphaned, then park the session in failed.
		_ = c.leaveOnce(ctx)
		c.setState(StateFailed)
		return apperror.Engine("joining call "+callID, joinErr)
	}

	c.mu.Lock()
	if c.closePending {
		// Torn down mid-join: the join settled, now pay its leave.
		c.mu.Unlock()
		err := c.leaveOnce(ctx)
		c.setState(StateEnded)
		return err
	}
	c.state = StateActive
	c.mu.Unlock()

	if err := c.guard.acquire(c); err != nil {
		_ = c.leaveOnce(ctx)
		c.setState(StateFailed)
		return err
	}
	c.mu.Lock()
	if c.state != StateActive {
		// A teardown slipped in between the state flip and the guard
		// acquisition; its leave is already issued and releaseCapture saw
		// nothing held. Hand the devices straight back.
		c.mu.Unlock()
		c.guard.release(c)
		return nil
	}
	c.captureHeld = true
	c.mu.Unlock()

	// Capture defaults after the join confirmed, never before.
	_ = c.engine.MuteMicrophone(opts.MuteMicrophone)
	_ = c.engine.OpenCamera(!opts.CameraOff)
	_ = c.engine.StartPublishing()

	return nil
}

// Hangup leaves an active call. On an already-ended or never-joined session
// it is a no-op, which guards against duplicate teardown calls from
// overlapping lifecycle hooks.
func (c *Controller) Hangup(ctx context.Context) error {
	return c.Close(ctx)
}

// Close tears the session down from any state. From active it behaves as a
// hangup; from joining it flags the session so the leave is issued as soon
// as the in-flight join settles; otherwise it is a no-op.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateActive:
		c.state = StateLeaving
		c.mu.Unlock()

		c.releaseCapture()
		err := c.leaveOnce(ctx)
		c.setState(StateEnded)
		if err != nil {
			return apperror.Engine("leaving call", err)
		}
		return nil

	case StateJoining:
		c.closePending = true
		c.mu.Unlock()
		return nil

	default:
		// Idle, leaving, ended, failed: nothing to do.
		c.mu.Unlock()
		return nil
	}
}

// leaveOnce issues the engine leave at most once per session.
func (c *Controller) leaveOnce(ctx context.Context) error {
	c.mu.Lock()
	if c.leaveIssued || !c.joinSent {
		c.mu.Unlock()
		return nil
	}
	c.leaveIssued = true
	room := c.callID
	c.mu.Unlock()

	return c.engine.Leave(ctx, room)
}

func (c *Controller) releaseCapture() {
	c.mu.Lock()
	held := c.captureHeld
	c.captureHeld = false
	c.mu.Unlock()
	if !held {
		return
	}
	_ = c.engine.StopPublishing()
	_ = c.engine.MuteMicrophone(true)
	_ = c.engine.OpenCamera(false)
	c.guard.release(c)
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}
