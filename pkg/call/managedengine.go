package call

import (
	"context"
	"sync"
)

// CallClient is the vendor surface of the managed engine family: join and
// leave are implicit room operations, publishing and rendering are built in,
// and only the device toggles are exposed.
type CallClient interface {
	JoinCall(ctx context.Context, callID, credential string) error
	LeaveCall(ctx context.Context, callID string) error
	SetMicrophoneEnabled(on bool) error
	SetCameraEnabled(on bool) error
}

// ManagedEngine adapts a CallClient to the Engine capability set. Publish
// calls are accepted as no-ops because the vendor starts and stops media
// with the call itself.
type ManagedEngine struct {
	client CallClient

	mu     sync.Mutex
	hangup func()
}

func NewManagedEngine(client CallClient) *ManagedEngine {
	return &ManagedEngine{client: client}
}

func (e *ManagedEngine) Join(ctx context.Context, callID, credential string) error {
	return e.client.JoinCall(ctx, callID, credential)
}

func (e *ManagedEngine) Leave(ctx context.Context, callID string) error {
	return e.client.LeaveCall(ctx, callID)
}

func (e *ManagedEngine) MuteMicrophone(muted bool) error {
	return e.client.SetMicrophoneEnabled(!muted)
}

func (e *ManagedEngine) OpenCamera(on bool) error {
	return e.client.SetCameraEnabled(on)
}

// StartPublishing is a no-op; the managed engine publishes on join.
func (e *ManagedEngine) StartPublishing() error { return nil }

// StopPublishing is a no-op; the managed engine stops media on leave.
func (e *ManagedEngine) StopPublishing() error { return nil }

func (e *ManagedEngine) OnHangup(handler func()) {
	e.mu.Lock()
	e.hangup = handler
	e.mu.Unlock()
}

// HangupPressed is invoked when the vendor's built-in call UI ends the call.
func (e *ManagedEngine) HangupPressed() {
	e.mu.Lock()
	h := e.hangup
	e.mu.Unlock()
	if h != nil {
		h()
	}
}
