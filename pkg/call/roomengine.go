package call

import (
	"context"
	"sync"
)

// RoomClient is the vendor surface of the explicit-room engine family
// (createEngine/loginRoom/logoutRoom plus separate publish and device
// calls). The production client wraps the vendor SDK; tests use fakes.
type RoomClient interface {
	LoginRoom(ctx context.Context, roomID, credential string) error
	LogoutRoom(ctx context.Context, roomID string) error
	StartPublishingStream() error
	StopPublishingStream() error
	MuteMicrophone(muted bool) error
	EnableCamera(on bool) error
}

// RoomEngine adapts a RoomClient to the Engine capability set. The callID is
// used verbatim as the room name, for join and leave alike.
type RoomEngine struct {
	client RoomClient

	mu     sync.Mutex
	hangup func()
}

func NewRoomEngine(client RoomClient) *RoomEngine {
	return &RoomEngine{client: client}
}

func (e *RoomEngine) Join(ctx context.Context, callID, credential string) error {
	return e.client.LoginRoom(ctx, callID, credential)
}

func (e *RoomEngine) Leave(ctx context.Context, callID string) error {
	return e.client.LogoutRoom(ctx, callID)
}

func (e *RoomEngine) MuteMicrophone(muted bool) error {
	return e.client.MuteMicrophone(muted)
}

func (e *RoomEngine) OpenCamera(on bool) error {
	return e.client.EnableCamera(on)
}

func (e *RoomEngine) StartPublishing() error {
	return e.client.StartPublishingStream()
}

func (e *RoomEngine) StopPublishing() error {
	return e.client.StopPublishingStream()
}

func (e *RoomEngine) OnHangup(handler func()) {
	e.mu.Lock()
	e.hangup = handler
	e.mu.Unlock()
}

// HangupPressed is invoked by the UI layer when the vendor hangup control
// fires.
func (e *RoomEngine) HangupPressed() {
	e.mu.Lock()
	h := e.hangup
	e.mu.Unlock()
	if h != nil {
		h()
	}
}
