// Package call drives a single call session's lifecycle against a pluggable
// calling engine. The controller owns the state machine; engines own media
// transport, codec negotiation and timeout policy.
package call

import (
	"context"

	"github.com/google/uuid"
)

// Engine is the capability set the controller needs from a calling engine.
// Two bindings exist: RoomEngine (explicit room login/logout and publish
// calls) and ManagedEngine (implicit join/leave with built-in capture).
// The controller's transition table is identical against either.
type Engine interface {
	// Join enters the room derived from callID using the signed credential.
	// Blocks until the engine confirms or fails; the engine owns the timeout.
	Join(ctx context.Context, callID, credential string) error
	// Leave exits the room. Must use the same callID that was joined.
	Leave(ctx context.Context, callID string) error

	MuteMicrophone(muted bool) error
	OpenCamera(on bool) error
	StartPublishing() error
	StopPublishing() error

	// OnHangup registers the handler invoked when the engine-side hangup
	// control fires (remote end or built-in UI).
	OnHangup(handler func())
}

// NewCallID returns a fresh call identifier in the canonical format.
// The codebase historically carried two formats (a bare room name and a
// default_-prefixed id); default_<uuid> is the one canonical scheme, and the
// controller passes it verbatim to both join and leave.
func NewCallID() string {
	return "default_" + uuid.New().String()
}
