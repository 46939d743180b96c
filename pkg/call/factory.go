package call

import (
	"fmt"
	"strings"

	"github.com/nvdoan/wavelink-backend/internal/apperror"
)

// Engine binding names, matching the ENGINE_BINDING environment value.
const (
	BindingRoom    = "room"
	BindingManaged = "managed"
)

// EngineConfig selects which engine binding a deployment runs and carries
// the vendor credentials that binding requires. Exactly one binding is
// active per process.
type EngineConfig struct {
	Binding string // "room" or "managed"

	// Room binding (ZEGO_APP_ID / ZEGO_SERVER_SECRET).
	AppID        string
	ServerSecret string

	// Managed binding (STREAM_API_KEY / STREAM_API_SECRET_KEY).
	APIKey    string
	APISecret string
}

// PublicID returns the non-secret vendor identifier clients need to
// bootstrap their calling SDK for the selected binding.
func (c EngineConfig) PublicID() string {
	if strings.ToLower(c.Binding) == BindingManaged {
		return c.APIKey
	}
	return c.AppID
}

// Validate checks that the selected binding has its credential pair.
func (c EngineConfig) Validate() error {
	switch strings.ToLower(c.Binding) {
	case BindingRoom:
		if c.AppID == "" || c.ServerSecret == "" {
			return apperror.Configuration("room engine binding needs ZEGO_APP_ID and ZEGO_SERVER_SECRET")
		}
	case BindingManaged:
		if c.APIKey == "" || c.APISecret == "" {
			return apperror.Configuration("managed engine binding needs STREAM_API_KEY and STREAM_API_SECRET_KEY")
		}
	default:
		return apperror.Configuration(fmt.Sprintf("unknown engine binding %q; use %q or %q",
			c.Binding, BindingRoom, BindingManaged))
	}
	return nil
}

// NewEngineFromConfig composes the engine for the configured binding over
// the injected vendor client. Only the selected binding's client is used;
// the other may be nil.
func NewEngineFromConfig(c EngineConfig, room RoomClient, managed CallClient) (Engine, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	switch strings.ToLower(c.Binding) {
	case BindingRoom:
		if room == nil {
			return nil, apperror.Configuration("room engine binding selected but no room client wired")
		}
		return NewRoomEngine(room), nil
	default:
		if managed == nil {
			return nil, apperror.Configuration("managed engine binding selected but no call client wired")
		}
		return NewManagedEngine(managed), nil
	}
}
