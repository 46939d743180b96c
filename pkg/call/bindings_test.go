package call

import (
	"context"
	"errors"
	"testing"

	"github.com/nvdoan/wavelink-backend/internal/apperror"
)

type fakeRoomClient struct {
	logins, logouts    int
	room, credential   string
	publishing         bool
	micMuted, cameraOn bool
}

func (f *fakeRoomClient) LoginRoom(ctx context.Context, roomID, credential string) error {
	f.logins++
	f.room = roomID
	f.credential = credential
	return nil
}

func (f *fakeRoomClient) LogoutRoom(ctx context.Context, roomID string) error {
	f.logouts++
	f.room = roomID
	return nil
}

func (f *fakeRoomClient) StartPublishingStream() error { f.publishing = true; return nil }
func (f *fakeRoomClient) StopPublishingStream() error  { f.publishing = false; return nil }
func (f *fakeRoomClient) MuteMicrophone(muted bool) error {
	f.micMuted = muted
	return nil
}
func (f *fakeRoomClient) EnableCamera(on bool) error { f.cameraOn = on; return nil }

type fakeCallClient struct {
	joins, leaves int
	callID        string
	micOn, camOn  bool
}

func (f *fakeCallClient) JoinCall(ctx context.Context, callID, credential string) error {
	f.joins++
	f.callID = callID
	return nil
}

func (f *fakeCallClient) LeaveCall(ctx context.Context, callID string) error {
	f.leaves++
	f.callID = callID
	return nil
}

func (f *fakeCallClient) SetMicrophoneEnabled(on bool) error { f.micOn = on; return nil }
func (f *fakeCallClient) SetCameraEnabled(on bool) error     { f.camOn = on; return nil }

func TestRoomEngine_DelegatesExplicitCalls(t *testing.T) {
	client := &fakeRoomClient{}
	eng := NewRoomEngine(client)
	ctx := context.Background()

	if err := eng.Join(ctx, "default_abc", "cred"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if client.logins != 1 || client.room != "default_abc" || client.credential != "cred" {
		t.Errorf("LoginRoom saw (%d, %q, %q)", client.logins, client.room, client.credential)
	}

	eng.StartPublishing()
	if !client.publishing {
		t.Error("StartPublishing should start the vendor stream")
	}
	eng.MuteMicrophone(true)
	if !client.micMuted {
		t.Error("MuteMicrophone(true) should mute the vendor microphone")
	}

	if err := eng.Leave(ctx, "default_abc"); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if client.logouts != 1 {
		t.Errorf("LogoutRoom calls = %d, want 1", client.logouts)
	}
}

func TestManagedEngine_InvertsMicAndSkipsPublish(t *testing.T) {
	client := &fakeCallClient{}
	eng := NewManagedEngine(client)
	ctx := context.Background()

	if err := eng.Join(ctx, "default_abc", "cred"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if client.joins != 1 || client.callID != "default_abc" {
		t.Errorf("JoinCall saw (%d, %q)", client.joins, client.callID)
	}

	// Mute semantics invert: MuteMicrophone(false) enables the microphone.
	eng.MuteMicrophone(false)
	if !client.micOn {
		t.Error("MuteMicrophone(false) should enable the vendor microphone")
	}
	eng.MuteMicrophone(true)
	if client.micOn {
		t.Error("MuteMicrophone(true) should disable the vendor microphone")
	}

	// Publishing is built into the managed join; the calls must be accepted.
	if err := eng.StartPublishing(); err != nil {
		t.Errorf("StartPublishing: %v", err)
	}
	if err := eng.StopPublishing(); err != nil {
		t.Errorf("StopPublishing: %v", err)
	}
}

func TestBindings_SameControllerTransitionTable(t *testing.T) {
	for name, eng := range map[string]Engine{
		"room":    NewRoomEngine(&fakeRoomClient{}),
		"managed": NewManagedEngine(&fakeCallClient{}),
	} {
		c := NewController(eng, staticTokens{}, nil)
		if err := c.Join(context.Background(), "default_abc", "u1", Options{}); err != nil {
			t.Fatalf("%s: Join: %v", name, err)
		}
		if got := c.State(); got != StateActive {
			t.Fatalf("%s: state = %v, want active", name, got)
		}
		if err := c.Hangup(context.Background()); err != nil {
			t.Fatalf("%s: Hangup: %v", name, err)
		}
		if got := c.State(); got != StateEnded {
			t.Fatalf("%s: state = %v, want ended", name, got)
		}
	}
}

func TestRoomEngine_HangupPressed(t *testing.T) {
	client := &fakeRoomClient{}
	eng := NewRoomEngine(client)
	c := NewController(eng, staticTokens{}, nil)

	if err := c.Join(context.Background(), "default_abc", "u1", Options{}); err != nil {
		t.Fatalf("Join: %v", err)
	}

	eng.HangupPressed()

	if got := c.State(); got != StateEnded {
		t.Fatalf("state after hangup press = %v, want ended", got)
	}
	if client.logouts != 1 {
		t.Errorf("LogoutRoom calls = %d, want 1", client.logouts)
	}
}

func TestNewEngineFromConfig_SelectsBinding(t *testing.T) {
	eng, err := NewEngineFromConfig(
		EngineConfig{Binding: "room", AppID: "app-1", ServerSecret: "secret"},
		&fakeRoomClient{}, nil,
	)
	if err != nil {
		t.Fatalf("room binding: %v", err)
	}
	if _, ok := eng.(*RoomEngine); !ok {
		t.Fatalf("room binding composed %T, want *RoomEngine", eng)
	}

	eng, err = NewEngineFromConfig(
		EngineConfig{Binding: "managed", APIKey: "key-1", APISecret: "secret"},
		nil, &fakeCallClient{},
	)
	if err != nil {
		t.Fatalf("managed binding: %v", err)
	}
	if _, ok := eng.(*ManagedEngine); !ok {
		t.Fatalf("managed binding composed %T, want *ManagedEngine", eng)
	}
}

func TestNewEngineFromConfig_RejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  EngineConfig
	}{
		{"room missing credentials", EngineConfig{Binding: "room"}},
		{"managed missing secret", EngineConfig{Binding: "managed", APIKey: "key-1"}},
		{"unknown binding", EngineConfig{Binding: "webrtc"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewEngineFromConfig(tc.cfg, &fakeRoomClient{}, &fakeCallClient{})
			if !errors.Is(err, apperror.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestNewEngineFromConfig_RequiresClient(t *testing.T) {
	cfg := EngineConfig{Binding: "room", AppID: "app-1", ServerSecret: "secret"}
	if _, err := NewEngineFromConfig(cfg, nil, nil); !errors.Is(err, apperror.ErrConfiguration) {
		t.Fatalf("expected configuration error for missing client, got %v", err)
	}
}

func TestEngineConfig_PublicID(t *testing.T) {
	room := EngineConfig{Binding: "room", AppID: "app-1", ServerSecret: "secret"}
	if got := room.PublicID(); got != "app-1" {
		t.Errorf("room PublicID = %q, want app-1", got)
	}
	managed := EngineConfig{Binding: "managed", APIKey: "key-1", APISecret: "secret"}
	if got := managed.PublicID(); got != "key-1" {
		t.Errorf("managed PublicID = %q, want key-1", got)
	}
}
