// internal/transport/transport.go
//
// Per-room publish/subscribe transport used by the peer state machines.
// Semantics (both implementations):
//   - Best-effort, at-most-once delivery. Nothing is persisted; a peer
//     that subscribes after a message was sent never sees it.
//   - A sender never receives its own messages (no self-echo).
//   - Messages from one sender arrive in send order; no ordering is
//     guaranteed across channels.
//
// Channel names are derived from the room id (e.g. "gomoku:<roomId>"),
// so both peers converge on the same channel with no rendezvous step.

package transport

import "encoding/json"

// Handler receives a raw event payload. Handlers must tolerate
// malformed payloads; dropping them is the correct response.
type Handler func(payload json.RawMessage)

// Channel is one peer's attachment to a room-scoped broadcast channel.
type Channel interface {
	// Send broadcasts an event to every other subscriber on the channel.
	Send(event string, payload any) error

	// On registers a handler for an event. Register all handlers before
	// the first Send; late registrations may miss messages.
	On(event string, h Handler)

	// OnError registers a callback invoked once if the channel fails
	// (subscription lost, connection dropped). The peer treats this as
	// opponent departure after a grace period.
	OnError(h func(error))

	// Close detaches from the channel. Safe to call more than once.
	Close() error
}

// Transport opens room-scoped channels. sender identifies this peer for
// self-echo suppression and must differ between the two participants.
type Transport interface {
	Open(name, sender string) (Channel, error)
}

// envelope is the wire format shared by all implementations.
type envelope struct {
	Sender  string          `json:"sender"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

func encodeEnvelope(sender, event string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Sender: sender, Event: event, Payload: body})
}

// ChannelName derives the shared channel name for a room.
func ChannelName(gameType, roomID string) string {
	return gameType + ":" + roomID
}
