package realtime

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Client to server events.
const (
	EventJoin        = "map:join"
	EventLeave       = "map:leave"
	EventNodesChange = "nodes:change"
	EventEdgesChange = "edges:change"
)

// Server to client events.
const (
	EventJoined       = "map:joined_successfully"
	EventError        = "map:error"
	EventNodesUpdated = "nodes:updated"
	EventEdgesUpdated = "edges:updated"
)

// Frame is one text message on the socket.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ChangePayload is the data of nodes:change and edges:change. Changes is
// kept raw so peers receive exactly what the sender emitted.
type ChangePayload struct {
	MapID   string          `json:"mapId"`
	Changes json.RawMessage `json:"changes"`
}

// EncodeFrame marshals data and wraps it in a frame for event. A
// json.RawMessage is embedded as is.
func EncodeFrame(event string, data any) ([]byte, error) {
	raw, ok := data.(json.RawMessage)
	if !ok {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", event, err)
		}
		raw = b
	}
	return json.Marshal(Frame{Event: event, Data: raw})
}

// DecodeFrame parses one socket message.
func DecodeFrame(msg []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(msg, &f); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	if f.Event == "" {
		return Frame{}, fmt.Errorf("decode frame: missing event")
	}
	return f, nil
}
