// Package relay implements the socket-multiplexing protocol: the three
// connection roles (agent, viewer, dashboard), their state machines, and
// the handlers that realize fan-out, eviction, and input forwarding.
package relay

import "encoding/json"

// envelope is the wire shape of every message: a named event plus an
// opaque JSON payload. Binary blobs (frame data) travel inside the payload
// as a base64 field rather than as a separate websocket binary frame - the
// spec allows either encoding, and a single text-framed envelope keeps the
// reader loop and the volatile-drop logic uniform across event types.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func encode(event string, payload any) ([]byte, error) {
	var data json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		data = raw
	}
	return json.Marshal(envelope{Event: event, Data: data})
}

// Event names. Agent-originated.
const (
	EventScreenInfo    = "screen-info"
	EventFrame         = "frame"
	EventDisplaysList  = "displays-list"
	EventClipboardInfo = "clipboard-content"
)

// Event names. Viewer-originated, forwarded to the unique agent after
// validation.
const (
	EventMouseMove        = "mouse-move"
	EventMouseClick       = "mouse-click"
	EventMouseDoubleClick = "mouse-double-click"
	EventMouseRightClick  = "mouse-right-click"
	EventMouseDown        = "mouse-down"
	EventMouseUp          = "mouse-up"
	EventMouseScroll      = "mouse-scroll"
	EventKeyPress         = "key-press"
	EventKeyType          = "key-type"
	EventUpdateQuality    = "update-quality"
	EventUpdateFPS        = "update-fps"
	EventListScreens      = "list-screens"
	EventSwitchScreen     = "switch-screen"
	EventClipboardWrite   = "clipboard-write"
	EventClipboardRead    = "clipboard-read"
)

// Event names. Control and status, both directions.
const (
	EventStartStreaming = "start-streaming"
	EventStopStreaming  = "stop-streaming"
	EventAgentStatus    = "agent-status"
	EventMachineStatus  = "machine-status"
	EventKicked         = "kicked"
	EventServerShutdown = "server-shutdown"
	EventLatencyPing    = "latency-ping"
	EventLatencyPong    = "latency-pong"
)

// viewerForwardable is the set of events a Viewer may emit that, once
// validated, are forwarded verbatim to the unique AgentConnection.
var viewerForwardable = map[string]bool{
	EventMouseMove:        true,
	EventMouseClick:       true,
	EventMouseDoubleClick: true,
	EventMouseRightClick:  true,
	EventMouseDown:        true,
	EventMouseUp:          true,
	EventMouseScroll:      true,
	EventKeyPress:         true,
	EventKeyType:          true,
	EventUpdateQuality:    true,
	EventUpdateFPS:        true,
	EventListScreens:      true,
	EventSwitchScreen:     true,
	EventClipboardWrite:   true,
	EventClipboardRead:    true,
}

type agentStatusPayload struct {
	Connected bool `json:"connected"`
}

type machineStatusPayload struct {
	MachineID string `json:"machineId"`
	Connected bool   `json:"connected"`
}

type kickedPayload struct {
	Reason string `json:"reason"`
}

type serverShutdownPayload struct {
	Message string `json:"message"`
}

type latencyPayload struct {
	T json.Number `json:"t"`
}

// ShutdownNotice encodes the server-shutdown envelope broadcast to every
// connection during a graceful drain.
func ShutdownNotice(message string) ([]byte, error) {
	return encode(EventServerShutdown, serverShutdownPayload{Message: message})
}
