package relay

import "encoding/json"

// validate enforces the type/range/length constraints from the payload
// validator on a viewer-originated event before it is forwarded to an
// agent. A false return means drop silently - never relay an error back to
// a potentially hostile viewer, and never forward a malformed event to the
// agent's input-injection layer.
func validate(event string, data json.RawMessage) bool {
	switch event {
	case EventMouseMove, EventMouseClick, EventMouseDoubleClick, EventMouseRightClick, EventMouseDown, EventMouseUp:
		var p struct {
			X      json.Number `json:"x"`
			Y      json.Number `json:"y"`
			Button string      `json:"button,omitempty"`
		}
		if json.Unmarshal(data, &p) != nil {
			return false
		}
		if !finiteInRange(p.X, -10, 100000) || !finiteInRange(p.Y, -10, 100000) {
			return false
		}
		if p.Button != "" && p.Button != "left" && p.Button != "right" && p.Button != "middle" {
			return false
		}
		return true

	case EventMouseScroll:
		var p struct {
			DeltaX json.Number `json:"deltaX"`
			DeltaY json.Number `json:"deltaY"`
		}
		if json.Unmarshal(data, &p) != nil {
			return false
		}
		return finiteInRange(p.DeltaX, -1e12, 1e12) && finiteInRange(p.DeltaY, -1e12, 1e12)

	case EventKeyPress:
		var p struct {
			Key       string   `json:"key"`
			Modifiers []string `json:"modifiers,omitempty"`
		}
		if json.Unmarshal(data, &p) != nil {
			return false
		}
		return len(p.Key) > 0 && len(p.Key) <= 20

	case EventKeyType:
		var p struct {
			Text string `json:"text"`
		}
		if json.Unmarshal(data, &p) != nil {
			return false
		}
		return len(p.Text) <= 500

	case EventUpdateQuality:
		var p struct {
			Quality int `json:"quality"`
		}
		if json.Unmarshal(data, &p) != nil {
			return false
		}
		return p.Quality >= 10 && p.Quality <= 100

	case EventUpdateFPS:
		var p struct {
			FPS int `json:"fps"`
		}
		if json.Unmarshal(data, &p) != nil {
			return false
		}
		return p.FPS >= 1 && p.FPS <= 60

	case EventClipboardWrite:
		var p struct {
			Text string `json:"text"`
		}
		if json.Unmarshal(data, &p) != nil {
			return false
		}
		return true

	case EventListScreens, EventClipboardRead:
		return true

	case EventSwitchScreen:
		return true

	default:
		return false
	}
}

// finiteInRange reports whether n parses as a finite float64 within
// [lo, hi]. A field like {"x":"NaN"} fails to parse as a JSON number at
// all, so validate's json.Unmarshal rejects it before it reaches this
// function.
func finiteInRange(n json.Number, lo, hi float64) bool {
	if n == "" {
		return false
	}
	f, err := n.Float64()
	if err != nil {
		return false
	}
	if f != f { // NaN
		return false
	}
	return f >= lo && f <= hi
}
