package relay

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"remote-relay/internal/auth"
	"remote-relay/internal/model"
	"remote-relay/internal/registry"
)

func viewersGroup(agentKey string) string { return "viewers:" + agentKey }
func userGroup(userID string) string      { return "user:" + userID }

// Authenticator is the narrow slice of auth.Authenticator the dispatcher
// needs: resolving a handshake and answering the lookups that drive the
// Viewer and Dashboard state machines.
type Authenticator interface {
	ResolveHandshake(auth.HandshakeParams) (auth.Identity, error)
	AgentKeyForMachine(userID, machineID string) (string, bool)
	MachinesForDashboard(userID string) []model.Machine
}

// Dispatcher owns the live socket endpoint and realizes the Agent, Viewer,
// and Dashboard state machines on top of the Registry.
type Dispatcher struct {
	Auth     Authenticator
	Registry *registry.Registry

	upgrader websocket.Upgrader
}

func NewDispatcher(a Authenticator, reg *registry.Registry) *Dispatcher {
	return &Dispatcher{
		Auth:     a,
		Registry: reg,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// Serve upgrades the request and runs the connection's lifetime: handshake,
// role dispatch, and the unconditional cleanup hook on exit.
func (d *Dispatcher) Serve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := auth.HandshakeParams{
		Token:       q.Get("token"),
		Role:        q.Get("role"),
		AgentKey:    q.Get("agentKey"),
		MachineID:   q.Get("machineId"),
		InviteToken: q.Get("inviteToken"),
	}

	identity, err := d.Auth.ResolveHandshake(params)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ws, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := newConn(ws)
	go c.writePump()
	defer c.Close("connection ended")

	switch identity.Role {
	case auth.RoleAgent:
		d.runAgent(c, identity)
	case auth.RoleDashboard:
		d.runDashboard(c, identity)
	default:
		d.runViewer(c, identity, params.MachineID)
	}
}

func send(c *conn, event string, payload any) {
	msg, err := encode(event, payload)
	if err != nil {
		return
	}
	if err := c.Send(msg); err != nil {
		c.Close("send failed")
	}
}

func mustEncode(event string, payload any) []byte {
	msg, err := encode(event, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// asConn narrows a registry.Member back to the concrete *conn so the
// dispatcher can reach Send/SendVolatile/Close directly; every Member this
// server ever registers is a *conn.
func asConn(m registry.Member) *conn { return m.(*conn) }

// runAgent implements the Agent state machine: Authenticating -> Active on
// entry, Active -> Evicted|Disconnected on exit, with the registry swap and
// status broadcasts required at each transition.
func (d *Dispatcher) runAgent(c *conn, id auth.Identity) {
	if evicted := d.Registry.ConnectAgent(id.AgentKey, id.UserID, id.MachineID, c); evicted != nil {
		old := asConn(evicted.Member)
		send(old, EventKicked, kickedPayload{Reason: "Another agent connected for this machine"})
		old.Close("evicted")
	}

	d.Registry.Broadcast(userGroup(id.UserID), mustEncode(EventMachineStatus, machineStatusPayload{MachineID: id.MachineID, Connected: true}))
	d.Registry.Broadcast(viewersGroup(id.AgentKey), mustEncode(EventAgentStatus, agentStatusPayload{Connected: true}))

	// Viewers may already be attached and waiting (e.g. they opened the
	// socket while the machine was offline, or the WoL wake just brought
	// it up) - tell the freshly Active agent to start streaming instead
	// of waiting for a viewer join that will never come.
	if d.Registry.GroupSize(viewersGroup(id.AgentKey)) > 0 {
		send(c, EventStartStreaming, nil)
	}

	defer func() {
		if !d.Registry.DisconnectAgent(id.AgentKey, c) {
			// Already replaced by a newer agent; that agent owns the
			// status transition now, so this exit emits nothing.
			return
		}
		d.Registry.Broadcast(userGroup(id.UserID), mustEncode(EventMachineStatus, machineStatusPayload{MachineID: id.MachineID, Connected: false}))
		d.Registry.Broadcast(viewersGroup(id.AgentKey), mustEncode(EventAgentStatus, agentStatusPayload{Connected: false}))
	}()

	c.readLoop(func(data []byte) {
		d.handleAgentMessage(id, data)
	})
}

func (d *Dispatcher) handleAgentMessage(id auth.Identity, data []byte) {
	var env envelope
	if json.Unmarshal(data, &env) != nil {
		return
	}

	switch env.Event {
	case EventScreenInfo:
		info, ok := d.Registry.Agent(id.AgentKey)
		if !ok {
			return
		}
		info.SetScreenInfo(env.Data)
		d.Registry.Broadcast(viewersGroup(id.AgentKey), data)

	case EventFrame:
		d.broadcastVolatile(viewersGroup(id.AgentKey), data)

	case EventDisplaysList, EventClipboardInfo:
		d.Registry.Broadcast(viewersGroup(id.AgentKey), data)

	default:
		// Unknown events from an agent are ignored, never errored.
	}
}

// broadcastVolatile fans frame bytes out to a group using each member's
// volatile (drop-eligible) queue instead of the reliable one Broadcast
// uses for every other event.
func (d *Dispatcher) broadcastVolatile(group string, message []byte) {
	for _, m := range d.Registry.Members(group) {
		asConn(m).SendVolatile(message)
	}
}

// runViewer implements the Viewer state machine.
func (d *Dispatcher) runViewer(c *conn, id auth.Identity, requestedMachineID string) {
	machineID := id.MachineID
	if machineID == "" {
		machineID = requestedMachineID
	}

	agentKey, ok := d.Auth.AgentKeyForMachine(id.UserID, machineID)
	if !ok {
		send(c, EventAgentStatus, agentStatusPayload{Connected: false})
		c.readLoop(func(data []byte) { d.handleLatencyOnly(c, data) })
		return
	}

	d.Registry.Join(viewersGroup(agentKey), c)
	d.Registry.Join(userGroup(id.UserID), c)
	defer func() {
		d.Registry.Leave(viewersGroup(agentKey), c)
		d.Registry.Leave(userGroup(id.UserID), c)
		if d.Registry.GroupSize(viewersGroup(agentKey)) == 0 {
			if info, ok := d.Registry.Agent(agentKey); ok {
				send(asConn(info.Member), EventStopStreaming, nil)
			}
		}
	}()

	info, connected := d.Registry.Agent(agentKey)
	send(c, EventAgentStatus, agentStatusPayload{Connected: connected})
	if connected {
		if screenInfo, ok := info.ScreenInfo(); ok {
			forward(c, EventScreenInfo, screenInfo)
		}
		if d.Registry.GroupSize(viewersGroup(agentKey)) == 1 {
			send(asConn(info.Member), EventStartStreaming, nil)
		}
	}

	c.readLoop(func(data []byte) {
		d.handleViewerMessage(c, agentKey, data)
	})
}

func forward(c *conn, event string, raw json.RawMessage) {
	msg, err := json.Marshal(envelope{Event: event, Data: raw})
	if err != nil {
		return
	}
	if err := c.Send(msg); err != nil {
		c.Close("send failed")
	}
}

func (d *Dispatcher) handleViewerMessage(c *conn, agentKey string, data []byte) {
	var env envelope
	if json.Unmarshal(data, &env) != nil {
		return
	}

	if env.Event == EventLatencyPing {
		d.handleLatencyPing(c, env.Data)
		return
	}

	if !viewerForwardable[env.Event] {
		return
	}
	if !validate(env.Event, env.Data) {
		return
	}

	info, ok := d.Registry.Agent(agentKey)
	if !ok {
		return
	}
	agentConn := asConn(info.Member)
	if err := agentConn.Send(data); err != nil {
		agentConn.Close("send failed")
	}
}

func (d *Dispatcher) handleLatencyOnly(c *conn, data []byte) {
	var env envelope
	if json.Unmarshal(data, &env) != nil {
		return
	}
	if env.Event == EventLatencyPing {
		d.handleLatencyPing(c, env.Data)
	}
}

// handleLatencyPing echoes the viewer's RTT probe immediately without any
// agent involvement.
func (d *Dispatcher) handleLatencyPing(c *conn, data json.RawMessage) {
	var p latencyPayload
	if json.Unmarshal(data, &p) != nil {
		return
	}
	send(c, EventLatencyPong, latencyPayload{T: p.T})
}

// runDashboard implements the Dashboard state machine: it joins the user
// group only, receives one machine-status snapshot per owned machine on
// attach, and nothing else.
func (d *Dispatcher) runDashboard(c *conn, id auth.Identity) {
	d.Registry.Join(userGroup(id.UserID), c)
	defer d.Registry.Leave(userGroup(id.UserID), c)

	for _, m := range d.Auth.MachinesForDashboard(id.UserID) {
		_, connected := d.Registry.Agent(m.AgentKey)
		send(c, EventMachineStatus, machineStatusPayload{MachineID: m.ID, Connected: connected})
	}

	c.readLoop(func(data []byte) {
		// Dashboards receive no other events and send none worth acting
		// on; anything inbound is simply ignored.
		_ = data
	})
}
