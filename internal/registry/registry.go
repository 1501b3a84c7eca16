// Package registry is the relay's live switch. It holds the single active
// connection for each agent key, the implicit viewer/dashboard groups that
// fan out broadcasts, and the cached screen-info snapshot a newly joining
// viewer needs immediately.
package registry

import (
	"encoding/json"
	"sync"
)

// Member is anything the registry can address: a live socket able to
// accept a pre-serialized outbound message. Implementations decide for
// themselves whether a given send is reliable or volatile.
type Member interface {
	Send(message []byte) error
	Close(reason string)
}

// AgentInfo is the live presence record for one agent key. Agent and
// ConnectAgent hand callers the pointer itself; the cached screen-info is
// guarded by the record's own mutex.
type AgentInfo struct {
	Member    Member
	UserID    string
	MachineID string

	mu         sync.Mutex
	screenInfo json.RawMessage
}

// ScreenInfo returns the most recently cached screen-info payload, if any.
func (a *AgentInfo) ScreenInfo() (json.RawMessage, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.screenInfo == nil {
		return nil, false
	}
	return a.screenInfo, true
}

// SetScreenInfo caches the latest screen-info payload emitted by the agent.
func (a *AgentInfo) SetScreenInfo(info json.RawMessage) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.screenInfo = info
}

// Registry maps agent keys to their single live AgentInfo and maintains
// named broadcast groups. Two group namespaces are used by convention:
// "viewers:<agentKey>" for machine watchers and "user:<userID>" for every
// non-agent socket belonging to a user.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]*AgentInfo
	groups map[string]map[Member]struct{}
}

func New() *Registry {
	return &Registry{
		agents: make(map[string]*AgentInfo),
		groups: make(map[string]map[Member]struct{}),
	}
}

// ConnectAgent installs member as the active connection for agentKey,
// evicting and returning whichever AgentInfo previously held that slot (nil
// if none). The caller is responsible for notifying and closing the evicted
// member; the registry only swaps the pointer atomically.
func (r *Registry) ConnectAgent(agentKey, userID, machineID string, member Member) (evicted *AgentInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted = r.agents[agentKey]
	r.agents[agentKey] = &AgentInfo{Member: member, UserID: userID, MachineID: machineID}
	return evicted
}

// DisconnectAgent removes the AgentInfo for agentKey, but only if it is
// still the one identified by member - a prior eviction may already have
// replaced it, in which case this is a no-op so we never remove the new
// agent's entry out from under it.
func (r *Registry) DisconnectAgent(agentKey string, member Member) (removed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, ok := r.agents[agentKey]
	if !ok || info.Member != member {
		return false
	}
	delete(r.agents, agentKey)
	return true
}

// Agent looks up the live AgentInfo for agentKey.
func (r *Registry) Agent(agentKey string) (*AgentInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.agents[agentKey]
	return info, ok
}

// AgentCount reports how many agents are currently connected, used by the
// health endpoint.
func (r *Registry) AgentCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}

// Join adds member to the named group, creating it if necessary.
func (r *Registry) Join(group string, member Member) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.groups[group]
	if !ok {
		set = make(map[Member]struct{})
		r.groups[group] = set
	}
	set[member] = struct{}{}
}

// Leave removes member from the named group. GroupSize after Leave tells
// the caller whether the group just emptied.
func (r *Registry) Leave(group string, member Member) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.groups[group]
	if !ok {
		return
	}
	delete(set, member)
	if len(set) == 0 {
		delete(r.groups, group)
	}
}

// GroupSize reports the current membership count of group.
func (r *Registry) GroupSize(group string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.groups[group])
}

// Broadcast sends message to every current member of group. Members whose
// Send fails are closed; Broadcast does not remove them from any group.
func (r *Registry) Broadcast(group string, message []byte) {
	for _, m := range r.Members(group) {
		if err := m.Send(message); err != nil {
			m.Close("send failed")
		}
	}
}

// BroadcastAll sends message to every connection the registry currently
// knows about - every agent plus every group member, deduplicated - for
// the shutdown notification fan-out.
func (r *Registry) BroadcastAll(message []byte) {
	r.mu.RLock()
	all := make(map[Member]struct{})
	for _, info := range r.agents {
		all[info.Member] = struct{}{}
	}
	for _, set := range r.groups {
		for m := range set {
			all[m] = struct{}{}
		}
	}
	members := make([]Member, 0, len(all))
	for m := range all {
		members = append(members, m)
	}
	r.mu.RUnlock()

	for _, m := range members {
		_ = m.Send(message)
	}
}

// Members returns a snapshot of the current membership of group. Callers
// that need a send path Broadcast doesn't offer - e.g. a volatile,
// drop-eligible delivery - use this to reach each member directly.
func (r *Registry) Members(group string) []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.groups[group]
	members := make([]Member, 0, len(set))
	for m := range set {
		members = append(members, m)
	}
	return members
}
