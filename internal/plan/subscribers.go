package plan

import (
	"strings"
	"sync"

	"taskdeck/client/internal/protocol"
)

// SubscriberTable routes session-scoped plan events to the one handler
// bound to that exact session id. Binding a new handler for an id
// replaces the old one; events for ids with no binding are dropped, so
// a superseded session stops receiving events the moment its id is
// released or rebound.
type SubscriberTable struct {
	mu   sync.RWMutex
	subs map[string]func(protocol.Event)
}

func NewSubscriberTable() *SubscriberTable {
	return &SubscriberTable{subs: map[string]func(protocol.Event){}}
}

func (t *SubscriberTable) Bind(sessionID string, fn func(protocol.Event)) {
	if t == nil || fn == nil {
		return
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return
	}
	t.mu.Lock()
	t.subs[sessionID] = fn
	t.mu.Unlock()
}

func (t *SubscriberTable) Release(sessionID string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	delete(t.subs, sessionID)
	t.mu.Unlock()
}

// Dispatch hands a plan event to the subscriber bound to its session id.
// Returns false for non-plan events and for events whose session id has
// no binding.
func (t *SubscriberTable) Dispatch(ev protocol.Event) bool {
	if t == nil || ev == nil {
		return false
	}
	var sessionID string
	switch e := ev.(type) {
	case protocol.PlanQuestions:
		sessionID = e.SessionID
	case protocol.PlanSummary:
		sessionID = e.SessionID
	case protocol.PlanError:
		sessionID = e.SessionID
	case protocol.PlanOutput:
		sessionID = e.SessionID
	default:
		return false
	}

	t.mu.RLock()
	fn := t.subs[sessionID]
	t.mu.RUnlock()
	if fn == nil {
		return false
	}
	fn(ev)
	return true
}
