package agents

import (
	"fmt"

	contractx "github.com/panuwats/concierge/agent/contract"
)

// Roster is the immutable agent registry, built once at startup and injected
// into the orchestrator.
type Roster struct {
	order    []contractx.AgentID
	byID     map[contractx.AgentID]contractx.Agent
	fallback contractx.Agent
}

var _ contractx.Registry = (*Roster)(nil)

// NewRoster registers the given agents. fallbackID names the default agent;
// it must be registered and is expected to accept any message.
func NewRoster(fallbackID contractx.AgentID, list ...contractx.Agent) (*Roster, error) {
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: at least one agent is required", contractx.ErrValidation)
	}

	r := &Roster{
		byID: make(map[contractx.AgentID]contractx.Agent, len(list)),
	}
	for _, ag := range list {
		if ag == nil {
			return nil, fmt.Errorf("%w: nil agent", contractx.ErrValidation)
		}
		id := ag.ID()
		if id == "" {
			return nil, fmt.Errorf("%w: agent id is empty", contractx.ErrValidation)
		}
		if _, dup := r.byID[id]; dup {
			return nil, fmt.Errorf("%w: duplicate agent id %q", contractx.ErrValidation, id)
		}
		r.byID[id] = ag
		r.order = append(r.order, id)
	}

	fb, ok := r.byID[fallbackID]
	if !ok {
		return nil, fmt.Errorf("%w: fallback %q", contractx.ErrUnknownAgent, fallbackID)
	}
	r.fallback = fb

	return r, nil
}

func (r *Roster) Get(id contractx.AgentID) (contractx.Agent, bool) {
	ag, ok := r.byID[id]
	return ag, ok
}

func (r *Roster) Default() contractx.Agent {
	return r.fallback
}

func (r *Roster) IDs() []contractx.AgentID {
	return append([]contractx.AgentID(nil), r.order...)
}

func (r *Roster) Descriptors() []contractx.Descriptor {
	out := make([]contractx.Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id].Status())
	}
	return out
}
