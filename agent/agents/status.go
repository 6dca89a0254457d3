// Package agents hosts the shared roster plus helpers common to the domain
// agent implementations in its subpackages.
package agents

import (
	"sync"
	"time"

	contractx "github.com/panuwats/concierge/agent/contract"
)

// Status tracks an agent's live descriptor. Created at registration time and
// touched on every processed message; never deleted during process lifetime.
type Status struct {
	mu sync.Mutex
	d  contractx.Descriptor
}

func NewStatus(id contractx.AgentID, displayName string, capabilities []string) *Status {
	return &Status{
		d: contractx.Descriptor{
			ID:           id,
			DisplayName:  displayName,
			Capabilities: append([]string(nil), capabilities...),
			Alive:        true,
		},
	}
}

func (s *Status) Touch(now time.Time) {
	s.mu.Lock()
	s.d.LastActive = now.UTC()
	s.mu.Unlock()
}

func (s *Status) Snapshot() contractx.Descriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.d
	d.Capabilities = append([]string(nil), s.d.Capabilities...)
	return d
}
