package contract

import (
	"context"

	statex "github.com/panuwats/concierge/agent/state"
	profilex "github.com/panuwats/concierge/profile"
)

// Agent is the capability set every domain handler implements. Contexts are
// passed by value as read-only snapshots; agents own only their private
// per-user task state and must never mutate shared conversation state.
type Agent interface {
	ID() AgentID

	// ProcessMessage handles one ordinary turn. Recoverable internal
	// failures must be absorbed into a degraded Response (metadata
	// error=true); a returned error means the agent itself is broken and
	// triggers the orchestrator's fallback path.
	ProcessMessage(ctx context.Context, message string, conv statex.Context, prof profilex.Profile) (Response, error)

	// CanHandle is the cheap, side-effect-free predicate behind sticky
	// routing.
	CanHandle(message string, conv statex.Context) bool

	// HandleHandoff runs instead of ProcessMessage exactly once, when this
	// agent is installed as the conversation owner by a handoff. It must
	// not assume any prior private state for the user.
	HandleHandoff(ctx context.Context, handoff HandoffContext, conv statex.Context) (Response, error)

	// Suggestions proposes short reply hints for the current conversation.
	Suggestions(conv statex.Context) []string

	Status() Descriptor
}

// Registry is the immutable agent roster, built once at startup.
type Registry interface {
	Get(id AgentID) (Agent, bool)
	// Default returns the fallback agent: the one agent whose CanHandle is
	// unconditionally true. It is also the error-recovery target.
	Default() Agent
	IDs() []AgentID
	Descriptors() []Descriptor
}

// Classifier resolves a message to exactly one registered agent identifier.
type Classifier interface {
	Classify(ctx context.Context, req ClassifyRequest) (AgentID, error)
}

// Notifier pushes a turn's envelope to the user's realtime channel. Pushes
// are best-effort: a failed push never fails the turn.
type Notifier interface {
	Push(ctx context.Context, userID string, env Envelope) error
}
