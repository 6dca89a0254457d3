package contract

import (
	"time"

	statex "github.com/panuwats/concierge/agent/state"
	profilex "github.com/panuwats/concierge/profile"
)

type AgentID string

const (
	AgentFoodie  AgentID = "foodie"
	AgentRideNow AgentID = "ridenow"
	AgentAskMe   AgentID = "askme"
)

// TurnRequest is one inbound message from the transport layer.
type TurnRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
	// Preference pins the turn to a specific agent, skipping sticky routing
	// and classification. Ignored when it names an unregistered agent.
	Preference AgentID `json:"agent_preference,omitempty"`
}

// Action is a structured UI directive attached to a response.
type Action struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// HandoffDirective asks the orchestrator to transfer conversation ownership.
type HandoffDirective struct {
	TargetAgent AgentID        `json:"target_agent"`
	Reason      string         `json:"reason,omitempty"`
	Context     map[string]any `json:"context,omitempty"`
	AutoHandoff bool           `json:"auto_handoff,omitempty"`
}

// HandoffContext is what the incoming agent receives when it takes over.
type HandoffContext struct {
	From   AgentID        `json:"from"`
	Reason string         `json:"reason,omitempty"`
	Carry  map[string]any `json:"carry,omitempty"`
}

// Response is produced by an agent for a single turn.
type Response struct {
	Message     string            `json:"message"`
	Actions     []Action          `json:"actions,omitempty"`
	Suggestions []string          `json:"suggestions,omitempty"`
	Handoff     *HandoffDirective `json:"handoff,omitempty"`
	Metadata    map[string]any    `json:"metadata,omitempty"`
}

// Envelope is the unified per-turn result returned to the transport layer
// and pushed on the realtime channel.
type Envelope struct {
	Agent       AgentID           `json:"agent"`
	Message     string            `json:"message"`
	Actions     []Action          `json:"actions,omitempty"`
	Suggestions []string          `json:"suggestions,omitempty"`
	Handoff     *HandoffDirective `json:"handoff,omitempty"`
	Metadata    map[string]any    `json:"metadata,omitempty"`
}

// Descriptor is an agent's self-description snapshot.
type Descriptor struct {
	ID           AgentID   `json:"id"`
	DisplayName  string    `json:"display_name"`
	Capabilities []string  `json:"capabilities,omitempty"`
	Alive        bool      `json:"alive"`
	LastActive   time.Time `json:"last_active"`
}

// ClassifyRequest carries the inputs for one intent-classification call.
type ClassifyRequest struct {
	Message string
	Recent  []statex.Turn
	Profile profilex.Profile
}

// BaseMetadata seeds response metadata with the keys every agent response
// must carry.
func BaseMetadata(id AgentID, now time.Time) map[string]any {
	return map[string]any{
		"agent_id":  string(id),
		"timestamp": now.UTC().Format(time.RFC3339Nano),
	}
}

// DegradedResponse is the polite error reply used whenever a turn cannot be
// served normally. The original failure stays in logs only.
func DegradedResponse(id AgentID, now time.Time) Response {
	meta := BaseMetadata(id, now)
	meta["error"] = true
	return Response{
		Message: "Sorry, I ran into a hiccup handling that. Could you try " +
			"rephrasing, or ask me something else?",
		Suggestions: []string{"Try again", "Start over"},
		Metadata:    meta,
	}
}
