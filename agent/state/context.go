package state

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TurnOrigin identifies who produced a turn.
type TurnOrigin string

const (
	TurnOriginUser    TurnOrigin = "user"
	TurnOriginAgent   TurnOrigin = "agent"
	TurnOriginHandoff TurnOrigin = "handoff"
)

// Turn is one entry in a conversation history.
type Turn struct {
	ID        string     `json:"id"`
	Origin    TurnOrigin `json:"origin"`
	AgentID   string     `json:"agent_id,omitempty"`
	Content   string     `json:"content"`
	Timestamp time.Time  `json:"timestamp"`
}

// Context is the per-user conversation state. It is a value type: every
// transition returns a new Context and never mutates the receiver, so a
// Context handed out of the store can be read safely as a snapshot. All
// writes go back through the store as whole-context replacements.
type Context struct {
	UserID           string    `json:"user_id"`
	CurrentAgent     string    `json:"current_agent,omitempty"`
	History          []Turn    `json:"history,omitempty"`
	HandoffRequested bool      `json:"handoff_requested,omitempty"`
	HandoffTarget    string    `json:"handoff_target,omitempty"`
	HandoffReason    string    `json:"handoff_reason,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	LastActivity     time.Time `json:"last_activity"`
}

var (
	ErrInvalidUser    = errors.New("user id is empty")
	ErrHandoffState   = errors.New("handoff flags are inconsistent")
	ErrContextMissing = errors.New("conversation context not found")
)

func NewContext(userID string, now time.Time) Context {
	return Context{
		UserID:       userID,
		CreatedAt:    now.UTC(),
		LastActivity: now.UTC(),
	}
}

// appendTurn clones the history so older snapshots never observe the new
// entry through a shared backing array.
func (c Context) appendTurn(t Turn) Context {
	history := make([]Turn, len(c.History), len(c.History)+1)
	copy(history, c.History)
	c.History = append(history, t)
	return c
}

func (c Context) WithUserTurn(content string, now time.Time) Context {
	c = c.appendTurn(Turn{
		ID:        uuid.NewString(),
		Origin:    TurnOriginUser,
		Content:   content,
		Timestamp: now.UTC(),
	})
	c.LastActivity = now.UTC()
	return c
}

func (c Context) WithAgentTurn(agentID, content string, now time.Time) Context {
	c = c.appendTurn(Turn{
		ID:        uuid.NewString(),
		Origin:    TurnOriginAgent,
		AgentID:   agentID,
		Content:   content,
		Timestamp: now.UTC(),
	})
	c.LastActivity = now.UTC()
	return c
}

// WithHandoffTurn records the ownership transfer itself as a history entry.
func (c Context) WithHandoffTurn(from, to, reason string, now time.Time) Context {
	content := fmt.Sprintf("conversation transferred from %s to %s", from, to)
	if reason != "" {
		content += ": " + reason
	}
	c = c.appendTurn(Turn{
		ID:        uuid.NewString(),
		Origin:    TurnOriginHandoff,
		AgentID:   to,
		Content:   content,
		Timestamp: now.UTC(),
	})
	c.LastActivity = now.UTC()
	return c
}

func (c Context) WithAgent(agentID string) Context {
	c.CurrentAgent = agentID
	return c
}

// WithHandoffRequest records a deferred handoff to be honored on the next
// inbound turn.
func (c Context) WithHandoffRequest(target, reason string) Context {
	c.HandoffRequested = true
	c.HandoffTarget = target
	c.HandoffReason = reason
	return c
}

func (c Context) ClearHandoff() Context {
	c.HandoffRequested = false
	c.HandoffTarget = ""
	c.HandoffReason = ""
	return c
}

// Recent returns up to n of the most recent turns, oldest first.
func (c Context) Recent(n int) []Turn {
	if n <= 0 || len(c.History) == 0 {
		return nil
	}
	if n > len(c.History) {
		n = len(c.History)
	}
	out := make([]Turn, n)
	copy(out, c.History[len(c.History)-n:])
	return out
}

func (c Context) Validate() error {
	if c.UserID == "" {
		return ErrInvalidUser
	}
	if c.HandoffRequested {
		if c.HandoffTarget == "" {
			return fmt.Errorf("%w: requested without target", ErrHandoffState)
		}
		if c.HandoffTarget == c.CurrentAgent {
			return fmt.Errorf("%w: target equals current agent", ErrHandoffState)
		}
	} else if c.HandoffTarget != "" {
		return fmt.Errorf("%w: target set without request", ErrHandoffState)
	}
	return nil
}
