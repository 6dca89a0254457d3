// Package turnnode contains the per-step functions composed into the
// orchestrator's turn graph. Each node takes the shared *TurnState, applies
// one step of the turn algorithm, and passes the state on.
package turnnode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/panuwats/concierge/agent/contract"
	statex "github.com/panuwats/concierge/agent/state"
	profilex "github.com/panuwats/concierge/profile"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidUser    = errors.New("user id is empty")
)

type GraphInput struct {
	UserID     string
	Text       string
	Preference contractx.AgentID
}

type GraphOutput struct {
	Envelope contractx.Envelope
}

type TurnState struct {
	UserID     string
	Text       string
	Preference contractx.AgentID
	Now        time.Time

	Conv    statex.Context
	Profile profilex.Profile

	// Routing decision for this turn.
	Selected   contractx.AgentID
	ViaHandoff bool
	Handoff    contractx.HandoffContext
	Classified bool

	// Outcome.
	Response  contractx.Response
	RespAgent contractx.AgentID
}

func ValidateTurn(in GraphInput, nowFn func() time.Time) (*TurnState, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, ErrInvalidUser
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &TurnState{
		UserID:     userID,
		Text:       text,
		Preference: in.Preference,
		Now:        nowFn().UTC(),
	}, nil
}
