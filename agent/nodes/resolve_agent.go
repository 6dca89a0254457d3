package turnnode

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/panuwats/concierge/agent/contract"
)

// ResolveAgent decides which agent owns this turn, in strict priority order:
//
//  1. an explicit per-turn preference (when it names a registered agent)
//  2. a handoff recorded on a previous turn
//  3. sticky routing: the current agent keeps the turn when CanHandle is true
//  4. one classification call, falling back to the default agent on any
//     failure or unregistered result
func ResolveAgent(
	ctx context.Context,
	in *TurnState,
	roster contractx.Registry,
	classifier contractx.Classifier,
	classifyTimeout time.Duration,
) (*TurnState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: turn state is nil", contractx.ErrValidation)
	}

	conv := in.Conv

	if in.Preference != "" {
		if _, ok := roster.Get(in.Preference); ok {
			in.Selected = in.Preference
			// The user's explicit choice supersedes any pending deferred
			// handoff; its flags must not fire on a later turn.
			if conv.HandoffRequested {
				in.Conv = conv.ClearHandoff()
				conv = in.Conv
			}
			if conv.CurrentAgent != "" && conv.CurrentAgent != string(in.Preference) {
				in.ViaHandoff = true
				in.Handoff = contractx.HandoffContext{
					From:   contractx.AgentID(conv.CurrentAgent),
					Reason: "user requested this agent",
				}
			}
			return in, nil
		}
		log.Warn().
			Str("user_id", in.UserID).
			Str("preference", string(in.Preference)).
			Msg("ignoring preference for unregistered agent")
	}

	if conv.HandoffRequested {
		target := contractx.AgentID(conv.HandoffTarget)
		if _, ok := roster.Get(target); ok {
			in.Selected = target
			in.ViaHandoff = true
			in.Handoff = contractx.HandoffContext{
				From:   contractx.AgentID(conv.CurrentAgent),
				Reason: conv.HandoffReason,
			}
			return in, nil
		}
		// Stale flag pointing at an unknown agent: drop it and route
		// normally.
		log.Warn().
			Str("user_id", in.UserID).
			Str("target", conv.HandoffTarget).
			Msg("recorded handoff targets unregistered agent, clearing")
		in.Conv = conv.ClearHandoff()
		conv = in.Conv
	}

	if conv.CurrentAgent != "" {
		if current, ok := roster.Get(contractx.AgentID(conv.CurrentAgent)); ok {
			if current.CanHandle(in.Text, conv) {
				in.Selected = current.ID()
				return in, nil
			}
		}
	}

	cctx, cancel := context.WithTimeout(ctx, classifyTimeout)
	defer cancel()

	in.Classified = true
	id, err := classifier.Classify(cctx, contractx.ClassifyRequest{
		Message: in.Text,
		Recent:  conv.Recent(6),
		Profile: in.Profile,
	})
	if err != nil {
		log.Warn().Err(err).Str("user_id", in.UserID).Msg("classification failed, using default agent")
		in.Selected = roster.Default().ID()
		return in, nil
	}
	if _, ok := roster.Get(id); !ok {
		log.Warn().
			Str("user_id", in.UserID).
			Str("classified", string(id)).
			Msg("classifier returned unregistered agent, using default")
		in.Selected = roster.Default().ID()
		return in, nil
	}

	in.Selected = id
	return in, nil
}
