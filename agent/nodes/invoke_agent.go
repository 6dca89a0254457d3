package turnnode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/panuwats/concierge/agent/contract"
)

// InvokeAgent runs the selected agent and applies the outcome to the
// conversation: the reply turn, ownership changes, and any handoff
// directive. Agent failures are absorbed here into the default agent's
// degraded response so the turn always completes.
func InvokeAgent(ctx context.Context, in *TurnState, roster contractx.Registry) (*TurnState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: turn state is nil", contractx.ErrValidation)
	}

	ag, ok := roster.Get(in.Selected)
	if !ok {
		ag = roster.Default()
		in.Selected = ag.ID()
	}

	var (
		resp contractx.Response
		err  error
	)
	if in.ViaHandoff {
		resp, err = ag.HandleHandoff(ctx, in.Handoff, in.Conv)
		if err == nil {
			in.Conv = in.Conv.
				ClearHandoff().
				WithHandoffTurn(string(in.Handoff.From), string(in.Selected), in.Handoff.Reason, in.Now).
				WithAgent(string(in.Selected))
		}
	} else {
		resp, err = ag.ProcessMessage(ctx, in.Text, in.Conv, in.Profile)
		if err == nil {
			in.Conv = in.Conv.WithAgent(string(in.Selected))
		}
	}

	if err != nil {
		log.Error().Err(err).
			Str("user_id", in.UserID).
			Str("agent", string(in.Selected)).
			Msg("agent invocation failed, degrading to default agent")
		fallback := roster.Default()
		in.Selected = fallback.ID()
		in.Conv = in.Conv.ClearHandoff().WithAgent(string(in.Selected))
		resp = contractx.DegradedResponse(in.Selected, in.Now)
	}

	if len(resp.Suggestions) == 0 {
		resp.Suggestions = ag.Suggestions(in.Conv)
	}

	in.Conv = in.Conv.WithAgentTurn(string(in.Selected), resp.Message, in.Now)
	in.Response = resp
	in.RespAgent = in.Selected

	if resp.Handoff != nil {
		applyHandoffDirective(ctx, in, roster)
	}

	return in, nil
}

func applyHandoffDirective(ctx context.Context, in *TurnState, roster contractx.Registry) {
	directive := in.Response.Handoff

	target, ok := roster.Get(directive.TargetAgent)
	if !ok || directive.TargetAgent == in.Selected {
		// Same recovery class as a malformed classification: drop the
		// directive, keep the producing agent's reply.
		log.Warn().
			Str("user_id", in.UserID).
			Str("from", string(in.Selected)).
			Str("target", string(directive.TargetAgent)).
			Msg("dropping handoff directive with invalid target")
		in.Response.Handoff = nil
		return
	}

	if !directive.AutoHandoff {
		// Deferred: record the flags; the next inbound turn routes straight
		// to the target.
		in.Conv = in.Conv.WithHandoffRequest(string(directive.TargetAgent), directive.Reason)
		return
	}

	handoff := contractx.HandoffContext{
		From:   in.Selected,
		Reason: directive.Reason,
		Carry:  directive.Context,
	}
	resp, err := target.HandleHandoff(ctx, handoff, in.Conv)
	if err != nil {
		log.Error().Err(err).
			Str("user_id", in.UserID).
			Str("target", string(directive.TargetAgent)).
			Msg("handoff target failed, degrading to default agent")
		fallback := roster.Default()
		target = fallback
		resp = contractx.DegradedResponse(fallback.ID(), in.Now)
	}

	in.Conv = in.Conv.
		WithHandoffTurn(string(in.Selected), string(target.ID()), directive.Reason, in.Now).
		WithAgent(string(target.ID())).
		ClearHandoff()
	in.Conv = in.Conv.WithAgentTurn(string(target.ID()), resp.Message, in.Now)

	// The envelope carries the executed handoff so the UI can surface the
	// ownership change.
	resp.Handoff = directive
	in.Response = resp
	in.RespAgent = target.ID()
}
