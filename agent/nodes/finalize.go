package turnnode

import (
	"fmt"

	contractx "github.com/panuwats/concierge/agent/contract"
)

// FinalizeEnvelope assembles the unified response envelope for the caller.
func FinalizeEnvelope(in *TurnState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: turn state is nil", contractx.ErrValidation)
	}

	meta := in.Response.Metadata
	if meta == nil {
		meta = contractx.BaseMetadata(in.RespAgent, in.Now)
	}

	return GraphOutput{
		Envelope: contractx.Envelope{
			Agent:       in.RespAgent,
			Message:     in.Response.Message,
			Actions:     in.Response.Actions,
			Suggestions: in.Response.Suggestions,
			Handoff:     in.Response.Handoff,
			Metadata:    meta,
		},
	}, nil
}
