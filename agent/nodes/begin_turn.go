package turnnode

import (
	"fmt"

	contractx "github.com/panuwats/concierge/agent/contract"
	statex "github.com/panuwats/concierge/agent/state"
)

// BeginTurn loads or creates the conversation context, appends the inbound
// message, and persists immediately. This happens before any blocking call,
// so a later timeout never loses the fact that the user spoke.
func BeginTurn(in *TurnState, store statex.Store) (*TurnState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: turn state is nil", contractx.ErrValidation)
	}

	conv := store.GetOrCreate(in.UserID)
	conv = conv.WithUserTurn(in.Text, in.Now)
	store.Put(conv)

	in.Conv = conv
	return in, nil
}
