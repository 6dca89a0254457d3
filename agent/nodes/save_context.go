package turnnode

import (
	"fmt"

	contractx "github.com/panuwats/concierge/agent/contract"
	statex "github.com/panuwats/concierge/agent/state"
)

// SaveContext validates and persists the updated conversation as a whole-
// context replacement.
func SaveContext(in *TurnState, store statex.Store) (*TurnState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: turn state is nil", contractx.ErrValidation)
	}

	if err := in.Conv.Validate(); err != nil {
		return nil, fmt.Errorf("context validation failed: %w", err)
	}
	store.Put(in.Conv)
	return in, nil
}
