package turnnode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/panuwats/concierge/agent/contract"
	profilex "github.com/panuwats/concierge/profile"
)

// LoadProfile fetches the user profile. Lookup failures degrade to an empty
// profile; personalization is never worth failing a turn over.
func LoadProfile(ctx context.Context, in *TurnState, repo profilex.Repository) (*TurnState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: turn state is nil", contractx.ErrValidation)
	}

	prof, err := repo.Get(ctx, in.UserID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", in.UserID).Msg("profile lookup failed, continuing without")
		prof = profilex.Profile{UserID: in.UserID}
	}
	in.Profile = prof
	return in, nil
}
