// Package profile provides read-mostly access to user profiles. A missing
// profile is a valid empty result, never an error: personalization is
// best-effort and must not block a conversation turn.
package profile

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

type Profile struct {
	bun.BaseModel `bun:"table:user_profiles,alias:up" json:"-"`

	UserID      string            `bun:"user_id,pk" json:"user_id"`
	DisplayName string            `bun:"display_name" json:"display_name,omitempty"`
	Preferences map[string]string `bun:"preferences,type:jsonb" json:"preferences,omitempty"`
	UpdatedAt   time.Time         `bun:"updated_at" json:"updated_at"`
}

// Preference returns a single preference value, empty when unset.
func (p Profile) Preference(key string) string {
	if p.Preferences == nil {
		return ""
	}
	return p.Preferences[key]
}

type Repository interface {
	Get(ctx context.Context, userID string) (Profile, error)
	Upsert(ctx context.Context, p Profile) error
}
