package profile

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// MemoryRepository is the fallback used when no database is configured.
type MemoryRepository struct {
	profiles *xsync.MapOf[string, Profile]
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemory() *MemoryRepository {
	return &MemoryRepository{profiles: xsync.NewMapOf[string, Profile]()}
}

func (r *MemoryRepository) Get(_ context.Context, userID string) (Profile, error) {
	if p, ok := r.profiles.Load(userID); ok {
		return p, nil
	}
	return Profile{UserID: userID}, nil
}

func (r *MemoryRepository) Upsert(_ context.Context, p Profile) error {
	p.UpdatedAt = time.Now().UTC()
	r.profiles.Store(p.UserID, p)
	return nil
}
