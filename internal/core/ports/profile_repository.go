package ports

import (
	"context"

	"github.com/lifelink/coordination-api/internal/core/domain"
)

// ProfileRepository defines persistence operations for profiles.
type ProfileRepository interface {
	Create(ctx context.Context, p *domain.Profile) error
	// FindByID returns domain.ErrProfileNotFound when no profile exists.
	FindByID(ctx context.Context, id string) (*domain.Profile, error)
	// Update replaces the mutable fields of an existing profile. Role is never written.
	Update(ctx context.Context, p *domain.Profile) error
	// List returns every profile, newest first.
	List(ctx context.Context) ([]*domain.Profile, error)
}
