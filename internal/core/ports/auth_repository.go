package ports

import (
	"context"

	"github.com/lifelink/coordination-api/internal/core/domain"
)

// AuthRepository defines the interface for user authentication persistence.
type AuthRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}

// LoginEmails keeps the sign-in email in step with the profile email.
type LoginEmails interface {
	// UpdateEmail returns domain.ErrUserExists when another account already
	// uses email and domain.ErrUserNotFound when userID has no credentials.
	UpdateEmail(ctx context.Context, userID, email string) error
}
