package ports

import (
	"context"

	"github.com/lifelink/coordination-api/internal/core/domain"
)

// RegisterInput carries the data needed to open an account and its profile.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Role     domain.Role
	Phone    string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}
