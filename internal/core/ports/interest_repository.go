package ports

import (
	"context"
	"time"

	"github.com/lifelink/coordination-api/internal/core/domain"
)

// InterestRepository defines persistence operations for donation interests.
type InterestRepository interface {
	// Create inserts a new interest. The store enforces at most one active
	// interest per (donor, request) and reports a violation as
	// domain.ErrDuplicateInterest.
	Create(ctx context.Context, in *domain.DonationInterest) error
	// FindByID returns domain.ErrInterestNotFound when no interest exists.
	FindByID(ctx context.Context, id string) (*domain.DonationInterest, error)
	// FindActive returns the donor's non-cancelled interest on a request, or
	// domain.ErrInterestNotFound.
	FindActive(ctx context.Context, donorID, requestID string) (*domain.DonationInterest, error)
	// ListByRequest returns the request's interests, oldest first.
	ListByRequest(ctx context.Context, requestID string) ([]*domain.DonationInterest, error)
	// ListByDonor returns the donor's interests, newest first.
	ListByDonor(ctx context.Context, donorID string) ([]*domain.DonationInterest, error)
	// UpdateStatus is a compare-and-swap on the current status. A lost race
	// returns domain.ErrInvalidTransition.
	UpdateStatus(ctx context.Context, id string, from, to domain.InterestStatus, at time.Time) (*domain.DonationInterest, error)
}

// InterestClaims serialises concurrent interest attempts by the same donor on
// the same request. It narrows the race window; the repository's uniqueness
// constraint stays authoritative.
type InterestClaims interface {
	// Claim returns false when another attempt holds the claim.
	Claim(ctx context.Context, donorID, requestID string) (bool, error)
	Release(ctx context.Context, donorID, requestID string) error
}
