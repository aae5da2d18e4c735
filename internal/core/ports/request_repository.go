package ports

import (
	"context"
	"time"

	"github.com/lifelink/coordination-api/internal/core/domain"
)

// RequestRepository defines persistence operations for blood requests.
type RequestRepository interface {
	Create(ctx context.Context, r *domain.BloodRequest) error
	// FindByID returns domain.ErrRequestNotFound when no request exists.
	FindByID(ctx context.Context, id string) (*domain.BloodRequest, error)
	// ListByRecipient returns the recipient's requests, newest first.
	ListByRecipient(ctx context.Context, recipientID string) ([]*domain.BloodRequest, error)
	// ListOpenByBloodGroup returns open requests for the group ordered by
	// urgency descending, then creation time ascending.
	ListOpenByBloodGroup(ctx context.Context, group domain.BloodGroup) ([]*domain.BloodRequest, error)
	// ListAll returns every request, newest first.
	ListAll(ctx context.Context) ([]*domain.BloodRequest, error)
	// UpdateStatus moves a request from one status to another only if it is
	// still in the from status. A lost race returns domain.ErrInvalidTransition.
	UpdateStatus(ctx context.Context, id string, from, to domain.RequestStatus, at time.Time) (*domain.BloodRequest, error)
}
