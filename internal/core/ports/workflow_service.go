package ports

import (
	"context"
	"time"

	"github.com/lifelink/coordination-api/internal/core/domain"
)

// CreateRequestInput carries the fields a recipient supplies for a new request.
type CreateRequestInput struct {
	BloodGroup      domain.BloodGroup
	UnitsNeeded     int
	Urgency         domain.Urgency
	HospitalName    string
	HospitalAddress string
	ContactPhone    string
	AdditionalNotes string
	NeededBy        time.Time
}

// InterestWithDonor is an interest as the request owner sees it, with the
// donor's contact details. Name and phone are empty when the donor's profile
// is gone.
type InterestWithDonor struct {
	*domain.DonationInterest
	DonorName  string `json:"donor_name"`
	DonorPhone string `json:"donor_phone,omitempty"`
}

// RequestWithRecipient is a request with the requesting recipient's identity.
type RequestWithRecipient struct {
	*domain.BloodRequest
	RecipientName  string `json:"recipient_name"`
	RecipientEmail string `json:"recipient_email,omitempty"`
}

// RequestWithInterests pairs a request with the interests it has received.
type RequestWithInterests struct {
	Request   *domain.BloodRequest
	Interests []InterestWithDonor
}

// DashboardStats is the admin overview.
type DashboardStats struct {
	TotalUsers       int `json:"total_users"`
	TotalDonors      int `json:"total_donors"`
	TotalRecipients  int `json:"total_recipients"`
	ActiveRequests   int `json:"active_requests"`
	CriticalRequests int `json:"critical_requests"`
	AvailableDonors  int `json:"available_donors"`
}

// Dashboard is the role-specific landing view. Exactly one of the role
// sections is populated, matching Profile.Role.
type Dashboard struct {
	Profile *domain.Profile

	// donor
	OpenRequests []*domain.BloodRequest
	MyInterests  []*domain.DonationInterest

	// recipient
	MyRequests []RequestWithInterests

	// admin
	Stats *DashboardStats
}

// WorkflowService is the coordinator contract consumed by the transport layer.
type WorkflowService interface {
	GetProfile(ctx context.Context, principalID string) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, principalID string, patch domain.ProfilePatch) (*domain.Profile, error)
	ListProfiles(ctx context.Context, callerID string) ([]*domain.Profile, error)

	CreateRequest(ctx context.Context, recipientID string, in CreateRequestInput) (*domain.BloodRequest, error)
	GetRequest(ctx context.Context, requestID string) (*domain.BloodRequest, error)
	ListRequestsForRecipient(ctx context.Context, recipientID string) ([]*domain.BloodRequest, error)
	ListOpenRequestsByBloodGroup(ctx context.Context, group domain.BloodGroup) ([]*domain.BloodRequest, error)
	ListAllRequests(ctx context.Context, callerID string) ([]RequestWithRecipient, error)
	SetRequestStatus(ctx context.Context, requestID string, status domain.RequestStatus, callerID string) (*domain.BloodRequest, error)

	ExpressInterest(ctx context.Context, donorID, requestID string) (*domain.DonationInterest, error)
	ListInterestsForRequest(ctx context.Context, requestID, callerID string) ([]InterestWithDonor, error)
	ListInterestsForDonor(ctx context.Context, donorID string) ([]*domain.DonationInterest, error)
	SetInterestStatus(ctx context.Context, interestID string, status domain.InterestStatus, callerID string) (*domain.DonationInterest, error)

	Dashboard(ctx context.Context, callerID string) (*Dashboard, error)
}
