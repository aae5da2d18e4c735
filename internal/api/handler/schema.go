package handler

import (
	"time"

	"github.com/lifelink/coordination-api/internal/core/domain"
	"github.com/lifelink/coordination-api/internal/core/ports"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// envelope wraps every successful response.
type envelope struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// --- Auth ---

type registerRequest struct {
	Email    string `json:"email"     validate:"required,email"`
	Password string `json:"password"  validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required"`
	Role     string `json:"role"      validate:"required,oneof=donor recipient"`
	Phone    string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string       `json:"token,omitempty"`
	User  *domain.User `json:"user,omitempty"`
}

// --- Profile ---

type updateProfileRequest struct {
	FullName    *string `json:"full_name"    validate:"omitempty,min=1"`
	Email       *string `json:"email"        validate:"omitempty,email"`
	Role        *string `json:"role"`
	Phone       *string `json:"phone"        validate:"omitempty,min=1"`
	BloodGroup  *string `json:"blood_group"  validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Location    *string `json:"location"`
	IsAvailable *bool   `json:"is_available"`
}

// --- Blood requests ---

type createRequestRequest struct {
	BloodGroup      string    `json:"blood_group"      validate:"required,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	UnitsNeeded     int       `json:"units_needed"     validate:"required,gt=0"`
	Urgency         string    `json:"urgency"          validate:"required,oneof=low medium high critical"`
	HospitalName    string    `json:"hospital_name"    validate:"required"`
	HospitalAddress string    `json:"hospital_address"`
	ContactPhone    string    `json:"contact_phone"    validate:"required"`
	AdditionalNotes string    `json:"additional_notes"`
	NeededBy        time.Time `json:"needed_by"        validate:"required"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

type requestWithInterests struct {
	Request   *domain.BloodRequest      `json:"request"`
	Interests []ports.InterestWithDonor `json:"interests"`
}

type dashboardResponse struct {
	Profile      *domain.Profile            `json:"profile"`
	OpenRequests []*domain.BloodRequest     `json:"open_requests,omitempty"`
	MyInterests  []*domain.DonationInterest `json:"my_interests,omitempty"`
	MyRequests   []requestWithInterests     `json:"my_requests,omitempty"`
	Stats        *ports.DashboardStats      `json:"stats,omitempty"`
}
