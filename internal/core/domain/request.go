package domain

import (
	"cmp"
	"slices"
	"time"
)

// RequestStatus represents the lifecycle state of a blood request.
type RequestStatus string

const (
	RequestOpen      RequestStatus = "open"
	RequestFulfilled RequestStatus = "fulfilled"
	RequestCancelled RequestStatus = "cancelled"
)

// requestTransitions defines the allowed forward moves. Statuses without an
// entry are terminal.
var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestOpen: {RequestFulfilled, RequestCancelled},
}

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestOpen, RequestFulfilled, RequestCancelled:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s RequestStatus) Terminal() bool {
	return len(requestTransitions[s]) == 0
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	return slices.Contains(requestTransitions[s], next)
}

// BloodRequest is a recipient's call for a number of blood units.
type BloodRequest struct {
	ID              string        `json:"id" bson:"_id"`
	RecipientID     string        `json:"recipient_id" bson:"recipient_id"`
	BloodGroup      BloodGroup    `json:"blood_group" bson:"blood_group"`
	UnitsNeeded     int           `json:"units_needed" bson:"units_needed"`
	Urgency         Urgency       `json:"urgency" bson:"urgency"`
	UrgencyRank     int           `json:"-" bson:"urgency_rank"`
	HospitalName    string        `json:"hospital_name" bson:"hospital_name"`
	HospitalAddress string        `json:"hospital_address" bson:"hospital_address"`
	ContactPhone    string        `json:"contact_phone" bson:"contact_phone"`
	AdditionalNotes string        `json:"additional_notes,omitempty" bson:"additional_notes,omitempty"`
	NeededBy        time.Time     `json:"needed_by" bson:"needed_by"`
	Status          RequestStatus `json:"status" bson:"status"`
	CreatedAt       time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" bson:"updated_at"`
}

func (r *BloodRequest) OwnedBy(principalID string) bool {
	return r.RecipientID == principalID
}

// SortByPriority orders requests most urgent first and, within the same
// urgency, longest waiting first.
func SortByPriority(reqs []*BloodRequest) {
	slices.SortStableFunc(reqs, func(a, b *BloodRequest) int {
		if c := cmp.Compare(b.Urgency.Rank(), a.Urgency.Rank()); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

// SortNewestFirst orders requests by creation time, most recent first.
func SortNewestFirst(reqs []*BloodRequest) {
	slices.SortStableFunc(reqs, func(a, b *BloodRequest) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
