package domain

import "time"

// InterestStatus represents the lifecycle state of a donation interest.
type InterestStatus string

const (
	InterestPending   InterestStatus = "pending"
	InterestConfirmed InterestStatus = "confirmed"
	InterestCompleted InterestStatus = "completed"
	InterestCancelled InterestStatus = "cancelled"
)

// Party identifies how a caller relates to an interest. Values combine as a bit set.
type Party uint8

const (
	PartyDonor Party = 1 << iota
	PartyOwner
	PartyAdmin
)

func (p Party) Has(q Party) bool { return p&q != 0 }

// interestTransitions maps each allowed move to the parties that may make it.
var interestTransitions = map[InterestStatus]map[InterestStatus]Party{
	InterestPending: {
		InterestConfirmed: PartyOwner,
		InterestCancelled: PartyDonor | PartyOwner | PartyAdmin,
	},
	InterestConfirmed: {
		InterestCompleted: PartyOwner | PartyAdmin,
		InterestCancelled: PartyDonor | PartyOwner | PartyAdmin,
	},
}

func (s InterestStatus) Valid() bool {
	switch s {
	case InterestPending, InterestConfirmed, InterestCompleted, InterestCancelled:
		return true
	}
	return false
}

func (s InterestStatus) Terminal() bool {
	return len(interestTransitions[s]) == 0
}

func (s InterestStatus) CanTransitionTo(next InterestStatus) bool {
	_, ok := interestTransitions[s][next]
	return ok
}

// AllowedParties returns who may move an interest from s to next.
func (s InterestStatus) AllowedParties(next InterestStatus) Party {
	return interestTransitions[s][next]
}

// Active reports whether the status still occupies the donor's single slot on a request.
func (s InterestStatus) Active() bool { return s != InterestCancelled }

// DonationInterest records a donor's offer to give blood for one request.
type DonationInterest struct {
	ID        string         `json:"id" bson:"_id"`
	DonorID   string         `json:"donor_id" bson:"donor_id"`
	RequestID string         `json:"request_id" bson:"request_id"`
	Status    InterestStatus `json:"status" bson:"status"`
	Active    bool           `json:"-" bson:"active"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" bson:"updated_at"`
}
