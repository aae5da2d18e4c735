package domain

import "time"

// Profile is the per-principal record that carries role and donor details.
type Profile struct {
	ID          string     `json:"id" bson:"_id"`
	FullName    string     `json:"full_name" bson:"full_name"`
	Email       string     `json:"email" bson:"email"`
	Role        Role       `json:"role" bson:"role"`
	Phone       string     `json:"phone,omitempty" bson:"phone,omitempty"`
	BloodGroup  BloodGroup `json:"blood_group,omitempty" bson:"blood_group,omitempty"`
	Location    string     `json:"location,omitempty" bson:"location,omitempty"`
	IsAvailable bool       `json:"is_available" bson:"is_available"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
}

// ProfilePatch holds the fields an owner may change. Nil means unchanged.
type ProfilePatch struct {
	FullName    *string
	Email       *string
	Role        *Role
	Phone       *string
	BloodGroup  *BloodGroup
	Location    *string
	IsAvailable *bool
}

// Apply copies the patch onto p. Availability only sticks for donors; any
// other role is forced back to unavailable. Role is never copied.
func (p *Profile) Apply(patch ProfilePatch, now time.Time) {
	if patch.FullName != nil {
		p.FullName = *patch.FullName
	}
	if patch.Email != nil {
		p.Email = *patch.Email
	}
	if patch.Phone != nil {
		p.Phone = *patch.Phone
	}
	if patch.BloodGroup != nil {
		p.BloodGroup = *patch.BloodGroup
	}
	if patch.Location != nil {
		p.Location = *patch.Location
	}
	if patch.IsAvailable != nil {
		p.IsAvailable = *patch.IsAvailable
	}
	if !p.Role.CanDonate() {
		p.IsAvailable = false
	}
	p.UpdatedAt = now
}
