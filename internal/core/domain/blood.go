package domain

// BloodGroup is an ABO/Rh blood type code.
type BloodGroup string

const (
	BloodAPos  BloodGroup = "A+"
	BloodANeg  BloodGroup = "A-"
	BloodBPos  BloodGroup = "B+"
	BloodBNeg  BloodGroup = "B-"
	BloodABPos BloodGroup = "AB+"
	BloodABNeg BloodGroup = "AB-"
	BloodOPos  BloodGroup = "O+"
	BloodONeg  BloodGroup = "O-"
)

// BloodGroups lists every valid code.
var BloodGroups = []BloodGroup{
	BloodAPos, BloodANeg, BloodBPos, BloodBNeg,
	BloodABPos, BloodABNeg, BloodOPos, BloodONeg,
}

func (g BloodGroup) Valid() bool {
	for _, v := range BloodGroups {
		if g == v {
			return true
		}
	}
	return false
}

// Urgency is an ordinal severity tag on a blood request.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

var urgencyRank = map[Urgency]int{
	UrgencyLow:      1,
	UrgencyMedium:   2,
	UrgencyHigh:     3,
	UrgencyCritical: 4,
}

func (u Urgency) Valid() bool {
	_, ok := urgencyRank[u]
	return ok
}

// Rank orders urgencies: critical > high > medium > low. Unknown values rank 0.
func (u Urgency) Rank() int { return urgencyRank[u] }
