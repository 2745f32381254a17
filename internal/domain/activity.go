package domain

// Activity is an extracurricular offering with its current roster.
type Activity struct {
	Name            string
	Description     string
	Schedule        string
	MaxParticipants int
	Participants    []string
}

// SpotsLeft reports remaining capacity. It can go negative because capacity is not enforced by default.
func (a Activity) SpotsLeft() int {
	return a.MaxParticipants - len(a.Participants)
}

// HasParticipant reports whether email is on the roster.
func (a Activity) HasParticipant(email string) bool {
	return indexOf(a.Participants, email) >= 0
}

func (a Activity) clone() Activity {
	out := a
	out.Participants = make([]string, len(a.Participants))
	copy(out.Participants, a.Participants)
	return out
}

func indexOf(participants []string, email string) int {
	for i, p := range participants {
		if p == email {
			return i
		}
	}
	return -1
}
