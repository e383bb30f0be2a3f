package domain

// Member represents user's participation meta for a room.
// No transport or lifecycle logic here.
type Member struct {
	User *User
	// ClientToken is the browser-level token of the HTTP session that opened
	// the connection. Several connections may share one token.
	ClientToken string
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(user *User) *Member {
	return &Member{User: user}
}

// Participant is the denormalized view of a member inside a room.
type Participant struct {
	Username string `json:"username"`
	ID       UserID `json:"id"`
}

func (m *Member) Participant() Participant {
	return Participant{Username: m.User.Username, ID: m.User.ID}
}
