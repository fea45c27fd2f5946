package domain

// Identity is the provider's view of a signed-in user. It is fetched fresh on
// every login and never stored server-side.
type Identity struct {
	UserID    string
	Name      string
	Email     string // optional
	AvatarURL string // optional
	TeamID    string
	TeamName  string
}
