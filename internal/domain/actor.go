package domain

// AdminActorID is reserved for the store administrator.
const AdminActorID int64 = 0

// Actor is the authenticated user of the storefront.
type Actor struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AuthToken string `json:"-"`
}

func (a Actor) IsAdmin() bool {
	return a.ID == AdminActorID
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Registration struct {
	Name      string `json:"name"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Telephone string `json:"telephone,omitempty"`
}
