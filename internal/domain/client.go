package domain

import "strings"

// ClientProfile is the account record behind an Actor.
type ClientProfile struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
	Telephone string `json:"telephone"`
}

func (p ClientProfile) FullName() string {
	return strings.TrimSpace(p.Name + " " + p.LastName)
}

// Actor returns the session view of the profile.
func (p ClientProfile) Actor() Actor {
	return Actor{ID: p.ID, Name: p.FullName(), Email: p.Email}
}

// Matches reports whether query occurs, case-insensitively, in the name,
// last name, email or telephone.
func (p ClientProfile) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, field := range []string{p.Name, p.LastName, p.Email, p.Telephone} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// ProfileUpdate carries the fields to change. Empty fields are left as they
// are.
type ProfileUpdate struct {
	Name      string `json:"name,omitempty"`
	LastName  string `json:"lastname,omitempty"`
	Email     string `json:"email,omitempty"`
	Telephone string `json:"telephone,omitempty"`
}

func (u ProfileUpdate) IsEmpty() bool {
	return strings.TrimSpace(u.Name+u.LastName+u.Email+u.Telephone) == ""
}

// Apply returns p with the non-empty fields of u.
func (u ProfileUpdate) Apply(p ClientProfile) ClientProfile {
	if v := strings.TrimSpace(u.Name); v != "" {
		p.Name = v
	}
	if v := strings.TrimSpace(u.LastName); v != "" {
		p.LastName = v
	}
	if v := strings.TrimSpace(u.Email); v != "" {
		p.Email = strings.ToLower(v)
	}
	if v := strings.TrimSpace(u.Telephone); v != "" {
		p.Telephone = v
	}
	return p
}

// ClientPage is one page of the administrator's client listing. Page is
// 1-based.
type ClientPage struct {
	Items []ClientProfile
	Total int
	Page  int
	Size  int
	Pages int
}

const (
	AddressTypeHome  = "home"
	AddressTypeStore = "store"
)

type Address struct {
	ID       int64  `json:"id"`
	ClientID int64  `json:"client_id"`
	Street   string `json:"street"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zip_code"`
	Type     string `json:"address_type"`
}

// String formats the address on one line, skipping empty parts.
func (a Address) String() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.Street, a.City, a.State, a.ZipCode} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// DefaultStoreAddress is shown when the backend cannot provide the store
// address.
var DefaultStoreAddress = Address{
	ID:      1,
	Street:  "Av. Principal 123",
	City:    "Buenos Aires",
	State:   "CABA",
	ZipCode: "C1001",
	Type:    AddressTypeStore,
}

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DefaultCategories is the category list used when the backend has none to
// offer.
func DefaultCategories() []Category {
	return []Category{
		{ID: 1, Name: "Electronics", Description: "Electronic products"},
		{ID: 2, Name: "Computing", Description: "Computers and accessories"},
		{ID: 3, Name: "Home", Description: "Household goods"},
		{ID: 4, Name: "Clothing", Description: "Clothing and accessories"},
		{ID: 5, Name: "Sports", Description: "Sporting goods"},
		{ID: 6, Name: "General", Description: "General category"},
	}
}
