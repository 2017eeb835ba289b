package payment

import "strings"

// Identity is the operating account as reported by the upstream at startup.
// The zero value means the lookup failed.
type Identity struct {
	ID    string
	Name  string
	Email string
}

func (i Identity) Known() bool {
	return i.ID != "" || i.Name != "" || i.Email != ""
}

func (i Identity) IsID(id string) bool {
	return i.ID != "" && id != "" && id == i.ID
}

func (i Identity) IsName(name string) bool {
	return i.Name != "" && name != "" && strings.EqualFold(name, i.Name)
}

func (i Identity) IsEmail(email string) bool {
	return i.Email != "" && email != "" && strings.EqualFold(email, i.Email)
}
