package models

import (
	"sort"
	"strings"
)

const contactTypePerson = "Person"

// Contact is a person record from the remote store.
type Contact struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	Me        bool   `json:"me"`
	Active    bool   `json:"active"`
}

// NewContact maps a raw contact. FullName falls back to the id.
func NewContact(raw RawContact) Contact {
	full := strings.TrimSpace(raw.FirstName + " " + raw.LastName)
	if full == "" {
		full = raw.ID
	}
	return Contact{
		ID:        raw.ID,
		FirstName: raw.FirstName,
		LastName:  raw.LastName,
		FullName:  full,
		Email:     raw.PrimaryEmail,
		Me:        raw.Me,
		Active:    raw.IsActive(),
	}
}

func (c RawContact) IsPerson() bool {
	return c.Type == contactTypePerson
}

// IsActive is true when any profile is active or no profile is present.
func (c RawContact) IsActive() bool {
	if len(c.Profiles) == 0 {
		return true
	}
	for _, p := range c.Profiles {
		if p.Active {
			return true
		}
	}
	return false
}

// ActivePeople keeps active Person contacts sorted by full name.
func ActivePeople(raw []RawContact) []Contact {
	out := make([]Contact, 0, len(raw))
	for _, rc := range raw {
		if !rc.IsPerson() || !rc.IsActive() {
			continue
		}
		out = append(out, NewContact(rc))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FullName < out[j].FullName
	})
	return out
}
