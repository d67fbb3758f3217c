package crm

import "strings"

// Contact is the read model of a CRM contact. The engine never mutates
// contacts; cadence bookkeeping lives in the engine's own state table.
type Contact struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Company      string
	Stage        int
	Roles        []string
	Persona      string
	BusinessType string
}

func (c *Contact) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

func (c *Contact) HasRole(role string) bool {
	for _, r := range c.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the contact holds at least one of roles. An empty
// roles slice matches every contact.
func (c *Contact) HasAnyRole(roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, role := range roles {
		if c.HasRole(role) {
			return true
		}
	}
	return false
}

// NormalizedEmail returns the lowercased trimmed email for case-insensitive joins.
func (c *Contact) NormalizedEmail() string {
	return strings.ToLower(strings.TrimSpace(c.Email))
}
