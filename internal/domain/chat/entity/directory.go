package entity

import "strings"

// Listing is the subset of an announcement the chat needs
type Listing struct {
	ID      string
	OwnerID string
	Title   string
}

// Profile is the subset of a user profile the chat needs
type Profile struct {
	ID        string
	FirstName string
	LastName  string
	AvatarKey string
}

// DisplayName joins first and last name, falling back to fallback when both are blank
func (p *Profile) DisplayName(fallback string) string {
	return DisplayName(p.FirstName, p.LastName, fallback)
}

// DisplayName joins the non-blank name parts with a space
func DisplayName(first, last, fallback string) string {
	parts := make([]string, 0, 2)
	for _, s := range []string{first, last} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return fallback
	}
	return strings.Join(parts, " ")
}
