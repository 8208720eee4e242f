// Package model defines domain entities shared by the API client and the state stores.
package model

// Identity is the authenticated user's profile as reported by the server.
// The zero value means "no user".
type Identity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// IsZero reports whether the identity carries no user.
func (id Identity) IsZero() bool { return id.Name == "" && id.Email == "" }

// Contact is a single phonebook entry.
type Contact struct {
	ID     string `json:"id"`     // server-assigned, immutable
	Name   string `json:"name"`   // free-form, validated client-side only
	Number string `json:"number"` // free-form
}

// AuthPayload is the signup/login response: the new identity plus its bearer token.
type AuthPayload struct {
	User  Identity `json:"user"`
	Token string   `json:"token"`
}
