package state

import (
	"strings"

	"phonebook/internal/model"
)

// Filter is the transient, UI-owned name filter. It is never persisted.
type Filter struct {
	Name string // substring matched case-insensitively against contact names
}

// FilteredContacts returns the contacts whose name contains the filter's
// substring, case-insensitively and in the original order. An empty filter
// yields every item. The result is recomputed on every call and shares no
// storage with the input.
func FilteredContacts(items []model.Contact, f Filter) []model.Contact {
	needle := strings.ToLower(f.Name)
	out := make([]model.Contact, 0, len(items))
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Name), needle) {
			out = append(out, it)
		}
	}
	return out
}

// IsAuthenticated reports whether the session holds a logged-in identity.
func IsAuthenticated(st SessionState) bool { return st.IsLoggedIn }
