package state

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"phonebook/internal/errs"
	"phonebook/internal/model"
)

const (
	msgFetchFail  = "Unable to load contacts. Please try again."
	msgAddFail    = "Unable to add the contact. Please try again."
	msgRemoveFail = "Unable to delete the contact. Please try again."
)

// ContactsAPI is the slice of the remote API the contact store depends on.
type ContactsAPI interface {
	ListContacts(ctx context.Context) ([]model.Contact, error)
	AddContact(ctx context.Context, name, number string) (model.Contact, error)
	DeleteContact(ctx context.Context, id string) error
}

// ContactsState is an observable snapshot of the contact collection.
type ContactsState struct {
	Items     []model.Contact // server insertion order, never sorted client-side
	IsLoading bool
	Error     string
}

// Contacts mirrors the user's contact list from the server. A fetch
// replaces the list wholesale; add and remove apply single confirmed
// changes; no operation merges or partially applies.
//
// Completions are tagged with an epoch so that a response landing after
// Reset (logout) cannot repopulate the store.
type Contacts struct {
	api ContactsAPI
	log *zap.Logger

	mu    sync.Mutex
	st    ContactsState
	epoch uint64
}

// NewContacts constructs an empty contact store.
func NewContacts(api ContactsAPI, log *zap.Logger) *Contacts {
	if log == nil {
		log = zap.NewNop()
	}
	return &Contacts{api: api, log: log}
}

// State returns a copy of the current collection state.
func (c *Contacts) State() ContactsState {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.st
	st.Items = append([]model.Contact(nil), c.st.Items...)
	return st
}

// ClearError dismisses the current error message.
func (c *Contacts) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.Error = ""
}

// Reset empties the store and invalidates all in-flight completions.
// Called on logout.
func (c *Contacts) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st = ContactsState{}
	c.epoch++
}

// FetchAll replaces the collection with the server's current list. On
// failure the previous items are left untouched. A result that arrives
// after a Reset is discarded.
func (c *Contacts) FetchAll(ctx context.Context) ([]model.Contact, error) {
	c.mu.Lock()
	epoch := c.epoch
	c.st.IsLoading = true
	c.st.Error = ""
	c.mu.Unlock()

	items, err := c.api.ListContacts(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		c.log.Debug("stale fetch discarded")
		return nil, nil
	}
	c.st.IsLoading = false
	if err != nil {
		c.st.Error = messageFor(err, msgFetchFail)
		return nil, err
	}
	c.st.Items = append([]model.Contact(nil), items...)
	c.st.Error = ""
	return append([]model.Contact(nil), c.st.Items...), nil
}

// Add creates a contact and appends the server's confirmed version.
//
// The duplicate-name pre-check is advisory and client-side only: a name
// that case-insensitively matches an existing item is rejected without a
// server call, but the server is not required to enforce the same rule.
func (c *Contacts) Add(ctx context.Context, name, number string) (model.Contact, error) {
	c.mu.Lock()
	for _, it := range c.st.Items {
		if strings.EqualFold(it.Name, name) {
			c.st.Error = fmt.Sprintf("%s is already in your contacts.", it.Name)
			c.mu.Unlock()
			return model.Contact{}, fmt.Errorf("%w: %s", errs.ErrDuplicateName, name)
		}
	}
	epoch := c.epoch
	c.st.Error = ""
	c.mu.Unlock()

	added, err := c.api.AddContact(ctx, name, number)

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		c.log.Debug("stale add discarded", zap.String("name", name))
		return added, err
	}
	if err != nil {
		c.st.Error = messageFor(err, msgAddFail)
		return model.Contact{}, err
	}
	c.st.Items = append(c.st.Items, added)
	c.st.Error = ""
	return added, nil
}

// Remove deletes a contact by id. An id with no matching item client-side
// is a no-op: nothing is sent and no error is reported. On failure the
// items are left untouched.
func (c *Contacts) Remove(ctx context.Context, id string) error {
	c.mu.Lock()
	if !c.has(id) {
		c.mu.Unlock()
		c.log.Debug("remove of unknown id ignored", zap.String("id", id))
		return nil
	}
	epoch := c.epoch
	c.st.Error = ""
	c.mu.Unlock()

	err := c.api.DeleteContact(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		c.log.Debug("stale remove discarded", zap.String("id", id))
		return err
	}
	if err != nil {
		c.st.Error = messageFor(err, msgRemoveFail)
		return err
	}
	kept := c.st.Items[:0:0]
	for _, it := range c.st.Items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	c.st.Items = kept
	c.st.Error = ""
	return nil
}

// has reports whether an item with the id is present. Callers hold c.mu.
func (c *Contacts) has(id string) bool {
	for _, it := range c.st.Items {
		if it.ID == id {
			return true
		}
	}
	return false
}
