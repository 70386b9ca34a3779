package cart

import (
	"strings"

	pkgerrors "github.com/angelmondragon/bikeshop-bff/pkg/errors"
)

// Entry is one product in the cart.
type Entry struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// Cart is an immutable set of entries keyed by product id, in insertion order.
// Every operation returns a new Cart and leaves the receiver untouched.
type Cart struct {
	entries []Entry
}

// New builds a cart, merging duplicate ids and dropping blank ids and non-positive quantities.
func New(entries ...Entry) Cart {
	out := make([]Entry, 0, len(entries))
	index := make(map[string]int, len(entries))
	for _, e := range entries {
		id := strings.TrimSpace(e.ID)
		if id == "" || e.Quantity <= 0 {
			continue
		}
		if i, ok := index[id]; ok {
			out[i].Quantity += e.Quantity
			continue
		}
		index[id] = len(out)
		out = append(out, Entry{ID: id, Quantity: e.Quantity})
	}
	return Cart{entries: out}
}

// FromIDs builds a cart holding one unit of each id.
func FromIDs(ids ...string) Cart {
	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, Entry{ID: id, Quantity: 1})
	}
	return New(entries...)
}

func (c Cart) Len() int { return len(c.entries) }

func (c Cart) IsEmpty() bool { return len(c.entries) == 0 }

// Entries returns a copy of the entries.
func (c Cart) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// IDs returns the member ids in cart order.
func (c Cart) IDs() []string {
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.ID
	}
	return out
}

// Units is the sum of all quantities.
func (c Cart) Units() int {
	total := 0
	for _, e := range c.entries {
		total += e.Quantity
	}
	return total
}

func (c Cart) Has(id string) bool {
	return c.indexOf(id) >= 0
}

// Quantity returns 0 for ids that are not in the cart.
func (c Cart) Quantity(id string) int {
	if i := c.indexOf(id); i >= 0 {
		return c.entries[i].Quantity
	}
	return 0
}

// Equal compares entries including order.
func (c Cart) Equal(other Cart) bool {
	if len(c.entries) != len(other.entries) {
		return false
	}
	for i := range c.entries {
		if c.entries[i] != other.entries[i] {
			return false
		}
	}
	return true
}

// Toggle removes id when present, otherwise adds one unit of it.
func (c Cart) Toggle(id string) (Cart, error) {
	id, err := normalizeID(id)
	if err != nil {
		return c, err
	}
	if c.Has(id) {
		return c.without(id), nil
	}
	return c.with(id, 1), nil
}

// Add adds qty units of id.
func (c Cart) Add(id string, qty int) (Cart, error) {
	id, err := normalizeID(id)
	if err != nil {
		return c, err
	}
	if qty <= 0 {
		return c, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
			WithDetails(map[string]any{"quantity": qty})
	}
	return c.with(id, c.Quantity(id)+qty), nil
}

// SetQuantity sets the quantity of id; zero removes it.
func (c Cart) SetQuantity(id string, qty int) (Cart, error) {
	id, err := normalizeID(id)
	if err != nil {
		return c, err
	}
	switch {
	case qty < 0:
		return c, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative").
			WithDetails(map[string]any{"quantity": qty})
	case qty == 0:
		return c.without(id), nil
	default:
		return c.with(id, qty), nil
	}
}

func (c Cart) Increment(id string) (Cart, error) {
	return c.Add(id, 1)
}

// Decrement removes one unit of id. Taking away the last unit needs confirmed,
// otherwise a STATE_CONFLICT is returned and the cart is unchanged.
func (c Cart) Decrement(id string, confirmed bool) (Cart, error) {
	id, err := normalizeID(id)
	if err != nil {
		return c, err
	}
	qty := c.Quantity(id)
	switch {
	case qty == 0:
		return c, pkgerrors.New(pkgerrors.CodeNotFound, "product is not in the cart").
			WithDetails(map[string]any{"product_id": id})
	case qty == 1 && !confirmed:
		return c, pkgerrors.New(pkgerrors.CodeStateConflict, "confirmation required to remove the last unit").
			WithDetails(map[string]any{"product_id": id, "quantity": qty})
	case qty == 1:
		return c.without(id), nil
	default:
		return c.with(id, qty-1), nil
	}
}

// Remove drops id. Removing an absent id returns the same cart.
func (c Cart) Remove(id string) (Cart, error) {
	id, err := normalizeID(id)
	if err != nil {
		return c, err
	}
	return c.without(id), nil
}

// Retain keeps only the entries whose id is in keep and returns the removed ids.
func (c Cart) Retain(keep map[string]struct{}) (Cart, []string) {
	out := make([]Entry, 0, len(c.entries))
	var removed []string
	for _, e := range c.entries {
		if _, ok := keep[e.ID]; ok {
			out = append(out, e)
			continue
		}
		removed = append(removed, e.ID)
	}
	return Cart{entries: out}, removed
}

func (c Cart) indexOf(id string) int {
	for i, e := range c.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (c Cart) with(id string, qty int) Cart {
	out := c.Entries()
	if i := c.indexOf(id); i >= 0 {
		out[i].Quantity = qty
		return Cart{entries: out}
	}
	return Cart{entries: append(out, Entry{ID: id, Quantity: qty})}
}

func (c Cart) without(id string) Cart {
	i := c.indexOf(id)
	if i < 0 {
		return c
	}
	out := make([]Entry, 0, len(c.entries)-1)
	out = append(out, c.entries[:i]...)
	out = append(out, c.entries[i+1:]...)
	return Cart{entries: out}
}

func normalizeID(id string) (string, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return trimmed, nil
}
