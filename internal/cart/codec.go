package cart

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Encode serializes the cart for storage. A cart where every quantity is 1 is written as
// the plain id array the mobile app reads (["a","b"]); otherwise entries are written as
// [{"id":"a","quantity":2}].
func Encode(c Cart) ([]byte, error) {
	if c.onlySingles() {
		return json.Marshal(c.IDs())
	}
	return json.Marshal(c.entries)
}

// storedEntry is an entry as read from storage; an object without a quantity is one unit.
type storedEntry struct {
	ID       string `json:"id"`
	Quantity *int   `json:"quantity"`
}

// Decode parses either stored form, including arrays mixing ids and entry objects.
// An empty or null value is an empty cart. Elements that are neither strings nor
// objects are ignored.
func Decode(data []byte) (Cart, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Cart{}, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return Cart{}, fmt.Errorf("decode cart: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for i, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) == 0 {
			continue
		}
		switch item[0] {
		case '"':
			var id string
			if err := json.Unmarshal(item, &id); err != nil {
				return Cart{}, fmt.Errorf("decode cart element %d: %w", i, err)
			}
			entries = append(entries, Entry{ID: id, Quantity: 1})
		case '{':
			var e storedEntry
			if err := json.Unmarshal(item, &e); err != nil {
				return Cart{}, fmt.Errorf("decode cart element %d: %w", i, err)
			}
			qty := 1
			if e.Quantity != nil {
				qty = *e.Quantity
			}
			entries = append(entries, Entry{ID: e.ID, Quantity: qty})
		}
	}
	return New(entries...), nil
}

// MarshalJSON uses the entry form so API clients always see quantities.
func (c Cart) MarshalJSON() ([]byte, error) {
	if c.entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.entries)
}

func (c *Cart) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*c = decoded
	return nil
}

func (c Cart) onlySingles() bool {
	for _, e := range c.entries {
		if e.Quantity != 1 {
			return false
		}
	}
	return true
}
