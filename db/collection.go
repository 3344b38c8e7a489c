// ABOUTME: Ordered, newest-first record collection keyed by string id
// ABOUTME: Generic over every model type and encoded as a plain JSON array
package db

import (
	"bytes"
	"encoding/json"

	"github.com/harperreed/crmd/models"
)

// Collection holds records of one kind with the newest at index 0.
// A nil collection means the snapshot did not carry the key at all.
type Collection[T models.Record] struct {
	items []T
}

// NewCollection returns a collection holding recs in the given order.
func NewCollection[T models.Record](recs ...T) Collection[T] {
	items := make([]T, len(recs))
	copy(items, recs)
	return Collection[T]{items: items}
}

// Prepend inserts recs at the head, keeping their relative order.
func (c *Collection[T]) Prepend(recs ...T) {
	items := make([]T, 0, len(recs)+len(c.items))
	items = append(items, recs...)
	c.items = append(items, c.items...)
}

// Replace swaps the first record with a matching id for rec.
func (c *Collection[T]) Replace(id string, rec T) bool {
	for i := range c.items {
		if c.items[i].RecordID() == id {
			c.items[i] = rec
			return true
		}
	}
	return false
}

// Remove drops the first record with a matching id.
func (c *Collection[T]) Remove(id string) bool {
	for i := range c.items {
		if c.items[i].RecordID() == id {
			c.items = append(c.items[:i:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// Find returns the first record with a matching id.
func (c *Collection[T]) Find(id string) (T, bool) {
	for _, rec := range c.items {
		if rec.RecordID() == id {
			return rec, true
		}
	}
	var zero T
	return zero, false
}

// Apply rewrites every record in place.
func (c *Collection[T]) Apply(fn func(T) T) {
	for i := range c.items {
		c.items[i] = fn(c.items[i])
	}
}

// All returns a copy of the records, newest first.
func (c *Collection[T]) All() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Collection[T]) Len() int {
	return len(c.items)
}

func (c *Collection[T]) present() bool {
	return c.items != nil
}

func (c *Collection[T]) clone() Collection[T] {
	if c.items == nil {
		return Collection[T]{}
	}
	return NewCollection(c.items...)
}

func (c Collection[T]) MarshalJSON() ([]byte, error) {
	if c.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.items)
}

func (c *Collection[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		c.items = nil
		return nil
	}
	items := []T{}
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	c.items = items
	return nil
}
