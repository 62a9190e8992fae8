package omniture

import (
	"fmt"
	"iter"
)

// Item is anything a Collection can address by title and id.
type Item interface {
	Title() string
	ID() string
}

// Collection is an ordered, immutable list of items addressable by
// position, id or title.
type Collection[T Item] struct {
	name    string
	items   []T
	byID    map[string]int
	byTitle map[string]int
}

// NewCollection indexes items by id and title. When two items share a key
// the first one wins.
func NewCollection[T Item](name string, items []T) *Collection[T] {
	c := &Collection[T]{
		name:    name,
		items:   make([]T, len(items)),
		byID:    make(map[string]int, len(items)),
		byTitle: make(map[string]int, len(items)),
	}
	copy(c.items, items)

	for i, item := range c.items {
		if _, ok := c.byID[item.ID()]; !ok {
			c.byID[item.ID()] = i
		}
		if _, ok := c.byTitle[item.Title()]; !ok {
			c.byTitle[item.Title()] = i
		}
	}

	return c
}

// Name returns the collection name used in error messages.
func (c *Collection[T]) Name() string { return c.name }

// Len returns the number of items.
func (c *Collection[T]) Len() int { return len(c.items) }

// At returns the item at position i.
func (c *Collection[T]) At(i int) (T, error) {
	if i < 0 || i >= len(c.items) {
		var zero T
		return zero, &NotFoundError{Collection: c.name, Key: i}
	}
	return c.items[i], nil
}

// Get resolves key against item ids first and titles second.
func (c *Collection[T]) Get(key string) (T, error) {
	if i, ok := c.byID[key]; ok {
		return c.items[i], nil
	}
	if i, ok := c.byTitle[key]; ok {
		return c.items[i], nil
	}
	var zero T
	return zero, &NotFoundError{Collection: c.name, Key: key}
}

// Lookup accepts an int position, a string id or title, or an Item whose
// id is looked up.
func (c *Collection[T]) Lookup(key any) (T, error) {
	switch k := key.(type) {
	case int:
		return c.At(k)
	case string:
		return c.Get(k)
	case Item:
		return c.Get(k.ID())
	default:
		var zero T
		return zero, fmt.Errorf("%s: unsupported key type %T: %w", c.name, key, ErrNotFound)
	}
}

// Contains reports whether key matches an item id or title.
func (c *Collection[T]) Contains(key string) bool {
	_, err := c.Get(key)
	return err == nil
}

// Items returns a copy of the items in insertion order.
func (c *Collection[T]) Items() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// All iterates over the items in insertion order.
func (c *Collection[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, item := range c.items {
			if !yield(i, item) {
				return
			}
		}
	}
}
