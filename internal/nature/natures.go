package nature

import (
	"iter"
	"maps"
	"slices"
)

// Entry is a registered name and its nature. GetMut hands out the stored
// *Entry itself, so replacing Entry.Nature or binding into it is visible to
// every later lookup.
type Entry struct {
	Name   string
	Nature Nature
}

// Natures is the name registry of one analysis run. Every name is inserted at
// most once. It is not safe for concurrent use; parallel producers build
// their own Natures and Merge them.
type Natures struct {
	entries map[string]*Entry
}

// NewNatures returns an empty registry.
func NewNatures() *Natures {
	return &Natures{entries: make(map[string]*Entry)}
}

// Contains reports whether name is registered.
func (n *Natures) Contains(name string) bool {
	_, ok := n.entries[name]
	return ok
}

// Insert registers nature under name. It fails with ErrEntityExist if the
// name is already present, leaving the existing entry untouched.
func (n *Natures) Insert(name string, nature Nature) error {
	if n.Contains(name) {
		return entityExist(name)
	}
	if nature == nil {
		return parsingf("cannot register %s without a nature", name)
	}
	n.entries[name] = &Entry{Name: name, Nature: nature}
	return nil
}

// Get returns the nature registered under name.
func (n *Natures) Get(name string) (Nature, bool) {
	e, ok := n.entries[name]
	if !ok {
		return nil, false
	}
	return e.Nature, true
}

// GetMut returns the mutable entry registered under name.
func (n *Natures) GetMut(name string) (*Entry, bool) {
	e, ok := n.entries[name]
	return e, ok
}

// Filter returns every registered nature for which keep returns true.
// Order is unspecified.
func (n *Natures) Filter(keep func(Nature) bool) []Nature {
	var out []Nature
	for _, e := range n.entries {
		if keep(e.Nature) {
			out = append(out, e.Nature)
		}
	}
	return out
}

// All iterates over name/nature pairs in unspecified order.
func (n *Natures) All() iter.Seq2[string, Nature] {
	return func(yield func(string, Nature) bool) {
		for name, e := range n.entries {
			if !yield(name, e.Nature) {
				return
			}
		}
	}
}

// Names returns the registered names sorted, for deterministic output.
func (n *Natures) Names() []string {
	return slices.Sorted(maps.Keys(n.entries))
}

// Len returns the number of registered names.
func (n *Natures) Len() int {
	return len(n.entries)
}

// Merge moves every entry of other into n. If any name is already present
// it fails with ErrEntityExist on the first such name in sorted order and
// inserts nothing.
func (n *Natures) Merge(other *Natures) error {
	names := other.Names()
	for _, name := range names {
		if n.Contains(name) {
			return entityExist(name)
		}
	}
	for _, name := range names {
		n.entries[name] = other.entries[name]
	}
	return nil
}
