// Package service defines the task model and the operations commands depend on.
package service

import "time"

// Item is a single entry in a list. It has no identity of its own:
// it is addressed by its 1-based position inside the owning list.
type Item struct {
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// List is a named, ordered sequence of items. The name is the only key,
// both locally and remotely.
type List struct {
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

// Done returns the number of completed items.
func (l List) Done() int {
	n := 0
	for _, it := range l.Items {
		if it.Completed {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the list. A nil item slice is
// normalised to an empty one.
func (l List) Clone() List {
	items := make([]Item, len(l.Items))
	copy(items, l.Items)
	return List{Name: l.Name, Items: items}
}

// EqualItems reports whether two item sequences have the same length and
// the same description and completion state at every position.
func EqualItems(a, b []Item) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SyncStatus describes the local cache relative to the last successful push.
type SyncStatus struct {
	// Dirty is true when local content may differ from the remote store.
	Dirty bool

	// LastModified is the time of the last successful push (zero if never).
	LastModified time.Time
}
