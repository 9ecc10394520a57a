// Package flux implements the recurring poll-diff-notify pipeline: a generic
// snapshot store plus a change computation, and one controller per tracked
// entity family (account, ticker, order, trade, position).
package flux

// Value is the contract every tracked entity satisfies: a stable identity
// across polls and full value comparison.
type Value[T any] interface {
	UID() string
	Equal(other T) bool
}

// Snapshot holds the last-known value per entity id seen on previous poll
// cycles of one controller. It is the sole source of truth for "what changed".
// It carries no lock of its own: a controller whose snapshot is touched from
// more than one goroutine guards it itself.
type Snapshot[T Value[T]] struct {
	values map[string]T
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot[T Value[T]]() *Snapshot[T] {
	return &Snapshot[T]{values: make(map[string]T)}
}

// Get returns the stored value for the given id.
func (s *Snapshot[T]) Get(id string) (T, bool) {
	v, ok := s.values[id]
	return v, ok
}

// Len returns the number of tracked entities.
func (s *Snapshot[T]) Len() int {
	return len(s.values)
}

func (s *Snapshot[T]) put(v T) {
	s.values[v.UID()] = v
}
