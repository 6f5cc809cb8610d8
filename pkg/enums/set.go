package enums

import (
	"fmt"
	"slices"
)

// set is the closed list of values behind one enum type.
type set[T ~string] struct {
	name   string
	values []T
}

func newSet[T ~string](name string, values ...T) set[T] {
	return set[T]{name: name, values: values}
}

func (s set[T]) has(v T) bool {
	return slices.Contains(s.values, v)
}

// parse is case-sensitive; stored values are upper snake case.
func (s set[T]) parse(raw string) (T, error) {
	v := T(raw)
	if !s.has(v) {
		return "", fmt.Errorf("invalid %s %q", s.name, raw)
	}
	return v, nil
}

// Values returns a copy, in declaration order.
func (s set[T]) Values() []T {
	return slices.Clone(s.values)
}
