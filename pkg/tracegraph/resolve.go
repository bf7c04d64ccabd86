package tracegraph

import "slices"

type visitState uint8

const (
	unvisited visitState = iota
	visiting
	visited
)

// Resolve orders handlers so that every dependency precedes its dependents.
//
// Roots are visited depth-first in the given order and each handler's
// dependencies in declared order, so independent handlers keep their
// relative order. A dependency that is not a root but is known to lookup
// is added to the result. The returned order contains each name once.
//
// Resolve fails with *MissingDependencyError when lookup does not know a
// name, and with *CycleError when a dependency is already on the current
// path.
func Resolve(roots []string, lookup func(name string) (Handler, bool)) ([]string, error) {
	r := &resolver{
		lookup: lookup,
		state:  make(map[string]visitState),
	}
	for _, name := range roots {
		if err := r.visit(name, ""); err != nil {
			return nil, err
		}
	}
	return r.order, nil
}

// SortHandlers resolves every catalog entry in registration order.
func SortHandlers(catalog *Catalog) ([]string, error) {
	return Resolve(catalog.Keys(), catalog.Get)
}

type resolver struct {
	lookup func(string) (Handler, bool)
	state  map[string]visitState
	path   []string
	order  []string
}

func (r *resolver) visit(name, requiredBy string) error {
	switch r.state[name] {
	case visited:
		return nil
	case visiting:
		start := slices.Index(r.path, name)
		cycle := append(slices.Clone(r.path[start:]), name)
		return &CycleError{Path: cycle}
	}

	h, ok := r.lookup(name)
	if !ok {
		return &MissingDependencyError{Name: name, RequiredBy: requiredBy}
	}

	r.state[name] = visiting
	r.path = append(r.path, name)

	for _, dep := range DepsOf(h) {
		if err := r.visit(dep, name); err != nil {
			return err
		}
	}

	r.path = r.path[:len(r.path)-1]
	r.state[name] = visited
	r.order = append(r.order, name)
	return nil
}
