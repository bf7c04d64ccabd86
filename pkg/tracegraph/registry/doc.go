// Package registry provides a generic thread-safe registry for values indexed
// by key, preserving registration order.
//
// tracegraph uses it as the handler catalog: the order in which handlers are
// registered is the tie-break order used when resolving execution order, so
// two processors built from the same catalog always run handlers identically.
//
// # Basic Usage
//
//	r := registry.New[string, int]()
//	r.Register("one", 1)
//	r.Register("two", 2)
//
//	r.Keys() // ["one", "two"]
//
//	value, ok := r.Get("one")
//	if ok {
//	    fmt.Println(value) // Output: 1
//	}
//
// Re-registering a key replaces its value but keeps its position.
//
// # Subsets
//
// Subset copies selected entries into a new registry, reporting unknown keys:
//
//	sub, missing := r.Subset("two", "three")
//	// sub.Keys() == ["two"], missing == ["three"]
//
// # Thread Safety
//
// All Registry methods are safe for concurrent use. A subset is a copy, so
// tracegraph freezes a processor's handlers by taking one at construction.
package registry
