// Package handlers provides the built-in trace event handlers.
//
// Each constructor returns a fresh handler with its own accumulator, so
// every catalog built by NewCatalog is independent of the others.
package handlers

import (
	"github.com/randalmurphal/tracegraph/pkg/tracegraph"
)

// Names of the built-in handlers.
const (
	Meta        = tracegraph.MetaHandler
	Samples     = "Samples"
	Renderer    = "Renderer"
	Screenshots = "Screenshots"
	Animation   = "Animation"
)

// Names lists the built-in handlers in registration order.
func Names() []string {
	return []string{Meta, Samples, Renderer, Screenshots, Animation}
}

// NewCatalog returns a catalog holding a new instance of every built-in
// handler.
func NewCatalog() *tracegraph.Catalog {
	c := tracegraph.NewCatalog()
	c.Register(Meta, NewMeta())
	c.Register(Samples, NewSamples())
	c.Register(Renderer, NewRenderer())
	c.Register(Screenshots, NewScreenshots())
	c.Register(Animation, NewAnimation())
	return c
}

// NewProcessor builds a processor over a new built-in catalog. Without
// tracegraph.WithHandlers every built-in handler runs.
func NewProcessor(opts ...tracegraph.Option) (*tracegraph.Processor, error) {
	return tracegraph.New(NewCatalog(), opts...)
}
