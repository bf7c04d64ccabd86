// Package event provides the in-process notification bus used by tracegraph
// to report parse progress to listeners.
//
// # Events
//
// Events implement the Event interface. BaseEvent[T] carries a typed payload:
//
//	evt := event.New("tracegraph.parse.progress", "processor", payload,
//	    event.WithCorrelationID(runID))
//
// CorrelationID ties every event of one parse run together.
//
// # Bus
//
// LocalBus fans events out to subscribers. Each subscription has its own
// buffered channel and goroutine:
//
//	bus := event.NewBus(event.BusConfig{NonBlocking: true})
//	sub, err := bus.Subscribe([]string{"tracegraph.parse.progress"}, handler)
//	if err != nil {
//	    return err
//	}
//	defer sub.Unsubscribe()
//
// In NonBlocking mode Publish never waits on a subscriber; events that do not
// fit in a full buffer are reported through BusConfig.OnDrop and discarded.
package event
