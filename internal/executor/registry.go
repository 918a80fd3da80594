// Package executor contains the per-family execution dispatchers. Each
// dispatcher converts one authorized opportunity into a single external
// action call and records its outcome as a trade in the record store.
package executor

import (
	"github.com/alejandrodnm/tradebot/internal/domain"
	"github.com/alejandrodnm/tradebot/internal/ports"
)

// Dispatcher is an Executor that also exposes the notional it commits per
// trade, so the risk manager can be consulted before dispatching.
type Dispatcher interface {
	ports.Executor

	// Notional returns the USD amount a single execution will commit.
	Notional() float64
}

// Registry maps each opportunity kind to its dispatcher. The set is closed:
// it is built once at wiring time and resolved by kind family, never by
// arbitrary string lookup.
type Registry map[domain.Kind]Dispatcher

// For returns the dispatcher for an opportunity kind, resolving the three
// prediction-market kinds to the shared markets dispatcher.
func (r Registry) For(kind domain.Kind) (Dispatcher, bool) {
	d, ok := r[kind.Family()]
	return d, ok
}
