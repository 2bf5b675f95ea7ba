// Package source defines the contract for position sources. A source owns
// one raw location slot of a vehicle and overwrites it with each new fix; the
// vehicle fuses all slots into its fused location. Every source conforms to
// the same raw-location contract, so a single fusion algorithm serves them
// all.
package source

import "context"

// Source delivers raw fixes into a vehicle's location slot until its context
// is cancelled.
type Source interface {
	// Name returns the configured name of the source.
	Name() string

	// Run blocks, feeding fixes to the vehicle, until the context is
	// cancelled or the source fails.
	Run(ctx context.Context) error
}
