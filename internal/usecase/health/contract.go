package health

import "context"

// Models reports estimator availability.
type Models interface {
	Loaded() int
	Ready() bool
}

// ReferenceData reports the state of the reference tables.
type ReferenceData interface {
	IsDegraded() bool
	TownCount() int
}

// DBPinger checks cache database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}
