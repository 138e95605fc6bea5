package location

import domloc "github.com/kailas-cloud/rwhplan/internal/domain/location"

// Store is the read-only reference lookup the resolver depends on.
type Store interface {
	IsDegraded() bool
	GroundwaterDepthFor(name string) (float64, bool)
	MeanGroundwaterDepth() (float64, bool)
	SoilFor(name string) (domloc.Soil, bool)
	SoilForTown(town string) (domloc.Soil, bool)
}
