package synth

import (
	"errors"
	"math"
	"math/rand/v2"

	"github.com/kailas-cloud/rwhplan/internal/domain/location"
)

// Input ranges of generated households.
const (
	minRoofArea      = 50.0
	maxRoofArea      = 500.0
	minHousehold     = 2
	householdSpan    = 10 // sizes 2..11
	minJitteredDepth = 0.5
)

// SoilSource looks up soil composition for generated samples.
type SoilSource interface {
	SoilFor(name string) (location.Soil, bool)
	SoilForTown(town string) (location.Soil, bool)
}

// Generator draws synthetic samples from real station and soil tables.
// Not safe for concurrent use.
type Generator struct {
	stations []location.Station
	soils    SoilSource
	rng      *rand.Rand
}

// NewGenerator creates a generator. The same seed yields the same sample sequence.
func NewGenerator(stations []location.Station, soils SoilSource, seed uint64) (*Generator, error) {
	if len(stations) == 0 {
		return nil, errors.New("at least one groundwater station is required")
	}
	if soils == nil {
		return nil, errors.New("soil source is required")
	}
	return &Generator{
		stations: stations,
		soils:    soils,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}, nil
}

// Next draws one sample.
func (g *Generator) Next() Sample {
	st := g.stations[g.rng.IntN(len(g.stations))]
	soil := g.soilFor(st.Name)

	roofArea := minRoofArea + g.rng.Float64()*(maxRoofArea-minRoofArea)
	household := minHousehold + g.rng.IntN(householdSpan)
	depth := math.Max(minJitteredDepth, st.Depth+g.rng.NormFloat64())

	return Design(roofArea, household, depth, soil)
}

// Generate draws n samples.
func (g *Generator) Generate(n int) []Sample {
	out := make([]Sample, 0, max(n, 0))
	for range n {
		out = append(out, g.Next())
	}
	return out
}

func (g *Generator) soilFor(station string) location.Soil {
	if soil, ok := g.soils.SoilFor(station); ok {
		return soil
	}
	if soil, ok := g.soils.SoilForTown(location.DefaultTown); ok {
		return soil
	}
	return location.DefaultProfile().Soil()
}
