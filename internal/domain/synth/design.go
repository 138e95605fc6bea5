// Package synth generates synthetic training samples for the structure estimators.
// Designs are computed with the same district constants the serving path reports.
package synth

import (
	"math"

	"github.com/kailas-cloud/rwhplan/internal/domain/assessment"
	"github.com/kailas-cloud/rwhplan/internal/domain/estimate"
	"github.com/kailas-cloud/rwhplan/internal/domain/location"
)

// Design rule constants.
const (
	storageShare      = 0.3   // share of annual harvestable water to store
	litersPerPerson   = 500.0 // minimum storage per household member
	materialCostPerL  = 200.0
	contingencyFactor = 1.2
	trenchWidth       = 1.5
	shallowDepthLimit = 3.0
	deepDepthLimit    = 15.0
)

var volumeFactors = map[location.SoilType]float64{
	location.Sandy:  1.2,
	location.Loamy:  1.0,
	location.Clayey: 0.8,
	location.Rocky:  0.7,
}

var laborMultipliers = map[location.SoilType]float64{
	location.Sandy:  1.0,
	location.Loamy:  1.2,
	location.Clayey: 1.5,
	location.Rocky:  2.0,
}

var baseLaborCosts = map[estimate.StructureType]float64{
	estimate.Pit:    800,
	estimate.Trench: 600,
	estimate.Shaft:  1200,
}

// Sample is one generated training row: features plus every estimator target.
type Sample struct {
	RoofArea         float64
	HouseholdSize    int
	GroundwaterDepth float64
	Soil             location.Soil
	Structure        estimate.StructureType
	PitLength        float64
	PitWidth         float64
	PitDepth         float64
	Volume           float64
	Cost             float64
}

// StructureFor picks the structure type suited to a groundwater depth.
func StructureFor(depth float64) estimate.StructureType {
	switch {
	case depth < shallowDepthLimit:
		return estimate.Trench
	case depth > deepDepthLimit:
		return estimate.Shaft
	default:
		return estimate.Pit
	}
}

// Design computes the reference structure for the given inputs.
func Design(roofArea float64, householdSize int, depth float64, soil location.Soil) Sample {
	dominant := soil.Dominant()
	harvestable := assessment.AnnualHarvestable(roofArea, dominant.RunoffCoefficient())
	structure := StructureFor(depth)

	volume := math.Max(harvestable*storageShare, float64(householdSize)*litersPerPerson)
	volume *= volumeFactors[dominant]

	var length, width, pitDepth float64
	switch structure {
	case estimate.Trench:
		pitDepth = clamp(depth-0.5, 0.5, 2.0)
		width = trenchWidth
		length = volume / (pitDepth * width)
	case estimate.Shaft:
		pitDepth = clamp(depth-2, 1.0, 8.0)
		length = math.Sqrt(volume / pitDepth)
		width = length
	default:
		pitDepth = clamp(depth-1, 0.5, 3.0)
		length = math.Sqrt(volume / pitDepth)
		width = length
	}

	material := volume * materialCostPerL
	labor := volume * baseLaborCosts[structure] * laborMultipliers[dominant]

	return Sample{
		RoofArea:         roofArea,
		HouseholdSize:    householdSize,
		GroundwaterDepth: depth,
		Soil:             soil,
		Structure:        structure,
		PitLength:        length,
		PitWidth:         width,
		PitDepth:         pitDepth,
		Volume:           volume,
		Cost:             (material + labor) * contingencyFactor,
	}
}

// clamp bounds v to [lo, hi], applying the upper bound first.
func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
