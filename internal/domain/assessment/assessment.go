// Package assessment turns raw estimator outputs into the decision-ready result.
// Everything here is pure: the same inputs always produce the same Result.
package assessment

import (
	"math"

	"github.com/kailas-cloud/rwhplan/internal/domain/estimate"
	"github.com/kailas-cloud/rwhplan/internal/domain/location"
)

// District constants.
const (
	// AverageRainfallMM is the average annual rainfall of the modeled district.
	AverageRainfallMM = 775.0
	// WaterRatePerKiloliter is the currency saved per 1000 liters harvested.
	WaterRatePerKiloliter = 5.0
	// FeasibleVolumeLiters is the storage volume a structure must exceed to be feasible.
	FeasibleVolumeLiters = 1000.0
	// MaxPaybackYears caps the reported payback period.
	MaxPaybackYears = 50.0
	// MaxStorageEfficiency caps the reported storage efficiency percent.
	MaxStorageEfficiency = 100.0
)

// Feasibility is the verdict on whether the predicted storage is usable.
type Feasibility string

// Feasibility verdicts.
const (
	Feasible           Feasibility = "Feasible"
	LimitedFeasibility Feasibility = "Limited Feasibility"
)

// Dimensions of the structure. Meters, volume in liters.
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Depth  float64 `json:"depth"`
	Volume float64 `json:"volume"`
}

// CostEstimation holds the cost figures.
type CostEstimation struct {
	TotalCost          float64 `json:"total_cost"`
	CostPerLiter       float64 `json:"cost_per_liter"`
	PaybackPeriodYears float64 `json:"payback_period_years"`
}

// WaterHarvesting holds the water figures. Liters per year, efficiency in percent.
type WaterHarvesting struct {
	AnnualHarvestable float64 `json:"annual_harvestable"`
	StorageEfficiency float64 `json:"storage_efficiency"`
	AnnualSavings     float64 `json:"annual_savings"`
}

// SoilComposition is the percentage breakdown reported back to clients.
type SoilComposition struct {
	Sandy  float64 `json:"sandy"`
	Loamy  float64 `json:"loamy"`
	Clayey float64 `json:"clayey"`
	Rocky  float64 `json:"rocky"`
}

// LocationInfo describes the resolved location.
type LocationInfo struct {
	GroundwaterDepth float64           `json:"groundwater_depth"`
	DominantSoilType location.SoilType `json:"dominant_soil_type"`
	SoilComposition  SoilComposition   `json:"soil_composition"`
}

// Result is the final structured payload of one prediction.
// Key names and units are a client contract.
type Result struct {
	Feasibility          Feasibility            `json:"feasibility"`
	RecommendedStructure estimate.StructureType `json:"recommended_structure"`
	Dimensions           Dimensions             `json:"dimensions"`
	CostEstimation       CostEstimation         `json:"cost_estimation"`
	WaterHarvesting      WaterHarvesting        `json:"water_harvesting"`
	LocationInfo         LocationInfo           `json:"location_info"`
	RunoffCoefficient    float64                `json:"runoff_coefficient"`
}

// AnnualHarvestable returns liters of runoff a roof collects per year.
func AnnualHarvestable(roofArea, runoffCoefficient float64) float64 {
	return roofArea * AverageRainfallMM * runoffCoefficient
}

// StorageEfficiency returns the percent of annual supply the structure can hold, capped at 100.
func StorageEfficiency(volume, annualHarvestable float64) float64 {
	if annualHarvestable <= 0 {
		return 0
	}
	return math.Min(MaxStorageEfficiency, volume/annualHarvestable*100)
}

// CostPerLiter returns cost divided by storage volume, or 0 for an empty structure.
func CostPerLiter(cost, volume float64) float64 {
	if volume <= 0 {
		return 0
	}
	return cost / volume
}

// AnnualSavings returns the yearly water bill saved by harvesting.
func AnnualSavings(annualHarvestable float64) float64 {
	return annualHarvestable / 1000 * WaterRatePerKiloliter
}

// PaybackYears returns cost/savings capped at MaxPaybackYears. Zero savings never pay back.
func PaybackYears(cost, annualSavings float64) float64 {
	payback := math.Inf(1)
	if annualSavings > 0 {
		payback = cost / annualSavings
	}
	return math.Min(payback, MaxPaybackYears)
}

// Verdict classifies a raw predicted volume.
func Verdict(volume float64) Feasibility {
	if volume > FeasibleVolumeLiters {
		return Feasible
	}
	return LimitedFeasibility
}

// Derive computes the final result. Inputs must be non-negative, roofArea > 0.
// Rounding is applied only to the returned fields.
func Derive(raw estimate.Raw, p location.Profile, roofArea float64) Result {
	dominant := p.DominantSoil()
	runoff := dominant.RunoffCoefficient()

	harvestable := AnnualHarvestable(roofArea, runoff)
	efficiency := StorageEfficiency(raw.Volume, harvestable)
	perLiter := CostPerLiter(raw.Cost, raw.Volume)
	savings := AnnualSavings(harvestable)
	payback := PaybackYears(raw.Cost, savings)

	soil := p.Soil()
	return Result{
		Feasibility:          Verdict(raw.Volume),
		RecommendedStructure: raw.Structure,
		Dimensions: Dimensions{
			Length: round2(raw.PitLength),
			Width:  round2(raw.PitWidth),
			Depth:  round2(raw.PitDepth),
			Volume: round2(raw.Volume),
		},
		CostEstimation: CostEstimation{
			TotalCost:          round2(raw.Cost),
			CostPerLiter:       round2(perLiter),
			PaybackPeriodYears: round1(payback),
		},
		WaterHarvesting: WaterHarvesting{
			AnnualHarvestable: round2(harvestable),
			StorageEfficiency: round1(efficiency),
			AnnualSavings:     round2(savings),
		},
		LocationInfo: LocationInfo{
			GroundwaterDepth: p.GroundwaterDepth(),
			DominantSoilType: dominant,
			SoilComposition: SoilComposition{
				Sandy:  soil.Sandy,
				Loamy:  soil.Loamy,
				Clayey: soil.Clayey,
				Rocky:  soil.Rocky,
			},
		},
		RunoffCoefficient: runoff,
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
