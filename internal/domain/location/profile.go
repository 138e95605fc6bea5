package location

// SoilType is a soil category of a location.
type SoilType string

// Soil categories, listed in tie-break order.
const (
	Sandy  SoilType = "Sandy"
	Loamy  SoilType = "Loamy"
	Clayey SoilType = "Clayey"
	Rocky  SoilType = "Rocky"
)

// SoilTypes enumerates categories in the fixed order used to break ties.
var SoilTypes = [4]SoilType{Sandy, Loamy, Clayey, Rocky}

// DefaultTown is the served district's own town, used when a soil lookup misses.
const DefaultTown = "Erode"

// IsValid checks if the soil type is one of the known categories.
func (t SoilType) IsValid() bool {
	return t == Sandy || t == Loamy || t == Clayey || t == Rocky
}

// RunoffCoefficient returns the fraction of roof rainfall captured as runoff.
func (t SoilType) RunoffCoefficient() float64 {
	switch t {
	case Sandy:
		return 0.15
	case Loamy:
		return 0.25
	case Clayey:
		return 0.35
	case Rocky:
		return 0.45
	default:
		return 0
	}
}

// Soil holds the soil composition percentages of a town.
// Values are not renormalized and may not sum to exactly 100.
type Soil struct {
	Sandy  float64
	Loamy  float64
	Clayey float64
	Rocky  float64
}

// Percent returns the percentage of the given category.
func (s Soil) Percent(t SoilType) float64 {
	switch t {
	case Sandy:
		return s.Sandy
	case Loamy:
		return s.Loamy
	case Clayey:
		return s.Clayey
	case Rocky:
		return s.Rocky
	default:
		return 0
	}
}

// Dominant returns the category with the largest percentage.
// Ties go to the category that comes first in SoilTypes.
func (s Soil) Dominant() SoilType {
	best := SoilTypes[0]
	for _, t := range SoilTypes[1:] {
		if s.Percent(t) > s.Percent(best) {
			best = t
		}
	}
	return best
}

// Station is a groundwater observation station reduced to its bare location name.
type Station struct {
	Name  string
	Depth float64
}

// Town is a soil composition record.
type Town struct {
	Name string
	Soil Soil
}

// Profile is the resolved hydrological and soil profile of a location (immutable value object).
type Profile struct {
	groundwaterDepth float64
	soil             Soil
}

// NewProfile creates a profile.
func NewProfile(groundwaterDepth float64, soil Soil) Profile {
	return Profile{groundwaterDepth: groundwaterDepth, soil: soil}
}

// DefaultProfile is the static profile served when no reference data applies.
func DefaultProfile() Profile {
	return NewProfile(8.5, Soil{Sandy: 30, Loamy: 40, Clayey: 20, Rocky: 10})
}

// GroundwaterDepth returns the groundwater depth in meters.
func (p Profile) GroundwaterDepth() float64 { return p.groundwaterDepth }

// Soil returns the soil composition.
func (p Profile) Soil() Soil { return p.soil }

// DominantSoil returns the dominant soil category.
func (p Profile) DominantSoil() SoilType { return p.soil.Dominant() }
