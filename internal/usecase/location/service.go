package location

import domloc "github.com/kailas-cloud/rwhplan/internal/domain/location"

// Fallback names a resolution rule that replaced a direct lookup.
type Fallback string

const (
	// FallbackMeanDepth means no station matched and the table mean depth was used.
	FallbackMeanDepth Fallback = "mean_depth"
	// FallbackDefaultTown means no town matched and the default town's soil was used.
	FallbackDefaultTown Fallback = "default_town"
	// FallbackDefaultProfile means the hardcoded profile was used.
	FallbackDefaultProfile Fallback = "default_profile"
)

// Resolution is a resolved profile plus the fallbacks that produced it.
type Resolution struct {
	Profile   domloc.Profile
	Fallbacks []Fallback
}

// Service resolves free-text location names into profiles. Resolution never fails.
type Service struct {
	store Store
}

// New creates a Service. A nil store behaves like a degraded one.
func New(store Store) *Service {
	return &Service{store: store}
}

// Resolve returns the profile for name.
func (s *Service) Resolve(name string) domloc.Profile {
	return s.ResolveDetailed(name).Profile
}

// ResolveDetailed resolves name and reports which fallbacks fired.
// Groundwater and soil lookups fall back independently, except that a missing default
// town replaces the whole profile with the hardcoded default.
func (s *Service) ResolveDetailed(name string) Resolution {
	if s.store == nil || s.store.IsDegraded() {
		return defaultResolution()
	}

	var fallbacks []Fallback

	depth, ok := s.store.GroundwaterDepthFor(name)
	if !ok {
		mean, ok := s.store.MeanGroundwaterDepth()
		if !ok {
			return defaultResolution()
		}
		// TODO: replace the district mean with the nearest station once stations carry coordinates.
		depth = mean
		fallbacks = append(fallbacks, FallbackMeanDepth)
	}

	soil, ok := s.store.SoilFor(name)
	if !ok {
		soil, ok = s.store.SoilForTown(domloc.DefaultTown)
		if !ok {
			return defaultResolution()
		}
		fallbacks = append(fallbacks, FallbackDefaultTown)
	}

	return Resolution{Profile: domloc.NewProfile(depth, soil), Fallbacks: fallbacks}
}

func defaultResolution() Resolution {
	return Resolution{
		Profile:   domloc.DefaultProfile(),
		Fallbacks: []Fallback{FallbackDefaultProfile},
	}
}
