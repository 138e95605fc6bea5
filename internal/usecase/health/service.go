package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates predictions are served with reduced quality or without cache.
	Degraded Status = "degraded"
	// Unhealthy indicates predictions cannot be served.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckDegraded indicates a component running on fallbacks.
	CheckDegraded CheckResult = "degraded"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names used as check keys.
const (
	CheckModels    = "models"
	CheckReference = "reference_data"
	CheckCache     = "cache"
)

// Report aggregates health check results.
type Report struct {
	Status       Status
	Checks       map[string]CheckResult
	ModelsLoaded int
	Locations    int
}

// Service coordinates health checks.
type Service struct {
	models    Models
	reference ReferenceData
	cache     DBPinger
}

// New creates a Service. cache can be nil when the prediction cache is disabled.
func New(models Models, reference ReferenceData, cache DBPinger) *Service {
	return &Service{models: models, reference: reference, cache: cache}
}

// Check runs health checks against all components.
// Missing estimators make the service unhealthy. Degraded reference data or an
// unreachable cache only degrade it, since predictions still succeed.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	r := Report{Checks: checks}

	if s.models != nil {
		r.ModelsLoaded = s.models.Loaded()
	}
	if s.models != nil && s.models.Ready() {
		checks[CheckModels] = CheckOK
	} else {
		checks[CheckModels] = CheckError
	}

	if s.reference == nil || s.reference.IsDegraded() {
		checks[CheckReference] = CheckDegraded
	} else {
		checks[CheckReference] = CheckOK
		r.Locations = s.reference.TownCount()
	}

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			checks[CheckCache] = CheckError
		} else {
			checks[CheckCache] = CheckOK
		}
	}

	r.Status = Healthy
	for name, v := range checks {
		if v == CheckOK {
			continue
		}
		if name == CheckModels {
			r.Status = Unhealthy
			break
		}
		r.Status = Degraded
	}
	return r
}
