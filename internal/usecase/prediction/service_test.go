package prediction

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/kailas-cloud/rwhplan/internal/domain"
	"github.com/kailas-cloud/rwhplan/internal/domain/assessment"
	"github.com/kailas-cloud/rwhplan/internal/domain/estimate"
	"github.com/kailas-cloud/rwhplan/internal/domain/feature"
	"github.com/kailas-cloud/rwhplan/internal/domain/location"
	uclocation "github.com/kailas-cloud/rwhplan/internal/usecase/location"
)

// --- Mocks ---

type mockResolver struct {
	res      uclocation.Resolution
	lastName string
}

func (m *mockResolver) ResolveDetailed(name string) uclocation.Resolution {
	m.lastName = name
	return m.res
}

type mockEstimator struct {
	ready bool
	raw   estimate.Raw
	err   error
	lastX feature.Scaled
	calls int
}

func (m *mockEstimator) Ready() bool { return m.ready }

func (m *mockEstimator) PredictAll(x feature.Scaled) (estimate.Raw, error) {
	m.calls++
	m.lastX = x
	return m.raw, m.err
}

type mockRecorder struct {
	mu          sync.Mutex
	predictions []string
	fallbacks   []string
	failures    []string
}

func (m *mockRecorder) RecordPrediction(s estimate.StructureType, f assessment.Feasibility) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions = append(m.predictions, string(s)+"/"+string(f))
}

func (m *mockRecorder) RecordFallback(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks = append(m.fallbacks, kind)
}

func (m *mockRecorder) RecordEstimatorError(target string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, target)
}

func erodeResolver() *mockResolver {
	return &mockResolver{res: uclocation.Resolution{
		Profile: location.NewProfile(5.6, location.Soil{Loamy: 100}),
	}}
}

func erodeEstimator() *mockEstimator {
	return &mockEstimator{ready: true, raw: estimate.Raw{
		Structure: estimate.Pit, PitDepth: 2.8, PitLength: 3.5, PitWidth: 3.5, Volume: 34300, Cost: 45000,
	}}
}

func identityScaler(t *testing.T) feature.Scaler {
	t.Helper()
	s, err := feature.NewScaler(make([]float64, feature.Size), []float64{1, 1, 1, 1, 1, 1, 1})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// --- Tests ---

func TestPredict_ErodeScenario(t *testing.T) {
	resolver := erodeResolver()
	est := erodeEstimator()
	rec := &mockRecorder{}
	svc := New(resolver, identityScaler(t), est).WithRecorder(rec)

	r, err := svc.Predict(context.Background(), domain.PredictionRequest{RoofArea: 150, HouseholdSize: 4, Location: "Erode"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if r.Feasibility != assessment.Feasible || r.RecommendedStructure != estimate.Pit {
		t.Errorf("unexpected verdict %q / %q", r.Feasibility, r.RecommendedStructure)
	}
	if r.WaterHarvesting.AnnualHarvestable != 29062.5 {
		t.Errorf("expected harvestable 29062.5, got %v", r.WaterHarvesting.AnnualHarvestable)
	}
	if r.WaterHarvesting.StorageEfficiency != 100 {
		t.Errorf("expected efficiency 100, got %v", r.WaterHarvesting.StorageEfficiency)
	}
	if r.CostEstimation.CostPerLiter != 1.31 || r.CostEstimation.PaybackPeriodYears != 50 {
		t.Errorf("unexpected cost figures %+v", r.CostEstimation)
	}
	if r.LocationInfo.DominantSoilType != location.Loamy || r.LocationInfo.GroundwaterDepth != 5.6 {
		t.Errorf("unexpected location info %+v", r.LocationInfo)
	}

	wantX := feature.Scaled{150, 4, 5.6, 0, 100, 0, 0}
	if est.lastX != wantX {
		t.Errorf("expected features %v, got %v", wantX, est.lastX)
	}
	if len(rec.predictions) != 1 || rec.predictions[0] != "pit/Feasible" {
		t.Errorf("unexpected recorded predictions %v", rec.predictions)
	}
}

func TestPredict_EmptyLocationDefaultsToErode(t *testing.T) {
	resolver := erodeResolver()
	svc := New(resolver, identityScaler(t), erodeEstimator())

	if _, err := svc.Predict(context.Background(), domain.PredictionRequest{RoofArea: 100, HouseholdSize: 2, Location: "  "}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolver.lastName != location.DefaultTown {
		t.Errorf("expected %q, got %q", location.DefaultTown, resolver.lastName)
	}
}

func TestPredict_Preconditions(t *testing.T) {
	est := erodeEstimator()
	svc := New(erodeResolver(), identityScaler(t), est)

	tests := []struct {
		name string
		req  domain.PredictionRequest
	}{
		{"zero roof", domain.PredictionRequest{RoofArea: 0, HouseholdSize: 3}},
		{"negative roof", domain.PredictionRequest{RoofArea: -10, HouseholdSize: 3}},
		{"zero household", domain.PredictionRequest{RoofArea: 100, HouseholdSize: 0}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Predict(context.Background(), tc.req)
			if !errors.Is(err, domain.ErrPrecondition) {
				t.Errorf("expected ErrPrecondition, got %v", err)
			}
		})
	}
	if est.calls != 0 {
		t.Errorf("estimators invoked %d times on rejected input", est.calls)
	}
}

func TestPredict_NotReady(t *testing.T) {
	req := domain.PredictionRequest{RoofArea: 100, HouseholdSize: 3}

	for _, svc := range []*Service{
		New(erodeResolver(), identityScaler(t), &mockEstimator{ready: false}),
		New(erodeResolver(), identityScaler(t), nil),
	} {
		if svc.Ready() {
			t.Error("expected service not ready")
		}
		if _, err := svc.Predict(context.Background(), req); !errors.Is(err, domain.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	}
}

func TestPredict_RecordsFallbacks(t *testing.T) {
	resolver := &mockResolver{res: uclocation.Resolution{
		Profile:   location.DefaultProfile(),
		Fallbacks: []uclocation.Fallback{uclocation.FallbackMeanDepth, uclocation.FallbackDefaultTown},
	}}
	rec := &mockRecorder{}
	svc := New(resolver, identityScaler(t), erodeEstimator()).WithRecorder(rec)

	r, err := svc.Predict(context.Background(), domain.PredictionRequest{RoofArea: 100, HouseholdSize: 3, Location: "Atlantis"})
	if err != nil {
		t.Fatalf("unresolved location must not fail: %v", err)
	}
	if r.LocationInfo.GroundwaterDepth != 8.5 {
		t.Errorf("expected default depth, got %v", r.LocationInfo.GroundwaterDepth)
	}
	if len(rec.fallbacks) != 2 || rec.fallbacks[0] != "mean_depth" || rec.fallbacks[1] != "default_town" {
		t.Errorf("unexpected fallbacks %v", rec.fallbacks)
	}
}

func TestPredict_EstimatorError(t *testing.T) {
	est := erodeEstimator()
	est.err = domain.NewEstimatorError("volume", errors.New("boom"))
	rec := &mockRecorder{}
	svc := New(erodeResolver(), identityScaler(t), est).WithRecorder(rec)

	_, err := svc.Predict(context.Background(), domain.PredictionRequest{RoofArea: 100, HouseholdSize: 3})
	var estErr *domain.EstimatorError
	if !errors.As(err, &estErr) {
		t.Fatalf("expected EstimatorError, got %v", err)
	}
	if len(rec.failures) != 1 || rec.failures[0] != "volume" {
		t.Errorf("unexpected recorded failures %v", rec.failures)
	}
	if len(rec.predictions) != 0 {
		t.Error("failed prediction must not be recorded")
	}
}

func TestPredict_Concurrent(t *testing.T) {
	svc := New(staticResolver{res: erodeResolver().res}, identityScaler(t), concurrentEstimator{})
	want, err := svc.Predict(context.Background(), domain.PredictionRequest{RoofArea: 150, HouseholdSize: 4})
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := svc.Predict(context.Background(), domain.PredictionRequest{RoofArea: 150, HouseholdSize: 4})
			if err != nil {
				errs <- err
				return
			}
			if got != want {
				errs <- errors.New("result differs between concurrent calls")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

type staticResolver struct {
	res uclocation.Resolution
}

func (s staticResolver) ResolveDetailed(_ string) uclocation.Resolution { return s.res }

// concurrentEstimator is stateless so it can be shared across goroutines.
type concurrentEstimator struct{}

func (concurrentEstimator) Ready() bool { return true }

func (concurrentEstimator) PredictAll(x feature.Scaled) (estimate.Raw, error) {
	return estimate.Raw{Structure: estimate.Trench, PitDepth: 1, PitLength: x[0] / 10, PitWidth: 1.5, Volume: x[0] * 20, Cost: 9000}, nil
}
