package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rwhplan/internal/domain"
	"github.com/kailas-cloud/rwhplan/internal/domain/assessment"
	healthuc "github.com/kailas-cloud/rwhplan/internal/usecase/health"
)

// Request limits accepted by POST /predict.
const (
	MaxRoofArea      = 10000.0
	MaxHouseholdSize = 50

	maxBodyBytes = 1 << 20
)

// locationsNote accompanies every /locations response.
const locationsNote = "If your location is not listed, the system will use the nearest available data"

// fallbackLocations is served by /locations when reference data is unavailable.
var fallbackLocations = []string{"Erode", "Gobichettipalayam", "Bhavani", "Sathyamangalam"}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Locations lists the towns the reference data knows about.
type Locations interface {
	IsDegraded() bool
	Towns() []string
}

// Server serves the prediction API.
type Server struct {
	predictor     domain.Predictor
	health        *healthuc.Service
	locations     Locations
	modelVersion  string
	logger        *zap.Logger
	errorHandlers []errorHandler
	newID         func() string
}

// NewServer creates an HTTP API server. locations may be nil, in which case
// /locations serves the static fallback list.
func NewServer(
	predictor domain.Predictor,
	health *healthuc.Service,
	locations Locations,
	modelVersion string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		predictor:    predictor,
		health:       health,
		locations:    locations,
		modelVersion: modelVersion,
		logger:       logger,
		newID:        uuid.NewString,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrPrecondition, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrServiceUnavailable, http.StatusServiceUnavailable, CodeServiceUnavailable),
	}
	return s
}

// Routes registers the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.Index)
	r.Post("/predict", s.Predict)
	r.Get("/health", s.HealthCheck)
	r.Get("/locations", s.ListLocations)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "The requested endpoint does not exist")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
	})
}

// Index handles GET /.
func (s *Server) Index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, indexText)
}

const indexText = `RWH-Erode ML API

Rooftop rainwater harvesting estimates for the Erode district.

POST /predict     {"roof_area": 150, "household_size": 5, "location": "Erode"}
GET  /health      service status
GET  /locations   supported locations
GET  /metrics     Prometheus metrics
`

// Predict handles POST /predict.
func (s *Server) Predict(w http.ResponseWriter, r *http.Request) {
	var body predictRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Request body must be valid JSON")
		return
	}

	req, err := body.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	res, err := s.predictor.Predict(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, predictResponse{
		Result: res,
		Metadata: predictionMetadata{
			PredictionID: s.newID(),
			ModelVersion: s.modelVersion,
			APIVersion:   domain.APIVersion,
			InputParameters: inputParameters{
				RoofArea:      req.RoofArea,
				HouseholdSize: req.HouseholdSize,
				Location:      req.Location,
			},
		},
	})
}

// HealthCheck handles GET /health.
// Degraded still answers 200 since predictions are served.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:             string(report.Status),
		Service:            domain.ServiceName,
		Version:            domain.APIVersion,
		ModelVersion:       s.modelVersion,
		ModelsLoaded:       report.ModelsLoaded,
		LocationsAvailable: report.Locations,
		Checks:             checks,
	})
}

// ListLocations handles GET /locations.
func (s *Server) ListLocations(w http.ResponseWriter, _ *http.Request) {
	names := fallbackLocations
	if s.locations != nil && !s.locations.IsDegraded() {
		names = s.locations.Towns()
	}
	writeJSON(w, http.StatusOK, locationsResponse{
		Locations:  names,
		TotalCount: len(names),
		Note:       locationsNote,
	})
}

// predictRequest is the raw /predict body. Numbers are decoded as float64 so that
// a non-integral household size can be rejected instead of truncated.
type predictRequest struct {
	RoofArea      *float64 `json:"roof_area"`
	HouseholdSize *float64 `json:"household_size"`
	Location      *string  `json:"location"`
}

func (p predictRequest) toDomain() (domain.PredictionRequest, error) {
	if p.RoofArea == nil || p.HouseholdSize == nil {
		return domain.PredictionRequest{}, errors.New("roof_area and household_size are required")
	}
	roof, household := *p.RoofArea, *p.HouseholdSize

	if math.IsNaN(roof) || roof <= 0 || roof > MaxRoofArea {
		return domain.PredictionRequest{}, fmt.Errorf("roof_area must be greater than 0 and at most %g square meters", MaxRoofArea)
	}
	if household != math.Trunc(household) {
		return domain.PredictionRequest{}, errors.New("household_size must be an integer")
	}
	if household <= 0 || household > MaxHouseholdSize {
		return domain.PredictionRequest{}, fmt.Errorf("household_size must be between 1 and %d people", MaxHouseholdSize)
	}

	req := domain.PredictionRequest{RoofArea: roof, HouseholdSize: int(household)}
	if p.Location != nil {
		req.Location = *p.Location
	}
	return req.Normalized(), nil
}

type predictResponse struct {
	assessment.Result
	Metadata predictionMetadata `json:"metadata"`
}

type predictionMetadata struct {
	PredictionID    string          `json:"prediction_id"`
	ModelVersion    string          `json:"model_version"`
	APIVersion      string          `json:"api_version"`
	InputParameters inputParameters `json:"input_parameters"`
}

type inputParameters struct {
	RoofArea      float64 `json:"roof_area"`
	HouseholdSize int     `json:"household_size"`
	Location      string  `json:"location"`
}

type healthResponse struct {
	Status             string            `json:"status"`
	Service            string            `json:"service"`
	Version            string            `json:"version"`
	ModelVersion       string            `json:"model_version"`
	ModelsLoaded       int               `json:"models_loaded"`
	LocationsAvailable int               `json:"locations_available"`
	Checks             map[string]string `json:"checks"`
}

type locationsResponse struct {
	Locations  []string `json:"locations"`
	TotalCount int      `json:"total_count"`
	Note       string   `json:"note"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrPrecondition,
		domain.ErrServiceUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "An error occurred while making the prediction")
}
