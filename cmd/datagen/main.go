// Command datagen builds the synthetic training dataset from the reference tables
// and optionally fits a baseline estimator bundle from it.
//
// Usage:
//
//	datagen -n 1000 -out training_data.parquet -bundle models/bundle.yaml
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rwhplan/internal/config"
	"github.com/kailas-cloud/rwhplan/internal/domain/synth"
	"github.com/kailas-cloud/rwhplan/internal/estimator"
	logpkg "github.com/kailas-cloud/rwhplan/internal/logger"
	"github.com/kailas-cloud/rwhplan/internal/repository/dataset"
	"github.com/kailas-cloud/rwhplan/internal/repository/reference"
	"github.com/kailas-cloud/rwhplan/internal/version"
)

type options struct {
	groundwater string
	soil        string
	samples     int
	seed        uint64
	out         string
	from        string
	bundle      string
	version     string
	lambda      float64
}

func main() {
	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	opts := options{}
	flag.StringVar(&opts.groundwater, "groundwater", cfg.Reference.GroundwaterPath, "Path to the groundwater CSV")
	flag.StringVar(&opts.soil, "soil", cfg.Reference.SoilPath, "Path to the soil composition CSV")
	flag.IntVar(&opts.samples, "n", 1000, "Number of samples to generate")
	flag.Uint64Var(&opts.seed, "seed", 42, "Random seed")
	flag.StringVar(&opts.out, "out", "training_data.csv", "Output dataset (.csv or .parquet)")
	flag.StringVar(&opts.from, "from", "", "Fit from an existing .parquet dataset instead of generating")
	flag.StringVar(&opts.bundle, "bundle", "", "Write a fitted estimator bundle to this path")
	flag.StringVar(&opts.version, "version", version.Version, "Version recorded in the bundle")
	flag.Float64Var(&opts.lambda, "lambda", estimator.DefaultRidge, "Ridge regularization of the baseline fit")
	flag.Parse()

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(opts, logger); err != nil {
		logger.Fatal("datagen failed", zap.Error(err))
	}
}

func run(opts options, logger *zap.Logger) error {
	samples, err := loadSamples(opts, logger)
	if err != nil {
		return err
	}

	if opts.bundle == "" {
		return nil
	}

	spec, err := estimator.FitLinear(samples, opts.version, opts.lambda)
	if err != nil {
		return fmt.Errorf("fit: %w", err)
	}
	// Build before writing so a bundle the server would reject never reaches disk.
	if _, err := spec.Build(); err != nil {
		return fmt.Errorf("fitted bundle invalid: %w", err)
	}
	data, err := spec.Marshal()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(opts.bundle); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create bundle dir: %w", err)
		}
	}
	if err := os.WriteFile(opts.bundle, data, 0o600); err != nil {
		return fmt.Errorf("write bundle: %w", err)
	}
	logger.Info("Bundle written", zap.String("path", opts.bundle), zap.String("version", opts.version))
	return nil
}

func loadSamples(opts options, logger *zap.Logger) ([]synth.Sample, error) {
	if opts.from != "" {
		samples, err := dataset.ReadFile(opts.from)
		if err != nil {
			return nil, err
		}
		logger.Info("Dataset loaded", zap.String("path", opts.from), zap.Int("samples", len(samples)))
		return samples, nil
	}

	if opts.samples <= 0 {
		return nil, errors.New("-n must be positive")
	}
	store, err := reference.LoadCSV(opts.groundwater, opts.soil)
	if err != nil {
		return nil, fmt.Errorf("load reference data: %w", err)
	}
	gen, err := synth.NewGenerator(store.Stations(), store, opts.seed)
	if err != nil {
		return nil, err
	}
	samples := gen.Generate(opts.samples)

	if err := dataset.WriteFile(opts.out, samples); err != nil {
		return nil, err
	}
	logger.Info("Dataset written",
		zap.String("path", opts.out),
		zap.Int("samples", len(samples)),
		zap.Int("stations", store.StationCount()),
		zap.Int("towns", store.TownCount()),
	)
	return samples, nil
}
