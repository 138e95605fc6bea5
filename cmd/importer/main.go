// Command importer loads the groundwater and soil CSV tables into PostgreSQL.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rwhplan/internal/config"
	logpkg "github.com/kailas-cloud/rwhplan/internal/logger"
	"github.com/kailas-cloud/rwhplan/internal/repository/reference"
)

func main() {
	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	dsn := flag.String("dsn", cfg.Reference.PostgresDSN, "PostgreSQL connection string")
	gwPath := flag.String("groundwater", cfg.Reference.GroundwaterPath, "Path to the groundwater CSV")
	soilPath := flag.String("soil", cfg.Reference.SoilPath, "Path to the soil composition CSV")
	timeout := flag.Duration("timeout", 2*time.Minute, "Import timeout")
	flag.Parse()

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if *dsn == "" {
		logger.Fatal("--dsn is required (or reference.postgres_dsn in config)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, *dsn, *gwPath, *soilPath, logger); err != nil {
		logger.Fatal("Import failed", zap.Error(err))
	}
}

func run(ctx context.Context, dsn, gwPath, soilPath string, logger *zap.Logger) error {
	records, err := reference.ReadFile(gwPath, reference.ReadGroundwaterRecords)
	if err != nil {
		return fmt.Errorf("groundwater: %w", err)
	}
	towns, err := reference.ReadFile(soilPath, reference.ReadSoil)
	if err != nil {
		return fmt.Errorf("soil: %w", err)
	}
	logger.Info("Parsed reference CSVs",
		zap.Int("stations", len(records)),
		zap.Int("usable_stations", len(reference.ParseStations(records))),
		zap.Int("towns", len(towns)),
	)

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer func() { _ = conn.Close(context.Background()) }()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	stats, err := reference.Import(ctx, tx, records, towns)
	if err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	// Verify the tables load the same way the API server will read them.
	store, err := reference.LoadPostgres(ctx, conn)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	mean, _ := store.MeanGroundwaterDepth()
	logger.Info("Import complete",
		zap.Int64("stations_written", stats.Stations),
		zap.Int64("towns_written", stats.Towns),
		zap.Int("stations_loaded", store.StationCount()),
		zap.Float64("mean_depth", mean),
	)
	return nil
}
