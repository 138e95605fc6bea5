package reference

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kailas-cloud/rwhplan/internal/domain/location"
)

// Schema creates the reference tables. Shared by the importer and tests.
const Schema = `
CREATE TABLE IF NOT EXISTS groundwater_stations (
	id BIGSERIAL PRIMARY KEY,
	station TEXT NOT NULL,
	observed_range TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS soil_composition (
	id BIGSERIAL PRIMARY KEY,
	town TEXT NOT NULL,
	sandy DOUBLE PRECISION NOT NULL,
	loamy DOUBLE PRECISION NOT NULL,
	clayey DOUBLE PRECISION NOT NULL,
	rocky DOUBLE PRECISION NOT NULL
);
`

const (
	selectStations = `SELECT station, observed_range FROM groundwater_stations ORDER BY id`
	selectSoil     = `SELECT town, sandy, loamy, clayey, rocky FROM soil_composition ORDER BY id`
)

// Querier is the subset of pgx used for loading. Satisfied by *pgx.Conn and *pgxpool.Pool.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// LoadPostgres reads both reference tables from PostgreSQL and builds a store.
// Raw station rows go through the same parsing as the CSV loader.
func LoadPostgres(ctx context.Context, q Querier) (*Store, error) {
	records, err := queryStations(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("groundwater table: %w", err)
	}
	towns, err := querySoil(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("soil table: %w", err)
	}
	return Build(ParseStations(records), towns)
}

func queryStations(ctx context.Context, q Querier) ([]GroundwaterRecord, error) {
	rows, err := q.Query(ctx, selectStations)
	if err != nil {
		return nil, fmt.Errorf("query stations: %w", err)
	}
	defer rows.Close()

	var out []GroundwaterRecord
	for rows.Next() {
		var rec GroundwaterRecord
		if err := rows.Scan(&rec.Station, &rec.ObservedRange); err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		if strings.TrimSpace(rec.Station) == "" || strings.TrimSpace(rec.ObservedRange) == "" {
			continue
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stations: %w", err)
	}
	return out, nil
}

func querySoil(ctx context.Context, q Querier) ([]location.Town, error) {
	rows, err := q.Query(ctx, selectSoil)
	if err != nil {
		return nil, fmt.Errorf("query soil: %w", err)
	}
	defer rows.Close()

	var out []location.Town
	for rows.Next() {
		var (
			name string
			pct  [4]float64
		)
		if err := rows.Scan(&name, &pct[0], &pct[1], &pct[2], &pct[3]); err != nil {
			return nil, fmt.Errorf("scan soil: %w", err)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if town, ok := newTown(name, pct); ok {
			out = append(out, town)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate soil: %w", err)
	}
	return out, nil
}

// Execer is the subset of pgx used for importing. Satisfied by *pgx.Conn and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

// ImportStats counts the rows written by Import.
type ImportStats struct {
	Stations int64
	Towns    int64
}

// Import creates the schema if missing and replaces the contents of both tables.
// Run it inside a transaction to keep readers from seeing empty tables.
func Import(ctx context.Context, db Execer, records []GroundwaterRecord, towns []location.Town) (ImportStats, error) {
	var stats ImportStats
	if _, err := db.Exec(ctx, Schema); err != nil {
		return stats, fmt.Errorf("create schema: %w", err)
	}
	if _, err := db.Exec(ctx, `TRUNCATE groundwater_stations, soil_composition RESTART IDENTITY`); err != nil {
		return stats, fmt.Errorf("truncate: %w", err)
	}

	n, err := db.CopyFrom(ctx,
		pgx.Identifier{"groundwater_stations"},
		[]string{"station", "observed_range"},
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			return []any{records[i].Station, records[i].ObservedRange}, nil
		}),
	)
	if err != nil {
		return stats, fmt.Errorf("copy stations: %w", err)
	}
	stats.Stations = n

	n, err = db.CopyFrom(ctx,
		pgx.Identifier{"soil_composition"},
		[]string{"town", "sandy", "loamy", "clayey", "rocky"},
		pgx.CopyFromSlice(len(towns), func(i int) ([]any, error) {
			s := towns[i].Soil
			return []any{towns[i].Name, s.Sandy, s.Loamy, s.Clayey, s.Rocky}, nil
		}),
	)
	if err != nil {
		return stats, fmt.Errorf("copy soil: %w", err)
	}
	stats.Towns = n
	return stats, nil
}
