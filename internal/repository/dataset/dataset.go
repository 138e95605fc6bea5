// Package dataset persists synthetic training samples as CSV or Parquet.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/rwhplan/internal/domain/estimate"
	"github.com/kailas-cloud/rwhplan/internal/domain/location"
	"github.com/kailas-cloud/rwhplan/internal/domain/synth"
)

// ErrUnsupportedFormat is returned for file extensions other than .csv and .parquet.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// Columns is the dataset header, in file order.
var Columns = []string{
	"roof_area", "household_size", "groundwater_depth",
	"sandy_percentage", "loamy_percentage", "clayey_percentage", "rocky_percentage",
	"structure_type", "pit_length", "pit_width", "pit_depth", "volume", "cost",
}

// Row is the on-disk shape of one sample.
type Row struct {
	RoofArea         float64 `parquet:"roof_area"`
	HouseholdSize    int64   `parquet:"household_size"`
	GroundwaterDepth float64 `parquet:"groundwater_depth"`
	Sandy            float64 `parquet:"sandy_percentage"`
	Loamy            float64 `parquet:"loamy_percentage"`
	Clayey           float64 `parquet:"clayey_percentage"`
	Rocky            float64 `parquet:"rocky_percentage"`
	StructureType    string  `parquet:"structure_type,dict"`
	PitLength        float64 `parquet:"pit_length"`
	PitWidth         float64 `parquet:"pit_width"`
	PitDepth         float64 `parquet:"pit_depth"`
	Volume           float64 `parquet:"volume"`
	Cost             float64 `parquet:"cost"`
}

// FromSample converts a sample to its row form.
func FromSample(s synth.Sample) Row {
	return Row{
		RoofArea:         s.RoofArea,
		HouseholdSize:    int64(s.HouseholdSize),
		GroundwaterDepth: s.GroundwaterDepth,
		Sandy:            s.Soil.Sandy,
		Loamy:            s.Soil.Loamy,
		Clayey:           s.Soil.Clayey,
		Rocky:            s.Soil.Rocky,
		StructureType:    string(s.Structure),
		PitLength:        s.PitLength,
		PitWidth:         s.PitWidth,
		PitDepth:         s.PitDepth,
		Volume:           s.Volume,
		Cost:             s.Cost,
	}
}

// Sample converts a row back to a sample.
func (r Row) Sample() (synth.Sample, error) {
	st := estimate.StructureType(r.StructureType)
	if !st.IsValid() {
		return synth.Sample{}, fmt.Errorf("unknown structure type %q", r.StructureType)
	}
	return synth.Sample{
		RoofArea:         r.RoofArea,
		HouseholdSize:    int(r.HouseholdSize),
		GroundwaterDepth: r.GroundwaterDepth,
		Soil:             location.Soil{Sandy: r.Sandy, Loamy: r.Loamy, Clayey: r.Clayey, Rocky: r.Rocky},
		Structure:        st,
		PitLength:        r.PitLength,
		PitWidth:         r.PitWidth,
		PitDepth:         r.PitDepth,
		Volume:           r.Volume,
		Cost:             r.Cost,
	}, nil
}

func (r Row) record() []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return []string{
		f(r.RoofArea), strconv.FormatInt(r.HouseholdSize, 10), f(r.GroundwaterDepth),
		f(r.Sandy), f(r.Loamy), f(r.Clayey), f(r.Rocky),
		r.StructureType, f(r.PitLength), f(r.PitWidth), f(r.PitDepth), f(r.Volume), f(r.Cost),
	}
}

// WriteCSV writes samples with a header row.
func WriteCSV(w io.Writer, samples []synth.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, s := range samples {
		if err := cw.Write(FromSample(s).record()); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteParquet writes samples as a single Parquet file.
func WriteParquet(w io.Writer, samples []synth.Sample) error {
	rows := make([]Row, len(samples))
	for i, s := range samples {
		rows[i] = FromSample(s)
	}

	pw := parquet.NewGenericWriter[Row](w)
	if _, err := pw.Write(rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close writer: %w", err)
	}
	return nil
}

// ReadParquet reads every sample of a Parquet file.
func ReadParquet(r io.ReaderAt, size int64) ([]synth.Sample, error) {
	rows, err := parquet.Read[Row](r, size)
	if err != nil {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	out := make([]synth.Sample, len(rows))
	for i, row := range rows {
		s, err := row.Sample()
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}

// WriteFile writes samples to path, choosing the format by extension.
func WriteFile(path string, samples []synth.Sample) (err error) {
	write, err := writerFor(path)
	if err != nil {
		return err
	}

	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return write(f, samples)
}

// ReadFile reads samples from a Parquet file.
func ReadFile(path string) ([]synth.Sample, error) {
	if !strings.EqualFold(filepath.Ext(path), ".parquet") {
		return nil, fmt.Errorf("%w: %s (only .parquet can be read back)", ErrUnsupportedFormat, path)
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return ReadParquet(f, info.Size())
}

func writerFor(path string) (func(io.Writer, []synth.Sample) error, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return WriteCSV, nil
	case ".parquet":
		return WriteParquet, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}
