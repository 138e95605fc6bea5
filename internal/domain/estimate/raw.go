package estimate

import (
	"fmt"
	"math"
)

// StructureType is the recommended rainwater storage structure.
type StructureType string

// Structure type constants.
const (
	Pit    StructureType = "pit"
	Trench StructureType = "trench"
	Shaft  StructureType = "shaft"
)

// IsValid checks if the structure type is one of the supported values.
func (t StructureType) IsValid() bool {
	return t == Pit || t == Trench || t == Shaft
}

// ParseStructureType validates a label produced by a classifier.
func ParseStructureType(s string) (StructureType, error) {
	t := StructureType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("unknown structure type %q", s)
	}
	return t, nil
}

// Target names one of the six estimators.
type Target string

// Estimator targets.
const (
	TargetStructureType Target = "structure_type"
	TargetPitDepth      Target = "pit_depth"
	TargetPitLength     Target = "pit_length"
	TargetPitWidth      Target = "pit_width"
	TargetVolume        Target = "volume"
	TargetCost          Target = "cost"
)

// RegressionTargets lists the scalar targets.
var RegressionTargets = [5]Target{
	TargetPitDepth, TargetPitLength, TargetPitWidth, TargetVolume, TargetCost,
}

// Raw is the combined estimator output for one feature vector.
// All scalars are non-negative.
type Raw struct {
	Structure StructureType
	PitDepth  float64 // meters
	PitLength float64 // meters
	PitWidth  float64 // meters
	Volume    float64 // liters
	Cost      float64 // currency units
}

// Clamp floors a regression output at zero. NaN is treated as zero.
func Clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

// Set stores a clamped regression output for target.
func (r *Raw) Set(target Target, v float64) error {
	v = Clamp(v)
	switch target {
	case TargetPitDepth:
		r.PitDepth = v
	case TargetPitLength:
		r.PitLength = v
	case TargetPitWidth:
		r.PitWidth = v
	case TargetVolume:
		r.Volume = v
	case TargetCost:
		r.Cost = v
	default:
		return fmt.Errorf("not a regression target: %q", target)
	}
	return nil
}
