package config

import (
	"math"
	"os"
	"strconv"
)

// GradeScale bounds the overall grade and the four sub-grades. The scale is
// deployment configuration, not business law: the defaults match the common
// 1-10 half-point scale but can be overridden per environment.
type GradeScale struct {
	Min  float64
	Max  float64
	Step float64
}

// LoadGradeScale reads GRADE_MIN, GRADE_MAX and GRADE_STEP, falling back to
// 1-10 in 0.5 increments when unset or unparsable.
func LoadGradeScale() GradeScale {
	return GradeScale{
		Min:  envFloat("GRADE_MIN", 1),
		Max:  envFloat("GRADE_MAX", 10),
		Step: envFloat("GRADE_STEP", 0.5),
	}
}

func envFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// Contains reports whether v lies on the scale: within bounds and on a step
// boundary (within a small tolerance for float rounding).
func (s GradeScale) Contains(v float64) bool {
	if v < s.Min || v > s.Max {
		return false
	}
	if s.Step <= 0 {
		return true
	}
	steps := (v - s.Min) / s.Step
	return math.Abs(steps-math.Round(steps)) < 1e-6
}
