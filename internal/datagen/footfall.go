//-------------------------------------------------------------------------
//
// mallflow
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"fmt"
	"sort"
	"time"
)

// FootfallProfile shapes daily mall traffic in generated facts.
type FootfallProfile interface {
	// Name returns the profile name.
	Name() string

	// Description returns a human-readable description.
	Description() string

	// ActivityLevel returns the relative traffic of a day (1.0 is an
	// ordinary weekday).
	ActivityLevel(day time.Time) float64
}

var profiles = make(map[string]func() FootfallProfile)

// RegisterProfile adds a profile constructor to the registry.
func RegisterProfile(name string, constructor func() FootfallProfile) {
	profiles[name] = constructor
}

// GetProfile retrieves a profile by name.
func GetProfile(name string) (FootfallProfile, error) {
	constructor, ok := profiles[name]
	if !ok {
		return nil, fmt.Errorf("unknown footfall profile: %s", name)
	}
	return constructor(), nil
}

// ListProfiles returns all registered profile names, sorted.
func ListProfiles() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	RegisterProfile("retail", func() FootfallProfile { return retailProfile{} })
	RegisterProfile("flat", func() FootfallProfile { return flatProfile{} })
}

// retailProfile follows a typical European mall week.
// Monday - Thursday: 100%
// Friday: 115%
// Saturday: 150%
// Sunday: 60% (reduced opening)
// December: +25%, first half of January sales: +15%
type retailProfile struct{}

func (retailProfile) Name() string {
	return "retail"
}

func (retailProfile) Description() string {
	return "Retail mall week with Saturday peak and seasonal sales"
}

func (retailProfile) ActivityLevel(day time.Time) float64 {
	var base float64

	switch day.Weekday() {
	case time.Friday:
		base = 1.15
	case time.Saturday:
		base = 1.50
	case time.Sunday:
		base = 0.60
	default:
		base = 1.0
	}

	switch {
	case day.Month() == time.December:
		base *= 1.25
	case day.Month() == time.January && day.Day() <= 15:
		base *= 1.15
	}

	return base
}

// flatProfile has the same traffic every day.
type flatProfile struct{}

func (flatProfile) Name() string {
	return "flat"
}

func (flatProfile) Description() string {
	return "Constant traffic every day"
}

func (flatProfile) ActivityLevel(time.Time) float64 {
	return 1.0
}
