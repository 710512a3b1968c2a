package routing

import (
	"github.com/oernster/trainer-sub004/internal/graph"
	"github.com/oernster/trainer-sub004/internal/stations"
)

// Geography thresholds. Empirically tuned alongside the edge-cost
// weights; do not "correct" without revisiting both.
const (
	minGeographicEfficiency = 0.6
	maxDetourFactor         = 1.8
)

// Validator rejects geographically illogical candidate routes
type Validator struct {
	repo *stations.Repository
}

// NewValidator creates a validator over the loaded repository
func NewValidator(repo *stations.Repository) *Validator {
	return &Validator{repo: repo}
}

// ValidateRouteGeography accepts a route only if the direct distance
// between its endpoints is more than minGeographicEfficiency of the
// total route distance, and no intermediate station detours more than
// maxDetourFactor times the direct distance. Pure and deterministic.
func (v *Validator) ValidateRouteGeography(path []string, from, to string) bool {
	if len(path) < 2 {
		return false
	}

	start, ok := v.repo.StationByCode(from)
	if !ok {
		return false
	}
	end, ok := v.repo.StationByCode(to)
	if !ok {
		return false
	}

	direct := graph.HaversineKm(start.Coordinates, end.Coordinates)

	total := 0.0
	for i := 0; i+1 < len(path); i++ {
		a, okA := v.repo.StationByCode(path[i])
		b, okB := v.repo.StationByCode(path[i+1])
		if !okA || !okB {
			return false
		}
		total += graph.HaversineKm(a.Coordinates, b.Coordinates)
	}

	if total > 0 && direct/total <= minGeographicEfficiency {
		return false
	}

	// Detour check per intermediate station, independent of the
	// overall efficiency threshold.
	for _, code := range path[1 : len(path)-1] {
		mid, okMid := v.repo.StationByCode(code)
		if !okMid {
			return false
		}
		legSum := graph.HaversineKm(start.Coordinates, mid.Coordinates) +
			graph.HaversineKm(mid.Coordinates, end.Coordinates)
		if legSum > maxDetourFactor*direct {
			return false
		}
	}

	return true
}
