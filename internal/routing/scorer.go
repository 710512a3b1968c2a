package routing

import (
	"github.com/oernster/trainer-sub004/internal/graph"
	"github.com/oernster/trainer-sub004/internal/models"
	"github.com/oernster/trainer-sub004/internal/stations"
)

// Scoring constants. The overall score is a display-ranking formula
// and is intentionally not the planner's search cost.
const (
	estimateMinutesPerKm  = 1.5
	scoreChangePenalty    = 15.0
	scoreDistanceWeight   = 0.5
	scoreEfficiencyWeight = 20.0
)

// Scorer computes diagnostic metrics for ranking and display
type Scorer struct {
	repo *stations.Repository
}

// NewScorer creates a scorer over the loaded repository
func NewScorer(repo *stations.Repository) *Scorer {
	return &Scorer{repo: repo}
}

// ScoreRoute sums per-hop distance and journey time, counts line
// changes via common-line intersection between consecutive stations,
// and computes the overall ranking score (lower is better)
func (s *Scorer) ScoreRoute(path []string) (models.RouteMetrics, bool) {
	if len(path) < 2 {
		return models.RouteMetrics{}, false
	}

	start, ok := s.repo.StationByCode(path[0])
	if !ok {
		return models.RouteMetrics{}, false
	}
	end, ok := s.repo.StationByCode(path[len(path)-1])
	if !ok {
		return models.RouteMetrics{}, false
	}

	totalDistance := 0.0
	totalTime := 0.0
	changes := 0
	var carriedLines []string

	for i := 0; i+1 < len(path); i++ {
		a, okA := s.repo.StationByCode(path[i])
		b, okB := s.repo.StationByCode(path[i+1])
		if !okA || !okB {
			return models.RouteMetrics{}, false
		}

		dist := graph.HaversineKm(a.Coordinates, b.Coordinates)
		totalDistance += dist

		if minutes, found := s.repo.JourneyTime(path[i], path[i+1]); found {
			totalTime += float64(minutes)
		} else {
			totalTime += dist * estimateMinutesPerKm
		}

		hopLines := intersect(s.repo.LinesServing(path[i]), s.repo.LinesServing(path[i+1]))
		if len(carriedLines) == 0 {
			carriedLines = hopLines
			continue
		}
		shared := intersect(carriedLines, hopLines)
		if len(shared) == 0 {
			changes++
			carriedLines = hopLines
		} else {
			carriedLines = shared
		}
	}

	direct := graph.HaversineKm(start.Coordinates, end.Coordinates)
	efficiency := 0.0
	if totalDistance > 0 {
		efficiency = direct / totalDistance
	}

	overall := totalTime +
		float64(changes)*scoreChangePenalty +
		totalDistance*scoreDistanceWeight -
		efficiency*scoreEfficiencyWeight

	return models.RouteMetrics{
		DistanceKm: totalDistance,
		TimeMin:    totalTime,
		Changes:    changes,
		Efficiency: efficiency,
		Overall:    overall,
	}, true
}

func intersect(a, b []string) []string {
	inA := make(map[string]bool, len(a))
	for _, v := range a {
		inA[v] = true
	}
	var out []string
	for _, v := range b {
		if inA[v] {
			out = append(out, v)
		}
	}
	return out
}
