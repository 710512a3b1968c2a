package routing

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oernster/trainer-sub004/internal/graph"
	"github.com/oernster/trainer-sub004/internal/models"
	"github.com/oernster/trainer-sub004/internal/stations"
)

func writeDataset(t *testing.T, lines []map[string]interface{}) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, stations.LinesDirName), 0o755))

	var index []map[string]interface{}
	for _, line := range lines {
		index = append(index, map[string]interface{}{
			"name":     line["name"],
			"file":     line["file"],
			"operator": line["operator"],
		})

		content := map[string]interface{}{
			"stations":              line["stations"],
			"typical_journey_times": line["typical_journey_times"],
		}
		data, err := json.Marshal(content)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, stations.LinesDirName, line["file"].(string)), data, 0o644))
	}

	indexData, err := json.Marshal(map[string]interface{}{"lines": index})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, stations.IndexFileName), indexData, 0o644))

	return dir
}

func stop(name, code string, lat, lng float64) map[string]interface{} {
	return map[string]interface{}{
		"name": name,
		"code": code,
		"coordinates": map[string]float64{
			"lat": lat, "lng": lng,
		},
	}
}

// suburbanRepo is the shared two-line fixture: Main Line FLE-WOK-CLJ-WAT
// and Windsor Line WAT-CLJ-RIC-STA, interchanging at CLJ and WAT
func suburbanRepo(t *testing.T) *stations.Repository {
	t.Helper()
	mainLine := map[string]interface{}{
		"name":     "Main Line",
		"file":     "main_line.json",
		"operator": "South Western Railway",
		"stations": []map[string]interface{}{
			stop("Fleet", "FLE", 51.2754, -0.8356),
			stop("Woking", "WOK", 51.3190, -0.5567),
			stop("Clapham Junction", "CLJ", 51.4642, -0.1705),
			stop("London Waterloo", "WAT", 51.5031, -0.1132),
		},
		"typical_journey_times": map[string]int{
			"FLE-WOK": 12,
			"WOK-CLJ": 17,
			"CLJ-WAT": 8,
		},
	}
	windsorLine := map[string]interface{}{
		"name":     "Windsor Line",
		"file":     "windsor_line.json",
		"operator": "South Western Railway",
		"stations": []map[string]interface{}{
			stop("London Waterloo", "WAT", 51.5031, -0.1132),
			stop("Clapham Junction", "CLJ", 51.4642, -0.1705),
			stop("Richmond", "RIC", 51.4633, -0.3013),
			stop("Staines", "STA", 51.4342, -0.5069),
		},
		"typical_journey_times": map[string]int{
			"WAT-CLJ": 8,
			"CLJ-RIC": 10,
			"RIC-STA": 11,
		},
	}

	repo := stations.NewRepository(writeDataset(t, []map[string]interface{}{mainLine, windsorLine}))
	require.NoError(t, repo.Load())
	return repo
}

func suburbanPlanner(t *testing.T) *Planner {
	t.Helper()
	repo := suburbanRepo(t)
	network, err := graph.NewBuilder(repo, stations.NewPatternCatalog(repo.Lines())).Build()
	require.NoError(t, err)
	return NewPlanner(network, repo)
}

func TestFindRoutesDirect(t *testing.T) {
	planner := suburbanPlanner(t)

	routes := planner.FindRoutes("FLE", "WAT", SearchOptions{MaxChanges: 3, MaxRoutes: 5})
	require.NotEmpty(t, routes)

	best := routes[0]
	assert.Equal(t, "Fleet", best.FromStation)
	assert.Equal(t, "London Waterloo", best.ToStation)
	assert.Equal(t, []string{"FLE", "WOK", "CLJ", "WAT"}, best.PathCodes)
	assert.Equal(t, 0, best.Changes)
	assert.Equal(t, 37.0, best.JourneyTimeMin)
	assert.Equal(t, []string{"South Western Railway"}, best.Operators)
	assert.Contains(t, best.InterchangeStations, "Clapham Junction")
}

func TestFindRoutesWithChange(t *testing.T) {
	planner := suburbanPlanner(t)

	routes := planner.FindRoutes("FLE", "STA", SearchOptions{MaxChanges: 3, MaxRoutes: 5})
	require.NotEmpty(t, routes)

	best := routes[0]
	assert.Equal(t, "Fleet", best.FromStation)
	assert.Equal(t, "Staines", best.ToStation)
	assert.Equal(t, 1, best.Changes)

	t.Run("No station repeats within a route", func(t *testing.T) {
		for _, route := range routes {
			seen := make(map[string]bool)
			for _, code := range route.PathCodes {
				assert.False(t, seen[code], "duplicate %s in %v", code, route.PathCodes)
				seen[code] = true
			}
		}
	})
}

func TestFindRoutesMaxChangesCap(t *testing.T) {
	planner := suburbanPlanner(t)

	// Fleet to Staines needs a line change; a zero-change budget has no
	// answer on either search.
	routes := planner.FindRoutes("FLE", "STA", SearchOptions{MaxChanges: 0, MaxRoutes: 5})
	assert.Empty(t, routes)
}

func TestFindRoutesUnknownStation(t *testing.T) {
	planner := suburbanPlanner(t)

	assert.Empty(t, planner.FindRoutes("XXX", "WAT", SearchOptions{MaxChanges: 3, MaxRoutes: 5}))
	assert.Empty(t, planner.FindRoutes("FLE", "XXX", SearchOptions{MaxChanges: 3, MaxRoutes: 5}))
}

func TestFindRoutesDeterministic(t *testing.T) {
	planner := suburbanPlanner(t)
	opts := SearchOptions{MaxChanges: 3, MaxRoutes: 5}

	first := planner.FindRoutes("FLE", "STA", opts)
	second := planner.FindRoutes("FLE", "STA", opts)
	assert.Equal(t, first, second)
}

func TestFindRoutesTimeOfDay(t *testing.T) {
	// Two parallel paths A-C: via B (morning service only) and via D
	// (all day). B's path is shorter, so it wins when available.
	branch := map[string]interface{}{
		"name":     "Branch Line",
		"file":     "branch.json",
		"operator": "GWR",
		"stations": []map[string]interface{}{
			stop("Alton Park", "APK", 51.00, -1.00),
			{
				"name": "Bramley Halt",
				"code": "BRH",
				"coordinates": map[string]float64{
					"lat": 51.05, "lng": -1.00,
				},
				"times": map[string][]string{
					"morning": {"07:00", "09:00"},
				},
			},
			stop("Carfax Town", "CFX", 51.10, -1.00),
		},
	}
	loop := map[string]interface{}{
		"name":     "Loop Line",
		"file":     "loop.json",
		"operator": "GWR",
		"stations": []map[string]interface{}{
			stop("Alton Park", "APK", 51.00, -1.00),
			stop("Denmead", "DEN", 51.05, -0.95),
			stop("Carfax Town", "CFX", 51.10, -1.00),
		},
	}

	repo := stations.NewRepository(writeDataset(t, []map[string]interface{}{branch, loop}))
	require.NoError(t, repo.Load())
	network, err := graph.NewBuilder(repo, stations.NewPatternCatalog(repo.Lines())).Build()
	require.NoError(t, err)
	planner := NewPlanner(network, repo)

	t.Run("Morning departure uses the short path", func(t *testing.T) {
		at := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
		routes := planner.FindRoutes("APK", "CFX", SearchOptions{MaxChanges: 3, MaxRoutes: 5, Departure: &at})
		require.NotEmpty(t, routes)
		assert.Equal(t, []string{"APK", "BRH", "CFX"}, routes[0].PathCodes)
	})

	t.Run("Evening departure avoids the morning-only halt", func(t *testing.T) {
		at := time.Date(2026, 3, 2, 19, 0, 0, 0, time.UTC)
		routes := planner.FindRoutes("APK", "CFX", SearchOptions{MaxChanges: 3, MaxRoutes: 5, Departure: &at})
		require.NotEmpty(t, routes)
		assert.Equal(t, []string{"APK", "DEN", "CFX"}, routes[0].PathCodes)
		for _, route := range routes {
			assert.NotContains(t, route.PathCodes, "BRH")
		}
	})
}

func TestFindRoutesFallbackWithoutNetwork(t *testing.T) {
	repo := suburbanRepo(t)
	planner := NewPlanner(nil, repo)

	routes := planner.FindRoutes("FLE", "WAT", SearchOptions{MaxChanges: 3, MaxRoutes: 5})
	require.NotEmpty(t, routes)
	assert.LessOrEqual(t, len(routes), bfsMaxResults)

	best := routes[0]
	assert.Equal(t, "FLE", best.PathCodes[0])
	assert.Equal(t, "WAT", best.PathCodes[len(best.PathCodes)-1])
}

func TestOptionsFromPreferences(t *testing.T) {
	t.Run("Explicit max changes kept", func(t *testing.T) {
		opts := OptionsFromPreferences(models.Preferences{MaxChanges: 2})
		assert.Equal(t, 2, opts.MaxChanges)
		assert.Equal(t, defaultMaxRoutes, opts.MaxRoutes)
	})

	t.Run("Zero falls back to default", func(t *testing.T) {
		opts := OptionsFromPreferences(models.Preferences{})
		assert.Equal(t, models.DefaultPreferences().MaxChanges, opts.MaxChanges)
	})
}

func TestNearestOnLine(t *testing.T) {
	sequence := []string{"A", "B", "C", "D", "E"}

	t.Run("Neighbours first", func(t *testing.T) {
		got := nearestOnLine(sequence, "C", 4)
		assert.Equal(t, []string{"D", "B", "E", "A"}, got)
	})

	t.Run("Limit respected", func(t *testing.T) {
		got := nearestOnLine(sequence, "C", 2)
		assert.Equal(t, []string{"D", "B"}, got)
	})

	t.Run("Unknown station", func(t *testing.T) {
		assert.Nil(t, nearestOnLine(sequence, "Z", 4))
	})
}
