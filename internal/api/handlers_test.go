package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oernster/trainer-sub004/internal/engine"
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
			"name":              line["name"],
			"file":              line["file"],
			"operator":          line["operator"],
			"terminus_stations": line["terminus_stations"],
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

func testApp(t *testing.T) *fiber.App {
	t.Helper()
	mainLine := map[string]interface{}{
		"name":              "Main Line",
		"file":              "main_line.json",
		"operator":          "South Western Railway",
		"terminus_stations": []string{"FLE", "WAT"},
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
		"name":              "Windsor Line",
		"file":              "windsor_line.json",
		"operator":          "South Western Railway",
		"terminus_stations": []string{"WAT", "STA"},
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
	dataDir := writeDataset(t, []map[string]interface{}{mainLine, windsorLine})

	e, err := engine.New(dataDir, t.TempDir(), models.DefaultPreferences())
	require.NoError(t, err)
	t.Cleanup(e.Close)

	h := NewHandlers(e, nil)

	app := fiber.New()
	app.Get("/health", h.Health)
	app.Get("/v1/route-search", h.RouteSearch)
	app.Get("/v1/stations/suggest", h.StationSuggest)
	app.Get("/v1/stations/:code", h.StationByCode)
	app.Get("/v1/stations/:code/departures", h.StationDepartures)
	app.Get("/v1/lines/list", h.LinesList)
	app.Get("/v1/via-stations", h.ViaSuggest)
	app.Post("/v1/cache/clear", h.CacheClear)
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, target string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	return resp.StatusCode, payload
}

func TestHealthEndpoint(t *testing.T) {
	app := testApp(t)

	status, payload := doRequest(t, app, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", payload["status"])

	checks := payload["checks"].(map[string]interface{})
	assert.Equal(t, float64(6), checks["stations"])
}

func TestRouteSearchEndpoint(t *testing.T) {
	app := testApp(t)

	t.Run("Successful search", func(t *testing.T) {
		status, payload := doRequest(t, app, http.MethodGet, "/v1/route-search?from=Fleet&to=London+Waterloo")
		assert.Equal(t, http.StatusOK, status)
		assert.GreaterOrEqual(t, payload["count"].(float64), float64(1))

		routes := payload["routes"].([]interface{})
		first := routes[0].(map[string]interface{})
		assert.Equal(t, "Fleet", first["from_station"])
		assert.Equal(t, "London Waterloo", first["to_station"])
	})

	t.Run("Missing parameters", func(t *testing.T) {
		status, _ := doRequest(t, app, http.MethodGet, "/v1/route-search?from=Fleet")
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("Invalid max_changes", func(t *testing.T) {
		status, _ := doRequest(t, app, http.MethodGet, "/v1/route-search?from=Fleet&to=Woking&max_changes=-1")
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("Invalid departure", func(t *testing.T) {
		status, _ := doRequest(t, app, http.MethodGet, "/v1/route-search?from=Fleet&to=Woking&departure=25:99")
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("Unknown stations", func(t *testing.T) {
		status, _ := doRequest(t, app, http.MethodGet, "/v1/route-search?from=Atlantis&to=Woking")
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestStationSuggestEndpoint(t *testing.T) {
	app := testApp(t)

	t.Run("Suggestions returned", func(t *testing.T) {
		status, payload := doRequest(t, app, http.MethodGet, "/v1/stations/suggest?q=Wok")
		assert.Equal(t, http.StatusOK, status)
		suggestions := payload["suggestions"].([]interface{})
		require.Len(t, suggestions, 1)
		assert.Equal(t, "Woking", suggestions[0])
	})

	t.Run("Missing query", func(t *testing.T) {
		status, _ := doRequest(t, app, http.MethodGet, "/v1/stations/suggest")
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("Limit out of range", func(t *testing.T) {
		status, _ := doRequest(t, app, http.MethodGet, "/v1/stations/suggest?q=a&limit=500")
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("No matches is an empty list", func(t *testing.T) {
		status, payload := doRequest(t, app, http.MethodGet, "/v1/stations/suggest?q=zzz")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, float64(0), payload["count"])
	})
}

func TestStationByCodeEndpoint(t *testing.T) {
	app := testApp(t)

	t.Run("Lowercase code accepted", func(t *testing.T) {
		status, payload := doRequest(t, app, http.MethodGet, "/v1/stations/clj")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, true, payload["is_interchange"])

		station := payload["station"].(map[string]interface{})
		assert.Equal(t, "Clapham Junction", station["name"])

		lines := payload["lines"].([]interface{})
		assert.Len(t, lines, 2)
	})

	t.Run("Unknown code", func(t *testing.T) {
		status, _ := doRequest(t, app, http.MethodGet, "/v1/stations/XXX")
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestStationDeparturesEndpoint(t *testing.T) {
	app := testApp(t)

	t.Run("Stations without timetable are always served", func(t *testing.T) {
		status, payload := doRequest(t, app, http.MethodGet, "/v1/stations/FLE/departures?period=morning")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, true, payload["served"])
		assert.Empty(t, payload["departures"])
	})

	t.Run("Invalid period", func(t *testing.T) {
		status, _ := doRequest(t, app, http.MethodGet, "/v1/stations/FLE/departures?period=lunchtime")
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("Unknown station", func(t *testing.T) {
		status, _ := doRequest(t, app, http.MethodGet, "/v1/stations/XXX/departures")
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestLinesListEndpoint(t *testing.T) {
	app := testApp(t)

	t.Run("All lines", func(t *testing.T) {
		status, payload := doRequest(t, app, http.MethodGet, "/v1/lines/list")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, float64(2), payload["total"])
	})

	t.Run("Operator filter", func(t *testing.T) {
		status, payload := doRequest(t, app, http.MethodGet, "/v1/lines/list?operator=south+western+railway")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, float64(2), payload["total"])

		status, payload = doRequest(t, app, http.MethodGet, "/v1/lines/list?operator=GWR")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, float64(0), payload["total"])
	})
}

func TestViaSuggestEndpoint(t *testing.T) {
	app := testApp(t)

	t.Run("Curated interchange", func(t *testing.T) {
		status, payload := doRequest(t, app, http.MethodGet, "/v1/via-stations?from=Fleet&to=London+Waterloo")
		assert.Equal(t, http.StatusOK, status)

		vias := payload["via_stations"].([]interface{})
		require.Len(t, vias, 1)
		assert.Equal(t, "Clapham Junction", vias[0])
	})

	t.Run("Missing parameters", func(t *testing.T) {
		status, _ := doRequest(t, app, http.MethodGet, "/v1/via-stations?from=Fleet")
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestCacheClearEndpoint(t *testing.T) {
	app := testApp(t)

	status, payload := doRequest(t, app, http.MethodPost, "/v1/cache/clear")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "cleared", payload["status"])
	assert.Equal(t, float64(6), payload["stations"])
}
