package api

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/oernster/trainer-sub004/internal/cache"
	"github.com/oernster/trainer-sub004/internal/engine"
	"github.com/oernster/trainer-sub004/internal/models"
	"github.com/oernster/trainer-sub004/internal/routing"
)

// Handlers serves the HTTP API over one engine instance. The route
// cache is optional; a nil cache means every query is computed.
type Handlers struct {
	engine     *engine.Engine
	routeCache *cache.RouteCache
}

// NewHandlers wires the API handlers
func NewHandlers(e *engine.Engine, routeCache *cache.RouteCache) *Handlers {
	return &Handlers{engine: e, routeCache: routeCache}
}

// Health handles GET /health
func (h *Handlers) Health(c *fiber.Ctx) error {
	checks := fiber.Map{
		"stations": h.engine.Repository().StationCount(),
	}

	status := "healthy"
	httpStatus := fiber.StatusOK

	if h.routeCache != nil {
		if err := h.routeCache.HealthCheck(c.Context()); err != nil {
			checks["route_cache"] = err.Error()
			status = "degraded"
		} else {
			checks["route_cache"] = "ok"
		}
	}

	if h.engine.Repository().StationCount() == 0 {
		status = "unhealthy"
		httpStatus = fiber.StatusServiceUnavailable
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checks": checks,
	})
}

// RouteSearchResponse is the route-search payload
type RouteSearchResponse struct {
	Routes []models.RouteOption `json:"routes"`
	Count  int                  `json:"count"`
}

// RouteSearch handles GET /v1/route-search
func (h *Handlers) RouteSearch(c *fiber.Ctx) error {
	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing required parameters: from and to",
		})
	}

	opts := h.engine.DefaultSearchOptions()
	if raw := c.Query("max_changes"); raw != "" {
		maxChanges, err := strconv.Atoi(raw)
		if err != nil || maxChanges < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid max_changes",
			})
		}
		opts.MaxChanges = maxChanges
	}

	departure := c.Query("departure")
	if departure != "" {
		parsed, err := time.Parse("15:04", departure)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid departure, expected HH:MM",
			})
		}
		opts.Departure = &parsed
	}

	routes := h.computeRoutes(c, from, to, departure, opts)
	if len(routes) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no routes found between the specified stations",
		})
	}

	return c.JSON(RouteSearchResponse{Routes: routes, Count: len(routes)})
}

// computeRoutes plans with the shared result cache when available.
// A short mutex key stops concurrent identical queries from all
// computing the same result.
func (h *Handlers) computeRoutes(c *fiber.Ctx, from, to, departure string, opts routing.SearchOptions) []models.RouteOption {
	if h.routeCache == nil {
		return h.engine.PlanRoutes(from, to, opts)
	}

	ctx := c.Context()
	cacheKey := cache.RouteKey(from, to, opts.MaxChanges, departure)
	lockKey := cache.LockKey(cacheKey)

	if cached, err := h.routeCache.GetRoutes(ctx, cacheKey); err == nil && cached != nil {
		c.Locals("cache_hit", true)
		return cached
	}

	acquired, err := h.routeCache.AcquireLock(ctx, lockKey)
	if err != nil {
		log.Printf("Warning: failed to acquire route lock: %v", err)
	} else if !acquired {
		if cached, err := h.routeCache.WaitForRoutes(ctx, cacheKey, 3*time.Second); err == nil && cached != nil {
			c.Locals("cache_hit", true)
			return cached
		}
	}
	defer func() {
		if acquired {
			h.routeCache.ReleaseLock(context.Background(), lockKey)
		}
	}()

	routes := h.engine.PlanRoutes(from, to, opts)
	if len(routes) > 0 {
		if err := h.routeCache.SetRoutes(ctx, cacheKey, routes); err != nil {
			log.Printf("Warning: failed to cache routes: %v", err)
		}
	}
	return routes
}

// StationSuggest handles GET /v1/stations/suggest
func (h *Handlers) StationSuggest(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing required parameter: q",
		})
	}

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid limit (must be between 1 and 100)",
			})
		}
		limit = parsed
	}

	suggestions := h.engine.StationSuggestions(query, limit)
	if suggestions == nil {
		suggestions = []string{}
	}

	return c.JSON(fiber.Map{
		"suggestions": suggestions,
		"count":       len(suggestions),
	})
}

// StationByCode handles GET /v1/stations/:code
func (h *Handlers) StationByCode(c *fiber.Ctx) error {
	code := strings.ToUpper(c.Params("code"))
	repo := h.engine.Repository()

	station, ok := repo.StationByCode(code)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "station not found",
		})
	}

	lines := repo.LinesServing(code)
	if lines == nil {
		lines = []string{}
	}

	return c.JSON(fiber.Map{
		"station":        station,
		"lines":          lines,
		"is_interchange": repo.IsInterchange(code),
	})
}

// StationDepartures handles GET /v1/stations/:code/departures
func (h *Handlers) StationDepartures(c *fiber.Ctx) error {
	code := strings.ToUpper(c.Params("code"))
	repo := h.engine.Repository()

	if _, ok := repo.StationByCode(code); !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "station not found",
		})
	}

	now := time.Now()
	period := models.PeriodForHour(now.Hour())
	if raw := c.Query("period"); raw != "" {
		period = models.TimePeriod(raw)
		switch period {
		case models.PeriodMorning, models.PeriodAfternoon, models.PeriodEvening, models.PeriodNight:
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid period (morning, afternoon, evening, night)",
			})
		}
	}

	departures := repo.DeparturesFor(code, period)
	if departures == nil {
		departures = []string{}
	}

	response := fiber.Map{
		"station":    code,
		"period":     period,
		"served":     repo.ServedDuring(code, period),
		"departures": departures,
	}
	if next, ok := repo.NextDeparture(code, now); ok {
		response["next_departure"] = next
	}

	return c.JSON(response)
}

// LineInfo is one entry of the lines listing
type LineInfo struct {
	Name             string   `json:"name"`
	Operator         string   `json:"operator"`
	StationCount     int      `json:"station_count"`
	TerminusStations []string `json:"terminus_stations"`
	HasPatterns      bool     `json:"has_service_patterns"`
}

// LinesList handles GET /v1/lines/list
func (h *Handlers) LinesList(c *fiber.Ctx) error {
	operator := c.Query("operator")

	lines := []LineInfo{}
	for _, line := range h.engine.Repository().Lines() {
		if operator != "" && !strings.EqualFold(line.Operator, operator) {
			continue
		}
		lines = append(lines, LineInfo{
			Name:             line.Name,
			Operator:         line.Operator,
			StationCount:     len(line.Stations),
			TerminusStations: line.TerminusStations,
			HasPatterns:      h.engine.Catalog().HasPatterns(line.Name),
		})
	}

	return c.JSON(fiber.Map{
		"lines": lines,
		"total": len(lines),
	})
}

// ViaSuggest handles GET /v1/via-stations
func (h *Handlers) ViaSuggest(c *fiber.Ctx) error {
	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing required parameters: from and to",
		})
	}

	vias := h.engine.SuggestViaStations(from, to)
	if vias == nil {
		vias = []string{}
	}

	return c.JSON(fiber.Map{
		"via_stations": vias,
		"count":        len(vias),
	})
}

// CacheClear handles POST /v1/cache/clear: removes the persistent
// station cache and reloads the dataset from source
func (h *Handlers) CacheClear(c *fiber.Ctx) error {
	if err := h.engine.ClearStationCache(); err != nil {
		log.Printf("Warning: failed to clear station cache: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to clear cache",
		})
	}

	if err := h.engine.Reload(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to reload station data",
		})
	}

	return c.JSON(fiber.Map{
		"status":   "cleared",
		"stations": h.engine.Repository().StationCount(),
	})
}
