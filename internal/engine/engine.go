// Package engine wires the station repository, caches, pattern
// catalog, network and planner into one explicitly constructed context
// object. Nothing in here is a process-wide singleton; main builds one
// Engine and passes it to every consumer.
package engine

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/oernster/trainer-sub004/internal/cache"
	"github.com/oernster/trainer-sub004/internal/graph"
	"github.com/oernster/trainer-sub004/internal/models"
	"github.com/oernster/trainer-sub004/internal/routing"
	"github.com/oernster/trainer-sub004/internal/stations"
)

// Engine owns the loaded dataset and the planning pipeline
type Engine struct {
	repo         *stations.Repository
	catalog      *stations.PatternCatalog
	stationCache *cache.StationCache
	essential    *cache.EssentialStationCache
	prefs        models.Preferences

	mu      sync.Mutex // guards catalog swaps and lazy network construction
	network *graph.Network
	planner *routing.Planner
	advisor *routing.ViaAdvisor
}

// New loads the dataset from dataDir and prepares the engine. The
// persistent station cache under cacheDir is consulted first and
// refreshed after a successful full parse.
func New(dataDir, cacheDir string, prefs models.Preferences) (*Engine, error) {
	e := &Engine{
		repo:         stations.NewRepository(dataDir),
		stationCache: cache.NewStationCache(cacheDir),
		essential:    cache.NewEssentialStationCache(),
		prefs:        prefs,
	}

	start := time.Now()
	if e.stationCache.IsValid(dataDir) {
		if cached := e.stationCache.Load(); cached != nil {
			log.Printf("Station cache hit: %d names available before full load", len(cached))
		}
	}

	if err := e.repo.Load(); err != nil {
		return nil, fmt.Errorf("failed to load station data: %w", err)
	}
	e.catalog = stations.NewPatternCatalog(e.repo.Lines())

	if err := e.stationCache.Save(e.repo.AllStationNames(), dataDir); err != nil {
		log.Printf("Warning: failed to refresh station cache: %v", err)
	}

	log.Printf("Engine ready in %v (%d stations)", time.Since(start), e.repo.StationCount())
	return e, nil
}

// Close releases engine resources. The engine holds no external
// connections today; Close exists for explicit teardown at shutdown.
func (e *Engine) Close() {}

// Repository exposes the loaded station repository
func (e *Engine) Repository() *stations.Repository {
	return e.repo
}

// Catalog exposes the service-pattern catalog. Guarded because Reload
// replaces it.
func (e *Engine) Catalog() *stations.PatternCatalog {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.catalog
}

// Preferences returns the configured planning preferences
func (e *Engine) Preferences() models.Preferences {
	return e.prefs
}

// ensurePlanner builds the network and planner on first use. The build
// is guarded so concurrent HTTP handlers trigger it exactly once; the
// search itself stays single-threaded and synchronous.
func (e *Engine) ensurePlanner() *routing.Planner {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.planner != nil {
		return e.planner
	}

	network, err := graph.NewBuilder(e.repo, e.catalog).Build()
	if err != nil {
		// The planner degrades to its breadth-first fallback.
		log.Printf("Warning: network construction failed: %v", err)
		network = nil
	}
	e.network = network
	e.planner = routing.NewPlanner(network, e.repo)
	e.advisor = routing.NewViaAdvisor(e.planner)
	return e.planner
}

// PlanRoutes plans routes between two station display names. Unknown
// names yield an empty result, not an error.
func (e *Engine) PlanRoutes(fromName, toName string, opts routing.SearchOptions) []models.RouteOption {
	from, okFrom := e.repo.CodeForName(fromName)
	to, okTo := e.repo.CodeForName(toName)
	if !okFrom || !okTo {
		return nil
	}
	return e.ensurePlanner().FindRoutes(from, to, opts)
}

// DefaultSearchOptions derives search options from the configured
// preferences
func (e *Engine) DefaultSearchOptions() routing.SearchOptions {
	return routing.OptionsFromPreferences(e.prefs)
}

// SuggestViaStations returns candidate interchange stations between
// two station display names
func (e *Engine) SuggestViaStations(fromName, toName string) []string {
	e.ensurePlanner()
	e.mu.Lock()
	advisor := e.advisor
	e.mu.Unlock()
	return advisor.SuggestViaStations(fromName, toName)
}

// StationSuggestions serves autocomplete. The full dataset is used
// once loaded; the curated essential cache answers before that.
func (e *Engine) StationSuggestions(partial string, limit int) []string {
	if e.repo.StationCount() > 0 {
		return cache.SuggestFrom(e.repo.AllStationNamesWithContext(), partial, limit)
	}
	return e.essential.GetStationSuggestions(partial, limit)
}

// Reload reparses the dataset and atomically replaces the in-memory
// structures, invalidating the built network
func (e *Engine) Reload() error {
	if err := e.repo.Load(); err != nil {
		return fmt.Errorf("failed to reload station data: %w", err)
	}

	e.mu.Lock()
	e.catalog = stations.NewPatternCatalog(e.repo.Lines())
	e.network = nil
	e.planner = nil
	e.advisor = nil
	e.mu.Unlock()

	if err := e.stationCache.Save(e.repo.AllStationNames(), e.repo.DataDir()); err != nil {
		log.Printf("Warning: failed to refresh station cache: %v", err)
	}
	return nil
}

// ClearStationCache removes the persistent station cache files
func (e *Engine) ClearStationCache() error {
	return e.stationCache.Clear()
}
