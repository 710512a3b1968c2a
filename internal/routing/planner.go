package routing

import (
	"container/heap"
	"log"
	"sort"
	"time"

	"github.com/oernster/trainer-sub004/internal/graph"
	"github.com/oernster/trainer-sub004/internal/models"
	"github.com/oernster/trainer-sub004/internal/stations"
)

// Edge-cost weights. Empirically tuned; keep in sync with nothing —
// the diagnostic scorer deliberately uses a different formula.
const (
	costWeightDistance     = 0.4
	costWeightTime         = 0.4
	changePenaltyMinutes   = 15.0
	changePenaltyWeight    = 0.15
	interchangeBonus       = 5.0
	interchangeBonusWeight = 0.05
)

const (
	defaultMaxRoutes  = 5
	maxExploredStates = 50000
)

// SearchOptions bound a single planning query
type SearchOptions struct {
	MaxChanges int
	MaxRoutes  int
	Departure  *time.Time
}

// OptionsFromPreferences derives search options from caller preferences
func OptionsFromPreferences(prefs models.Preferences) SearchOptions {
	maxChanges := prefs.MaxChanges
	if maxChanges <= 0 {
		maxChanges = models.DefaultPreferences().MaxChanges
	}
	return SearchOptions{MaxChanges: maxChanges, MaxRoutes: defaultMaxRoutes}
}

// Planner runs the multi-criteria route search over the network
type Planner struct {
	network   *graph.Network
	repo      *stations.Repository
	validator *Validator
	scorer    *Scorer
}

// NewPlanner creates a planner over a built network
func NewPlanner(network *graph.Network, repo *stations.Repository) *Planner {
	return &Planner{
		network:   network,
		repo:      repo,
		validator: NewValidator(repo),
		scorer:    NewScorer(repo),
	}
}

// FindRoutes plans routes between two station codes. Dijkstra results
// that fail geography validation are dropped; if none survive, the
// breadth-first fallback runs. Unknown stations yield an empty list.
func (p *Planner) FindRoutes(from, to string, opts SearchOptions) []models.RouteOption {
	if opts.MaxRoutes <= 0 {
		opts.MaxRoutes = defaultMaxRoutes
	}
	if opts.MaxChanges < 0 {
		opts.MaxChanges = 0
	}

	if p.network == nil {
		log.Printf("Warning: no network available, using breadth-first fallback")
		return p.buildOptions(p.breadthFirstSearch(from, to, opts))
	}

	if _, ok := p.network.Node(from); !ok {
		return nil
	}
	if _, ok := p.network.Node(to); !ok {
		return nil
	}

	paths := p.dijkstra(from, to, opts)

	validated := paths[:0]
	for _, path := range paths {
		if p.validator.ValidateRouteGeography(path, from, to) {
			validated = append(validated, path)
		} else {
			log.Printf("Warning: dropping geographically illogical route %v", path)
		}
	}

	if len(validated) == 0 {
		log.Printf("No validated routes from %s to %s, using breadth-first fallback", from, to)
		validated = p.breadthFirstSearch(from, to, opts)
	}

	return p.buildOptions(validated)
}

// queueItem is one search state on the priority queue
type queueItem struct {
	cost    float64
	seq     int64 // insertion order, deterministic tie-break
	station string
	path    []string
	changes int
	line    string
	index   int
}

type priorityQueue []*queueItem

func (pq priorityQueue) Len() int { return len(pq) }

// Less orders by cost ascending; equal costs fall back to insertion
// order so results are reproducible
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].cost != pq[j].cost {
		return pq[i].cost < pq[j].cost
	}
	return pq[i].seq < pq[j].seq
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x interface{}) {
	item := x.(*queueItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[0 : n-1]
	return item
}

// visitKey identifies a search state. Keyed by (station, changes), not
// station alone, so a station can be revisited with a different change
// budget remaining.
type visitKey struct {
	station string
	changes int
}

// dijkstra runs the multi-criteria search and returns up to MaxRoutes
// distinct paths as ordered station-code sequences
func (p *Planner) dijkstra(from, to string, opts SearchOptions) [][]string {
	var period models.TimePeriod
	if opts.Departure != nil {
		period = models.PeriodForHour(opts.Departure.Hour())
	}

	pq := &priorityQueue{}
	heap.Init(pq)

	var seq int64
	push := func(item *queueItem) {
		item.seq = seq
		seq++
		heap.Push(pq, item)
	}

	push(&queueItem{station: from, path: []string{from}})

	visited := make(map[visitKey]float64)
	var results [][]string
	explored := 0

	for pq.Len() > 0 {
		if explored > maxExploredStates {
			log.Printf("Warning: explored %d states, stopping search", explored)
			break
		}

		current := heap.Pop(pq).(*queueItem)
		explored++

		if current.station == to {
			results = append(results, current.path)
			if len(results) >= opts.MaxRoutes {
				break
			}
			continue
		}

		key := visitKey{station: current.station, changes: current.changes}
		if best, ok := visited[key]; ok && best <= current.cost {
			continue
		}
		visited[key] = current.cost

		node, ok := p.network.Node(current.station)
		if !ok {
			continue
		}

		for _, conn := range node.Connections {
			if containsString(current.path, conn.To) {
				continue
			}

			changes := current.changes
			lineChanged := current.line != "" && conn.Line != current.line
			if lineChanged {
				changes++
			}
			if changes > opts.MaxChanges {
				continue
			}

			neighbor, ok := p.network.Node(conn.To)
			if !ok {
				continue
			}

			if period != "" && !servedDuring(neighbor, period) {
				continue
			}

			edgeCost := conn.DistanceKm*costWeightDistance + conn.JourneyMinutes*costWeightTime
			if lineChanged {
				edgeCost += changePenaltyMinutes * changePenaltyWeight
			}
			if neighbor.IsInterchange() {
				edgeCost -= interchangeBonus * interchangeBonusWeight
			}

			path := make([]string, len(current.path)+1)
			copy(path, current.path)
			path[len(current.path)] = conn.To

			push(&queueItem{
				cost:    current.cost + edgeCost,
				station: conn.To,
				path:    path,
				changes: changes,
				line:    conn.Line,
			})
		}
	}

	return results
}

// servedDuring reports whether a node has service in the period.
// Nodes without time-of-day data are served at all times.
func servedDuring(node *models.NetworkNode, period models.TimePeriod) bool {
	if len(node.Times) == 0 {
		return true
	}
	return len(node.Times[period]) > 0
}

// buildOptions converts code paths into caller-facing route options
func (p *Planner) buildOptions(paths [][]string) []models.RouteOption {
	options := make([]models.RouteOption, 0, len(paths))
	for _, path := range paths {
		if option, ok := p.buildOption(path); ok {
			options = append(options, option)
		}
	}
	return options
}

func (p *Planner) buildOption(path []string) (models.RouteOption, bool) {
	if len(path) < 2 {
		return models.RouteOption{}, false
	}

	metrics, ok := p.scorer.ScoreRoute(path)
	if !ok {
		return models.RouteOption{}, false
	}

	names := make([]string, len(path))
	for i, code := range path {
		if st, found := p.repo.StationByCode(code); found {
			names[i] = st.Name
		} else {
			names[i] = code
		}
	}

	var via, interchanges []string
	for _, code := range path[1 : len(path)-1] {
		st, found := p.repo.StationByCode(code)
		if !found {
			continue
		}
		via = append(via, st.Name)
		if p.repo.IsInterchange(code) {
			interchanges = append(interchanges, st.Name)
		}
	}

	operatorSet := make(map[string]bool)
	for _, code := range path {
		for _, line := range p.repo.LinesServing(code) {
			if op, found := p.repo.OperatorFor(line); found && op != "" {
				operatorSet[op] = true
			}
		}
	}
	operators := make([]string, 0, len(operatorSet))
	for op := range operatorSet {
		operators = append(operators, op)
	}
	sort.Strings(operators)

	return models.RouteOption{
		FromStation:         names[0],
		ToStation:           names[len(names)-1],
		ViaStations:         via,
		FullPath:            names,
		PathCodes:           path,
		Changes:             metrics.Changes,
		DistanceKm:          metrics.DistanceKm,
		JourneyTimeMin:      metrics.TimeMin,
		Operators:           operators,
		InterchangeStations: interchanges,
	}, true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
