package graph

import (
	"fmt"
	"log"
	"math"
	"sort"

	"github.com/oernster/trainer-sub004/internal/models"
	"github.com/oernster/trainer-sub004/internal/stations"
)

// baseMinutesPerKm is the journey-time estimate used when a station
// pair has no typical journey time in the source data. Pattern speed
// multipliers divide into it, so faster services get shorter estimates.
const baseMinutesPerKm = 1.5

// Network is the weighted adjacency graph used for route search
type Network struct {
	Nodes         map[string]*models.NetworkNode
	LineSequences map[string][]string // line name -> ordered station codes
}

// Node returns a node by station code
func (n *Network) Node(code string) (*models.NetworkNode, bool) {
	node, ok := n.Nodes[code]
	return node, ok
}

// Builder constructs the routing network from repository data
type Builder struct {
	repo    *stations.Repository
	catalog *stations.PatternCatalog
}

// NewBuilder creates a builder over the loaded repository
func NewBuilder(repo *stations.Repository, catalog *stations.PatternCatalog) *Builder {
	return &Builder{repo: repo, catalog: catalog}
}

// Build assembles the full network. Lines with service patterns get
// one set of connections per pattern, linking consecutive stations of
// that pattern's subset; lines without patterns get legacy adjacency
// over physically consecutive stations. All connections are
// bidirectional.
func (b *Builder) Build() (*Network, error) {
	lines := b.repo.Lines()
	if len(lines) == 0 {
		return nil, fmt.Errorf("no line data loaded")
	}

	network := &Network{
		Nodes:         make(map[string]*models.NetworkNode),
		LineSequences: make(map[string][]string, len(lines)),
	}

	connectionCount := 0
	for _, line := range lines {
		codes := line.StationCodes()
		network.LineSequences[line.Name] = codes

		for _, st := range line.Stations {
			b.ensureNode(network, st, line)
		}

		patterns := b.patternsFor(line)
		for _, pattern := range patterns {
			subset := filterByPattern(codes, pattern)
			connectionCount += b.connectSequence(network, line, pattern, subset)
		}
	}

	log.Printf("Built network: %d nodes, %d connections", len(network.Nodes), connectionCount)
	return network, nil
}

// patternsFor returns the line's patterns sorted fastest-first, or the
// synthetic legacy pattern when none are declared
func (b *Builder) patternsFor(line models.RailwayLine) []models.ServicePattern {
	if b.catalog == nil || !b.catalog.HasPatterns(line.Name) {
		return []models.ServicePattern{stations.LegacyPattern()}
	}

	declared := b.catalog.PatternsForLine(line.Name)
	patterns := make([]models.ServicePattern, 0, len(declared))
	for _, p := range declared {
		patterns = append(patterns, p)
	}
	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Priority != patterns[j].Priority {
			return patterns[i].Priority < patterns[j].Priority
		}
		return patterns[i].Code < patterns[j].Code
	})
	return patterns
}

func (b *Builder) ensureNode(network *Network, st models.Station, line models.RailwayLine) {
	node, ok := network.Nodes[st.Code]
	if !ok {
		node = &models.NetworkNode{
			Code:             st.Code,
			Name:             st.Name,
			Coordinates:      st.Coordinates,
			InterchangeLines: st.Interchange,
		}
		network.Nodes[st.Code] = node
	}

	// Departures are the union across every line serving the station,
	// matching the repository's merged view.
	node.Times = mergeTimePeriods(node.Times, st.Times)

	if !containsString(node.Lines, line.Name) {
		node.Lines = append(node.Lines, line.Name)
	}
	for _, major := range line.MajorStations {
		if major == st.Code {
			node.MajorInterchange = true
		}
	}
}

// connectSequence links consecutive stations of a pattern subset in
// both directions and returns the number of connections added
func (b *Builder) connectSequence(network *Network, line models.RailwayLine, pattern models.ServicePattern, subset []string) int {
	added := 0
	for i := 0; i+1 < len(subset); i++ {
		from, to := subset[i], subset[i+1]
		fromNode, okFrom := network.Nodes[from]
		toNode, okTo := network.Nodes[to]
		if !okFrom || !okTo {
			continue
		}

		dist := HaversineKm(fromNode.Coordinates, toNode.Coordinates)
		minutes := b.journeyMinutes(from, to, dist, pattern)

		fromNode.Connections = append(fromNode.Connections, models.Connection{
			To:             to,
			DistanceKm:     dist,
			JourneyMinutes: minutes,
			Line:           line.Name,
			Pattern:        pattern.Code,
			Priority:       pattern.Priority,
		})
		toNode.Connections = append(toNode.Connections, models.Connection{
			To:             from,
			DistanceKm:     dist,
			JourneyMinutes: minutes,
			Line:           line.Name,
			Pattern:        pattern.Code,
			Priority:       pattern.Priority,
		})
		added += 2
	}
	return added
}

// journeyMinutes prefers the explicit typical journey time and falls
// back to a distance estimate scaled by the pattern's speed multiplier
func (b *Builder) journeyMinutes(from, to string, distKm float64, pattern models.ServicePattern) float64 {
	if minutes, ok := b.repo.JourneyTime(from, to); ok {
		return float64(minutes)
	}
	return distKm * baseMinutesPerKm / speedMultiplier(pattern.ServiceType)
}

// speedMultiplier reflects how much faster each service type covers
// the same distance compared to a stopping service
func speedMultiplier(serviceType string) float64 {
	switch serviceType {
	case "express":
		return 1.6
	case "fast", "peak":
		return 1.3
	case "semi_fast", "off_peak":
		return 1.15
	default:
		return 1.0
	}
}

func filterByPattern(codes []string, pattern models.ServicePattern) []string {
	if pattern.ServesAll {
		return codes
	}
	subset := make([]string, 0, len(pattern.Stations))
	for _, code := range codes {
		if pattern.Serves(code, codes) {
			subset = append(subset, code)
		}
	}
	return subset
}

// mergeTimePeriods unions per-period departures into dst without
// mutating src. dst always ends up as the node's own copy.
func mergeTimePeriods(dst, src map[models.TimePeriod][]string) map[models.TimePeriod][]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[models.TimePeriod][]string, len(src))
	}
	for period, times := range src {
		for _, t := range times {
			if !containsString(dst[period], t) {
				dst[period] = append(dst[period], t)
			}
		}
	}
	return dst
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// HaversineKm calculates the great-circle distance between two
// coordinates in kilometres
func HaversineKm(a, b models.Coordinates) float64 {
	const earthRadiusKm = 6371.0

	lat1Rad := a.Lat * math.Pi / 180
	lat2Rad := b.Lat * math.Pi / 180
	deltaLat := (b.Lat - a.Lat) * math.Pi / 180
	deltaLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}
