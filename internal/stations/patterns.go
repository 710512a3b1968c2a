package stations

import (
	"sort"

	"github.com/oernster/trainer-sub004/internal/models"
)

// The synthetic pattern used for lines without explicit service
// patterns when building the network.
const LegacyPatternCode = "legacy"

// PatternCatalog answers service-pattern queries per railway line
type PatternCatalog struct {
	sets         map[string]*models.ServicePatternSet
	lineStations map[string][]string
}

// NewPatternCatalog builds a catalog from the loaded lines
func NewPatternCatalog(lines []models.RailwayLine) *PatternCatalog {
	c := &PatternCatalog{
		sets:         make(map[string]*models.ServicePatternSet, len(lines)),
		lineStations: make(map[string][]string, len(lines)),
	}
	for _, line := range lines {
		c.lineStations[line.Name] = line.StationCodes()
		if line.Patterns != nil {
			c.sets[line.Name] = line.Patterns
		}
	}
	return c
}

// HasPatterns reports whether a line declares explicit service patterns
func (c *PatternCatalog) HasPatterns(line string) bool {
	set, ok := c.sets[line]
	return ok && len(set.Patterns) > 0
}

// PatternsForLine returns the declared patterns of a line
func (c *PatternCatalog) PatternsForLine(line string) map[string]models.ServicePattern {
	if set, ok := c.sets[line]; ok {
		return set.Patterns
	}
	return nil
}

// DefaultPattern returns the line's declared default pattern
func (c *PatternCatalog) DefaultPattern(line string) (models.ServicePattern, bool) {
	set, ok := c.sets[line]
	if !ok || set.DefaultPattern == "" {
		return models.ServicePattern{}, false
	}
	pattern, ok := set.Patterns[set.DefaultPattern]
	return pattern, ok
}

// AvailablePatternsFor returns every pattern on the line that serves
// both stations, sorted fastest first (ties broken by pattern code)
func (c *PatternCatalog) AvailablePatternsFor(line, from, to string) []models.ServicePattern {
	set, ok := c.sets[line]
	if !ok {
		return nil
	}
	stations := c.lineStations[line]

	var qualifying []models.ServicePattern
	for _, pattern := range set.Patterns {
		if pattern.Serves(from, stations) && pattern.Serves(to, stations) {
			qualifying = append(qualifying, pattern)
		}
	}

	sort.Slice(qualifying, func(i, j int) bool {
		if qualifying[i].Priority != qualifying[j].Priority {
			return qualifying[i].Priority < qualifying[j].Priority
		}
		return qualifying[i].Code < qualifying[j].Code
	})
	return qualifying
}

// BestPatternFor returns the fastest pattern serving both stations
func (c *PatternCatalog) BestPatternFor(line, from, to string) (models.ServicePattern, bool) {
	qualifying := c.AvailablePatternsFor(line, from, to)
	if len(qualifying) == 0 {
		return models.ServicePattern{}, false
	}
	return qualifying[0], true
}

// LegacyPattern returns the synthetic all-stations pattern used for
// lines that declare no explicit service patterns
func LegacyPattern() models.ServicePattern {
	return models.ServicePattern{
		Code:        LegacyPatternCode,
		ServiceType: "stopping",
		Priority:    models.PriorityDefault,
		Description: "All stations (no declared patterns)",
		ServesAll:   true,
	}
}
