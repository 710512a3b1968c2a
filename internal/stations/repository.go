package stations

import (
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/oernster/trainer-sub004/internal/models"
)

// repositoryState is one immutable snapshot of the parsed network data
// and its lookup indices. Load builds a fresh state and swaps it in
// whole, so a concurrent reader always sees one complete dataset.
type repositoryState struct {
	lines          []models.RailwayLine
	stationsByCode map[string]models.Station
	codeByName     map[string]string // plain display name -> code, last line wins
	codeByDisplay  map[string]string // "Name (Line)" -> code
	lineStations   map[string][]string
	linesByCode    map[string][]string
	journeyTimes   map[string]int
	operators      map[string]string
}

func emptyState() *repositoryState {
	return &repositoryState{
		stationsByCode: map[string]models.Station{},
		codeByName:     map[string]string{},
		codeByDisplay:  map[string]string{},
		lineStations:   map[string][]string{},
		linesByCode:    map[string][]string{},
		journeyTimes:   map[string]int{},
		operators:      map[string]string{},
	}
}

// Repository holds the parsed network data behind a read-write lock.
// Reload replaces the state pointer wholesale; readers never observe a
// partially updated dataset.
type Repository struct {
	dataDir string

	mu    sync.RWMutex
	state *repositoryState
}

// NewRepository creates an empty repository rooted at dataDir
func NewRepository(dataDir string) *Repository {
	return &Repository{dataDir: dataDir, state: emptyState()}
}

// DataDir returns the source data directory
func (r *Repository) DataDir() string {
	return r.dataDir
}

func (r *Repository) snapshot() *repositoryState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Load parses the index file and every per-line file, builds the lookup
// indices into a fresh state, and swaps it in under the write lock.
// A missing or malformed line file is logged and skipped; the
// repository never aborts on partial data.
func (r *Repository) Load() error {
	indexPath := filepath.Join(r.dataDir, IndexFileName)
	entries, err := ParseIndexFile(indexPath)
	if err != nil {
		return fmt.Errorf("failed to load line index: %w", err)
	}

	lines := make([]models.RailwayLine, 0, len(entries))
	for _, entry := range entries {
		line, err := ParseLineFile(r.dataDir, entry)
		if err != nil {
			log.Printf("Warning: skipping line %q: %v", entry.Name, err)
			continue
		}
		lines = append(lines, line)
	}

	next := emptyState()
	next.lines = lines

	for _, line := range lines {
		codes := make([]string, 0, len(line.Stations))
		for _, st := range line.Stations {
			// Departures of a station shared by several lines are
			// the union of every line's record.
			if existing, ok := next.stationsByCode[st.Code]; ok {
				st.Times = mergeTimes(existing.Times, st.Times)
			}
			next.stationsByCode[st.Code] = st
			next.codeByName[st.Name] = st.Code
			next.codeByDisplay[st.DisplayName()] = st.Code
			next.linesByCode[st.Code] = append(next.linesByCode[st.Code], line.Name)
			codes = append(codes, st.Code)
		}
		next.lineStations[line.Name] = codes
		next.operators[line.Name] = line.Operator
		for pair, minutes := range line.JourneyTimes {
			next.journeyTimes[pair] = minutes
		}
	}

	r.mu.Lock()
	r.state = next
	r.mu.Unlock()

	log.Printf("Loaded %d lines, %d stations", len(lines), len(next.stationsByCode))
	return nil
}

// mergeTimes unions two per-period departure maps without mutating
// either input
func mergeTimes(a, b map[models.TimePeriod][]string) map[models.TimePeriod][]string {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}

	merged := make(map[models.TimePeriod][]string, len(a)+len(b))
	for period, times := range a {
		merged[period] = append([]string(nil), times...)
	}
	for period, times := range b {
		for _, t := range times {
			if !containsTime(merged[period], t) {
				merged[period] = append(merged[period], t)
			}
		}
	}
	return merged
}

func containsTime(times []string, t string) bool {
	for _, v := range times {
		if v == t {
			return true
		}
	}
	return false
}

// Lines returns all loaded railway lines
func (r *Repository) Lines() []models.RailwayLine {
	return r.snapshot().lines
}

// LineByName returns a line by its display name
func (r *Repository) LineByName(name string) (models.RailwayLine, bool) {
	for _, line := range r.snapshot().lines {
		if line.Name == name {
			return line, true
		}
	}
	return models.RailwayLine{}, false
}

// StationByCode looks up a station by its unique code
func (r *Repository) StationByCode(code string) (models.Station, bool) {
	st, ok := r.snapshot().stationsByCode[code]
	return st, ok
}

// CodeForName resolves a display name to a station code. The
// disambiguated "Name (Line)" form takes precedence over the plain
// name, for which the last loaded line wins.
func (r *Repository) CodeForName(name string) (string, bool) {
	s := r.snapshot()
	if code, ok := s.codeByDisplay[name]; ok {
		return code, true
	}
	code, ok := s.codeByName[name]
	return code, ok
}

// StationCount returns the number of distinct station codes
func (r *Repository) StationCount() int {
	return len(r.snapshot().stationsByCode)
}

// AllStationNames returns every distinct plain station name, sorted
func (r *Repository) AllStationNames() []string {
	s := r.snapshot()
	names := make([]string, 0, len(s.codeByName))
	for name := range s.codeByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AllStationNamesWithContext returns station names where names shared
// by several codes are expanded to their "Name (Line)" forms, sorted
func (r *Repository) AllStationNamesWithContext() []string {
	s := r.snapshot()

	counts := make(map[string]int)
	for _, st := range s.stationsByCode {
		counts[st.Name]++
	}

	seen := make(map[string]bool)
	var names []string
	for _, st := range s.stationsByCode {
		display := st.Name
		if counts[st.Name] > 1 {
			display = st.DisplayName()
		}
		if !seen[display] {
			seen[display] = true
			names = append(names, display)
		}
	}
	sort.Strings(names)
	return names
}

// LinesServing returns the line names that call at the given station code
func (r *Repository) LinesServing(code string) []string {
	return r.snapshot().linesByCode[code]
}

// LineStationCodes returns the ordered station codes per line name
func (r *Repository) LineStationCodes() map[string][]string {
	return r.snapshot().lineStations
}

// OperatorFor returns the operator of a line
func (r *Repository) OperatorFor(line string) (string, bool) {
	op, ok := r.snapshot().operators[line]
	return op, ok
}

// InterchangeStations enumerates stations served by two or more lines
func (r *Repository) InterchangeStations() []models.Station {
	s := r.snapshot()
	var result []models.Station
	for code, lines := range s.linesByCode {
		if len(lines) >= 2 {
			if st, ok := s.stationsByCode[code]; ok {
				result = append(result, st)
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result
}

// IsInterchange reports whether a station code is served by >= 2 lines
func (r *Repository) IsInterchange(code string) bool {
	return len(r.snapshot().linesByCode[code]) >= 2
}

// JourneyTime returns the typical journey time in minutes between two
// adjacent station codes. The lookup is bidirectional.
func (r *Repository) JourneyTime(from, to string) (int, bool) {
	s := r.snapshot()
	if minutes, ok := s.journeyTimes[from+"-"+to]; ok {
		return minutes, true
	}
	minutes, ok := s.journeyTimes[to+"-"+from]
	return minutes, ok
}

// ServedDuring reports whether a station has service in the given time
// period. Stations with no time-of-day data are served at all times.
func (r *Repository) ServedDuring(code string, period models.TimePeriod) bool {
	st, ok := r.snapshot().stationsByCode[code]
	if !ok {
		return false
	}
	if len(st.Times) == 0 {
		return true
	}
	return len(st.Times[period]) > 0
}

// DeparturesFor returns the recorded departures for a station in the
// given period, merged across every line serving it
func (r *Repository) DeparturesFor(code string, period models.TimePeriod) []string {
	st, ok := r.snapshot().stationsByCode[code]
	if !ok {
		return nil
	}
	return st.Times[period]
}

// NextDeparture returns the first recorded departure at or after the
// given time, looking only within the time's own service window
func (r *Repository) NextDeparture(code string, at time.Time) (string, bool) {
	period := models.PeriodForHour(at.Hour())
	departures := r.DeparturesFor(code, period)
	if len(departures) == 0 {
		return "", false
	}

	hhmm := at.Format("15:04")
	sorted := make([]string, len(departures))
	copy(sorted, departures)
	sort.Strings(sorted)

	for _, dep := range sorted {
		if dep >= hhmm {
			return dep, true
		}
	}
	return "", false
}
