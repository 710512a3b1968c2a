package models

// TimePeriod represents a time-of-day service window
type TimePeriod string

const (
	PeriodMorning   TimePeriod = "morning"
	PeriodAfternoon TimePeriod = "afternoon"
	PeriodEvening   TimePeriod = "evening"
	PeriodNight     TimePeriod = "night"
)

// PeriodForHour maps an hour of day (0-23) to its service window
func PeriodForHour(hour int) TimePeriod {
	switch {
	case hour >= 5 && hour <= 11:
		return PeriodMorning
	case hour >= 12 && hour <= 16:
		return PeriodAfternoon
	case hour >= 17 && hour <= 23:
		return PeriodEvening
	default:
		return PeriodNight
	}
}

// Coordinates is a WGS84 latitude/longitude pair
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Station represents a single station record on a railway line.
// Codes are unique across the network; display names are not, the same
// name may appear on several lines with distinct codes.
type Station struct {
	Name        string                  `json:"name"`
	Code        string                  `json:"code"`
	Coordinates Coordinates             `json:"coordinates"`
	Zone        int                     `json:"zone,omitempty"`
	Interchange []string                `json:"interchange,omitempty"`
	Times       map[TimePeriod][]string `json:"times,omitempty"` // period -> "HH:MM" departures
	Line        string                  `json:"-"`               // owning line, set by the repository
}

// DisplayName returns the disambiguated "Name (Line)" form
func (s Station) DisplayName() string {
	if s.Line == "" {
		return s.Name
	}
	return s.Name + " (" + s.Line + ")"
}

// ServicePattern is a named stopping profile for a line.
// Lower priority numbers are faster services.
type ServicePattern struct {
	Code        string   `json:"code"`
	ServiceType string   `json:"service_type"`
	Priority    int      `json:"priority"`
	Description string   `json:"description,omitempty"`
	Stations    []string `json:"stations,omitempty"` // station codes; empty with ServesAll set means every station
	ServesAll   bool     `json:"serves_all,omitempty"`
	Frequency   string   `json:"frequency,omitempty"`
}

// Service type priorities. Peak/off-peak/night tags share the numeric
// space with the stopping-profile tags.
const (
	PriorityExpress  = 1
	PriorityFast     = 2
	PrioritySemiFast = 3
	PriorityStopping = 4
	PriorityDefault  = 3 // unknown service types and synthetic legacy patterns
)

// PriorityForServiceType maps a service-type tag to its numeric priority
func PriorityForServiceType(serviceType string) int {
	switch serviceType {
	case "express":
		return PriorityExpress
	case "fast", "peak":
		return PriorityFast
	case "semi_fast", "off_peak":
		return PrioritySemiFast
	case "stopping", "night":
		return PriorityStopping
	default:
		return PriorityDefault
	}
}

// Serves reports whether the pattern calls at the given station code.
// lineStations is the full ordered station list of the owning line,
// consulted when the pattern declares the "all" sentinel.
func (p ServicePattern) Serves(code string, lineStations []string) bool {
	if p.ServesAll {
		for _, c := range lineStations {
			if c == code {
				return true
			}
		}
		return false
	}
	for _, c := range p.Stations {
		if c == code {
			return true
		}
	}
	return false
}

// ServicePatternSet holds the patterns declared by one railway line
type ServicePatternSet struct {
	Patterns       map[string]ServicePattern `json:"patterns"`
	DefaultPattern string                    `json:"default_pattern,omitempty"`
}

// RailwayLine represents one line of the network. Station order in
// Stations defines physical adjacency.
type RailwayLine struct {
	Name             string             `json:"name"`
	File             string             `json:"file"`
	Operator         string             `json:"operator"`
	TerminusStations []string           `json:"terminus_stations"`
	MajorStations    []string           `json:"major_stations"`
	Stations         []Station          `json:"stations"`
	JourneyTimes     map[string]int     `json:"typical_journey_times"` // "CODE1-CODE2" -> minutes
	Patterns         *ServicePatternSet `json:"service_patterns,omitempty"`
}

// StationCodes returns the ordered station codes of the line
func (l RailwayLine) StationCodes() []string {
	codes := make([]string, len(l.Stations))
	for i, s := range l.Stations {
		codes[i] = s.Code
	}
	return codes
}

// Connection is a directed weighted edge in the routing graph
type Connection struct {
	To             string  `json:"to"`
	DistanceKm     float64 `json:"distance_km"`
	JourneyMinutes float64 `json:"journey_minutes"`
	Line           string  `json:"line"`
	Pattern        string  `json:"pattern,omitempty"`
	Priority       int     `json:"priority"`
}

// NetworkNode is the per-station record of the routing graph
type NetworkNode struct {
	Code             string                  `json:"code"`
	Name             string                  `json:"name"`
	Coordinates      Coordinates             `json:"coordinates"`
	Connections      []Connection            `json:"connections"`
	Lines            []string                `json:"lines"`
	InterchangeLines []string                `json:"interchange_lines,omitempty"`
	MajorInterchange bool                    `json:"major_interchange,omitempty"`
	Times            map[TimePeriod][]string `json:"-"`
}

// IsInterchange reports whether the node is served by two or more lines
func (n *NetworkNode) IsInterchange() bool {
	return len(n.Lines) >= 2 || len(n.InterchangeLines) >= 2
}

// RouteOption is a planned journey returned to callers
type RouteOption struct {
	FromStation         string   `json:"from_station"`
	ToStation           string   `json:"to_station"`
	ViaStations         []string `json:"via_stations"`
	FullPath            []string `json:"full_path"` // display names, origin to destination
	PathCodes           []string `json:"-"`
	Changes             int      `json:"changes"`
	DistanceKm          float64  `json:"distance_km"`
	JourneyTimeMin      float64  `json:"journey_time_min"`
	Operators           []string `json:"operators"`
	InterchangeStations []string `json:"interchange_stations"`
}

// RouteMetrics holds the diagnostic scores computed for a route.
// Overall is a ranking value where lower is better; it is deliberately
// a different formula from the planner's search cost.
type RouteMetrics struct {
	DistanceKm float64 `json:"distance_km"`
	TimeMin    float64 `json:"time_min"`
	Changes    int     `json:"changes"`
	Efficiency float64 `json:"geographical_efficiency"`
	Overall    float64 `json:"overall_score"`
}

// Preferences are the caller-supplied planning preferences. All fields
// are optional in config; DefaultPreferences supplies the defaults.
type Preferences struct {
	AvoidWalking         bool    `json:"avoid_walking" yaml:"avoid_walking"`
	MaxWalkingDistanceKm float64 `json:"max_walking_distance_km" yaml:"max_walking_distance_km"`
	PreferDirect         bool    `json:"prefer_direct" yaml:"prefer_direct"`
	MaxChanges           int     `json:"max_changes" yaml:"max_changes" validate:"gte=0,lte=10"`
	TrainLookaheadHours  int     `json:"train_lookahead_hours" yaml:"train_lookahead_hours"`
	NearLocation         string  `json:"near_location,omitempty" yaml:"near_location"`
}

// DefaultPreferences returns the documented preference defaults
func DefaultPreferences() Preferences {
	return Preferences{
		MaxWalkingDistanceKm: 1.0,
		MaxChanges:           3,
		TrainLookaheadHours:  2,
	}
}

// CacheMetadata is the sidecar metadata persisted next to the
// compressed station cache. A cache is usable only when the version
// matches, the age is within TTL, and the source hash still matches.
type CacheMetadata struct {
	CacheVersion       string `json:"cache_version"`
	CreatedTimestamp   int64  `json:"created_timestamp"`
	StationCount       int    `json:"station_count"`
	CompressionEnabled bool   `json:"compression_enabled"`
	DataSourceHash     string `json:"data_source_hash"`
}

// CachePayload is the compressed station-name payload
type CachePayload struct {
	Stations         []string `json:"stations"`
	StationCount     int      `json:"station_count"`
	CreatedTimestamp int64    `json:"created_timestamp"`
	CacheVersion     string   `json:"cache_version"`
}
