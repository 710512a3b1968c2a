package stations

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oernster/trainer-sub004/internal/models"
)

// Well-known file names inside the data directory
const (
	IndexFileName       = "lines.json"
	LinesDirName        = "lines"
	UndergroundFileName = "underground_stations.json"
)

// lineIndex mirrors the index file listing all railway lines
type lineIndex struct {
	Lines []lineIndexEntry `json:"lines"`
}

type lineIndexEntry struct {
	Name             string   `json:"name"`
	File             string   `json:"file"`
	Operator         string   `json:"operator"`
	TerminusStations []string `json:"terminus_stations"`
	MajorStations    []string `json:"major_stations"`
}

// rawLineFile mirrors a per-line source file. Service pattern station
// lists need raw handling because the field is either a code array or
// the "all" sentinel string.
type rawLineFile struct {
	Stations        []models.Station             `json:"stations"`
	JourneyTimes    map[string]int               `json:"typical_journey_times"`
	ServicePatterns map[string]rawServicePattern `json:"service_patterns"`
	DefaultPattern  string                       `json:"default_pattern"`
}

type rawServicePattern struct {
	ServiceType string          `json:"service_type"`
	Priority    int             `json:"priority"`
	Description string          `json:"description"`
	Stations    json.RawMessage `json:"stations"`
	Frequency   string          `json:"frequency"`
}

// ParseIndexFile reads the line index listing every railway line
func ParseIndexFile(path string) ([]lineIndexEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index file: %w", err)
	}

	var idx lineIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("failed to parse index file: %w", err)
	}

	return idx.Lines, nil
}

// ParseLineFile reads one per-line station file and assembles the
// RailwayLine record for the given index entry
func ParseLineFile(dataDir string, entry lineIndexEntry) (models.RailwayLine, error) {
	line := models.RailwayLine{
		Name:             entry.Name,
		File:             entry.File,
		Operator:         entry.Operator,
		TerminusStations: entry.TerminusStations,
		MajorStations:    entry.MajorStations,
	}

	path := filepath.Join(dataDir, LinesDirName, entry.File)
	data, err := os.ReadFile(path)
	if err != nil {
		return line, fmt.Errorf("failed to read line file %s: %w", entry.File, err)
	}

	var raw rawLineFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return line, fmt.Errorf("failed to parse line file %s: %w", entry.File, err)
	}

	for i := range raw.Stations {
		raw.Stations[i].Line = entry.Name
	}
	line.Stations = raw.Stations
	line.JourneyTimes = raw.JourneyTimes

	if len(raw.ServicePatterns) > 0 {
		set := &models.ServicePatternSet{
			Patterns:       make(map[string]models.ServicePattern, len(raw.ServicePatterns)),
			DefaultPattern: raw.DefaultPattern,
		}
		for code, rp := range raw.ServicePatterns {
			pattern, err := decodePattern(code, rp)
			if err != nil {
				return line, fmt.Errorf("invalid service pattern %q in %s: %w", code, entry.File, err)
			}
			set.Patterns[code] = pattern
		}
		line.Patterns = set
	}

	return line, nil
}

// decodePattern resolves the stations field ("all" sentinel or an
// explicit code list) and fills in a derived priority when the file
// does not state one
func decodePattern(code string, raw rawServicePattern) (models.ServicePattern, error) {
	pattern := models.ServicePattern{
		Code:        code,
		ServiceType: raw.ServiceType,
		Priority:    raw.Priority,
		Description: raw.Description,
		Frequency:   raw.Frequency,
	}

	if pattern.Priority == 0 {
		pattern.Priority = models.PriorityForServiceType(raw.ServiceType)
	}

	if len(raw.Stations) > 0 {
		var sentinel string
		if err := json.Unmarshal(raw.Stations, &sentinel); err == nil {
			if strings.EqualFold(sentinel, "all") {
				pattern.ServesAll = true
				return pattern, nil
			}
			return pattern, fmt.Errorf("unknown stations sentinel %q", sentinel)
		}

		var codes []string
		if err := json.Unmarshal(raw.Stations, &codes); err != nil {
			return pattern, fmt.Errorf("stations must be a code list or \"all\": %w", err)
		}
		pattern.Stations = codes
	}

	return pattern, nil
}
