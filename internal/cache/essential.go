package cache

import (
	"sort"
	"strings"
)

// Suggestion match scores, strongest first
const (
	scoreExact      = 1000
	scoreNamePrefix = 900
	scoreWordPrefix = 800
	scoreSubstring  = 600
)

// essentialStations is the hand-curated list of commonly used National
// Rail and Underground/Metro stations, available for autocomplete
// before the full dataset has loaded.
var essentialStations = []string{
	"London Waterloo",
	"London Victoria",
	"London Bridge",
	"London Paddington",
	"London Euston",
	"London King's Cross",
	"London St Pancras International",
	"London Liverpool Street",
	"London Charing Cross",
	"London Marylebone",
	"London Fenchurch Street",
	"London Cannon Street",
	"Clapham Junction",
	"East Croydon",
	"Stratford",
	"Vauxhall",
	"Wimbledon",
	"Richmond",
	"Surbiton",
	"Woking",
	"Guildford",
	"Basingstoke",
	"Fleet",
	"Farnborough (Main)",
	"Winchester",
	"Southampton Central",
	"Bournemouth",
	"Portsmouth Harbour",
	"Reading",
	"Oxford",
	"Didcot Parkway",
	"Swindon",
	"Bristol Temple Meads",
	"Bath Spa",
	"Cardiff Central",
	"Birmingham New Street",
	"Birmingham Moor Street",
	"Coventry",
	"Milton Keynes Central",
	"Watford Junction",
	"Luton",
	"Stevenage",
	"Cambridge",
	"Peterborough",
	"Leicester",
	"Nottingham",
	"Derby",
	"Sheffield",
	"Leeds",
	"York",
	"Manchester Piccadilly",
	"Manchester Victoria",
	"Liverpool Lime Street",
	"Preston",
	"Carlisle",
	"Newcastle",
	"Durham",
	"Edinburgh Waverley",
	"Glasgow Central",
	"Glasgow Queen Street",
	"Brighton",
	"Gatwick Airport",
	"Ashford International",
	"Canterbury West",
	"Baker Street",
	"Oxford Circus",
	"Bond Street",
	"Tottenham Court Road",
	"Leicester Square",
	"Piccadilly Circus",
	"Green Park",
	"Westminster",
	"Embankment",
	"Bank",
	"Moorgate",
	"Old Street",
	"Angel",
	"Camden Town",
	"Canary Wharf",
	"North Greenwich",
	"Hammersmith",
	"Earl's Court",
	"South Kensington",
	"Notting Hill Gate",
	"Paddington",
	"Finsbury Park",
	"Seven Sisters",
	"Brixton",
	"Elephant & Castle",
}

// EssentialStationCache serves instant autocomplete from the curated
// station list, deduplicated and sorted at construction
type EssentialStationCache struct {
	names []string
}

// NewEssentialStationCache builds the cache from the curated list
func NewEssentialStationCache() *EssentialStationCache {
	return &EssentialStationCache{names: dedupSorted(essentialStations)}
}

// Names returns the full curated name list
func (c *EssentialStationCache) Names() []string {
	return c.names
}

// GetStationSuggestions scores every essential station against the
// partial query and returns up to limit matches, best first. Ties keep
// the stable order of the curated list.
func (c *EssentialStationCache) GetStationSuggestions(partial string, limit int) []string {
	return SuggestFrom(c.names, partial, limit)
}

// SuggestFrom scores names against the partial query and returns up to
// limit matches, best first. Ties keep the stable input order.
func SuggestFrom(names []string, partial string, limit int) []string {
	query := strings.ToLower(strings.TrimSpace(partial))
	if query == "" || limit <= 0 {
		return nil
	}

	type scored struct {
		name  string
		score int
		order int
	}

	var matches []scored
	for i, name := range names {
		score := scoreName(strings.ToLower(name), query)
		if score == 0 {
			continue
		}
		matches = append(matches, scored{name: name, score: score, order: i})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].order < matches[j].order
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.name
	}
	return out
}

func scoreName(name, query string) int {
	if name == query {
		return scoreExact
	}
	if strings.HasPrefix(name, query) {
		return scoreNamePrefix
	}
	for _, word := range strings.Fields(name) {
		if strings.HasPrefix(word, query) {
			return scoreWordPrefix
		}
	}
	if strings.Contains(name, query) {
		return scoreSubstring
	}
	return 0
}
