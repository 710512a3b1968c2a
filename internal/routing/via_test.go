package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestViaStations(t *testing.T) {
	advisor := NewViaAdvisor(suburbanPlanner(t))

	t.Run("Curated terminal pattern wins", func(t *testing.T) {
		vias := advisor.SuggestViaStations("Fleet", "London Waterloo")
		assert.Equal(t, []string{"Clapham Junction"}, vias)
	})

	t.Run("Terminal pattern is case insensitive", func(t *testing.T) {
		vias := advisor.SuggestViaStations("  FLEET ", "london waterloo")
		assert.Equal(t, []string{"Clapham Junction"}, vias)
	})

	t.Run("Planner interchanges for uncurated pairs", func(t *testing.T) {
		vias := advisor.SuggestViaStations("Fleet", "Staines")
		require.NotEmpty(t, vias)
		assert.Contains(t, vias, "Clapham Junction")
		assert.IsIncreasing(t, vias)
	})

	t.Run("Curated fallback filtered to real interchanges", func(t *testing.T) {
		// fleet|basingstoke suggests Woking, which is not an
		// interchange here, so it is filtered away.
		vias := advisor.SuggestViaStations("Fleet", "Basingstoke")
		assert.Empty(t, vias)
	})

	t.Run("Default set for unknown pairs", func(t *testing.T) {
		vias := advisor.SuggestViaStations("Nowhere", "Elsewhere")
		assert.Equal(t, []string{"Clapham Junction"}, vias)
	})
}
