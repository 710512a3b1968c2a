package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRouteGeography(t *testing.T) {
	repo := suburbanRepo(t)
	v := NewValidator(repo)

	t.Run("Straight route accepted", func(t *testing.T) {
		assert.True(t, v.ValidateRouteGeography([]string{"FLE", "WOK", "CLJ", "WAT"}, "FLE", "WAT"))
	})

	t.Run("Backtracking route rejected", func(t *testing.T) {
		// Fleet to Woking via Clapham Junction doubles back on itself.
		assert.False(t, v.ValidateRouteGeography([]string{"FLE", "CLJ", "WOK"}, "FLE", "WOK"))
	})

	t.Run("Short path rejected", func(t *testing.T) {
		assert.False(t, v.ValidateRouteGeography([]string{"FLE"}, "FLE", "FLE"))
		assert.False(t, v.ValidateRouteGeography(nil, "FLE", "WAT"))
	})

	t.Run("Unknown station rejected", func(t *testing.T) {
		assert.False(t, v.ValidateRouteGeography([]string{"FLE", "XXX", "WAT"}, "FLE", "WAT"))
		assert.False(t, v.ValidateRouteGeography([]string{"FLE", "WOK"}, "XXX", "WOK"))
	})

	t.Run("Deterministic", func(t *testing.T) {
		path := []string{"FLE", "WOK", "CLJ", "WAT"}
		first := v.ValidateRouteGeography(path, "FLE", "WAT")
		second := v.ValidateRouteGeography(path, "FLE", "WAT")
		assert.Equal(t, first, second)
	})
}
