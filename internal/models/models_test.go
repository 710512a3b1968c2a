package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNetworkNodeIsInterchange(t *testing.T) {
	tests := []struct {
		name     string
		node     NetworkNode
		expected bool
	}{
		{"Single line", NetworkNode{Lines: []string{"Main Line"}}, false},
		{"Two lines", NetworkNode{Lines: []string{"Main Line", "Windsor Line"}}, true},
		{"Declared interchange lines", NetworkNode{
			Lines:            []string{"Main Line"},
			InterchangeLines: []string{"District Line", "Victoria Line"},
		}, true},
		{"Empty node", NetworkNode{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := tt.node
			assert.Equal(t, tt.expected, node.IsInterchange())
		})
	}
}

func TestStationDisplayName(t *testing.T) {
	assert.Equal(t, "Richmond (Windsor Line)", Station{Name: "Richmond", Line: "Windsor Line"}.DisplayName())
	assert.Equal(t, "Richmond", Station{Name: "Richmond"}.DisplayName())
}
