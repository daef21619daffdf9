package handlers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/civicfix/complaint-api/api/handlers"
)

func TestValidCategory(t *testing.T) {
	assert.True(t, handlers.ValidCategory("road_damage"))
	assert.True(t, handlers.ValidCategory("other"))
	assert.False(t, handlers.ValidCategory(""))
	assert.False(t, handlers.ValidCategory("Road Damage"))
	assert.False(t, handlers.ValidCategory("plumbing"))
}

func TestDetectCategory(t *testing.T) {
	tests := []struct {
		name        string
		description string
		tags        []string
		want        string
	}{
		{"pothole in description", "There is a huge pothole near the bus stop", nil, "road_damage"},
		{"garbage pileup", "Trash has not been collected for a week", nil, "garbage_issue"},
		{"drainage beats water", "The drain outside my house is flooding the street with water", nil, "drainage_problem"},
		{"burst pipe", "A pipe burst and is leaking everywhere", nil, "water_leakage"},
		{"street light out", "The street light on 5th avenue is dead", nil, "electricity_issue"},
		{"case insensitive", "FALLEN TREE blocking the lane", nil, "tree_fallen"},
		{"auto tags fill in", "something is wrong here", []string{"smoke", "flame"}, "fire"},
		{"no match", "my neighbour is annoying", nil, "other"},
		{"empty", "", nil, "other"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, handlers.DetectCategory(tc.description, tc.tags))
		})
	}
}
