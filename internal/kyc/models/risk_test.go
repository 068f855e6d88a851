package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiskTierBoundaries(t *testing.T) {
	tests := []struct {
		score *RiskScore
		tier  RiskTier
		color Color
	}{
		{MustRiskScore(100), TierLow, ColorGreen},
		{MustRiskScore(70), TierLow, ColorGreen},
		{MustRiskScore(69), TierMedium, ColorYellow},
		{MustRiskScore(40), TierMedium, ColorYellow},
		{MustRiskScore(39), TierHigh, ColorRed},
		{MustRiskScore(0), TierHigh, ColorRed},
		{nil, TierUnknown, ColorGray},
	}
	for _, tt := range tests {
		view := RiskTierOf(tt.score)
		assert.Equal(t, tt.tier, view.Tier, "score %v", tt.score)
		assert.Equal(t, tt.color, view.Color, "score %v", tt.score)
	}
}

func TestNewRiskScoreRejectsOutOfRange(t *testing.T) {
	for _, v := range []int{-1, 101, 1000} {
		_, err := NewRiskScore(v)
		assert.Error(t, err, "value %d", v)
	}
}

func TestRiskScoreJSONRangeCheck(t *testing.T) {
	var app struct {
		RiskScore *RiskScore `json:"riskScore"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"riskScore":72}`), &app))
	assert.Equal(t, RiskScore(72), *app.RiskScore)

	require.NoError(t, json.Unmarshal([]byte(`{"riskScore":null}`), &app))
	assert.Nil(t, app.RiskScore)

	assert.Error(t, json.Unmarshal([]byte(`{"riskScore":140}`), &app))
}

func TestTierLabels(t *testing.T) {
	assert.Equal(t, "Low Risk", TierLow.Label())
	assert.Equal(t, "Unknown", TierUnknown.Label())
}

func TestParseRiskLevel(t *testing.T) {
	l, err := ParseRiskLevel("high")
	require.NoError(t, err)
	assert.Equal(t, RiskLevelHigh, l)

	l, err = ParseRiskLevel("")
	require.NoError(t, err)
	assert.Equal(t, "Unassessed", l.Label())

	_, err = ParseRiskLevel("SEVERE")
	assert.Error(t, err)
}
