package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRate(t *testing.T) {
	assert.Equal(t, "n/a", Percent(3, 0).String())
	assert.Equal(t, "25.0%", Percent(1, 4).String())
	assert.InDelta(t, 2.5, Ratio(5, 2).Value, 1e-9)
	assert.False(t, Ratio(5, 0).Valid)
}

func TestRateJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		A Rate `json:"a"`
		B Rate `json:"b"`
	}{Percent(1, 2), Percent(1, 0)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":50,"b":null}`, string(data))

	var back struct {
		A Rate `json:"a"`
		B Rate `json:"b"`
	}
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, Percent(1, 2), back.A)
	assert.False(t, back.B.Valid)
}

func TestFunnelStage(t *testing.T) {
	f := Funnel{Stages: []FunnelStage{{Name: StageDials, Count: 9}, {Name: StageInterested, Count: 2}}}
	assert.Equal(t, 2, f.Stage(StageInterested))
	assert.Equal(t, 0, f.Stage(StageLive))
}
