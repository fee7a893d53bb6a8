package optimization

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkersFor(t *testing.T) {
	c := &Config{RegionWorkers: 8}
	assert.Equal(t, 1, c.WorkersFor(8), "small scenarios stay sequential")
	assert.Equal(t, 8, c.WorkersFor(200))

	c.RegionWorkers = 500
	assert.Equal(t, 100, c.WorkersFor(100))

	assert.Equal(t, 1, LowResourceConfig().WorkersFor(1000))
}

func TestPresets(t *testing.T) {
	assert.GreaterOrEqual(t, DefaultConfig().RegionWorkers, 1)
	assert.Greater(t, StressTestConfig().BroadcastBuffer, DefaultConfig().BroadcastBuffer)
	assert.Equal(t, 1, DefaultConfig().DBMaxOpenConns)
}

func TestAnalyzeAndApply(t *testing.T) {
	rec := Analyze(250, 3)
	assert.True(t, rec.IncreaseWorkers)
	assert.True(t, rec.IncreaseBuffers)
	assert.Len(t, rec.Notes, 2)

	c := ApplyRecommendations(LowResourceConfig(), rec)
	assert.Equal(t, 2, c.RegionWorkers)
	assert.Equal(t, 32, c.BroadcastBuffer)
	assert.Equal(t, 16, c.ClientSendBuffer)

	quiet := Analyze(1, 0)
	assert.False(t, quiet.IncreaseWorkers)
	assert.Empty(t, quiet.Notes)
}
