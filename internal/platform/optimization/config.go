// Package optimization provides concurrency tuning for large scenarios.
package optimization

import (
	"runtime"
)

// Config holds tuned parameters for the engine, the hub and storage.
type Config struct {
	// Worker pools
	RegionWorkers int // goroutines computing regions within one day; 1 = sequential

	// Channel buffer sizes
	EventBuffer      int
	BroadcastBuffer  int
	ClientSendBuffer int

	// Connection pools
	DBMaxOpenConns int
	DBMaxIdleConns int
}

// DefaultConfig returns sensible defaults for production.
func DefaultConfig() *Config {
	numCPU := runtime.NumCPU()

	return &Config{
		RegionWorkers: numCPU,

		EventBuffer:      1024,
		BroadcastBuffer:  256,
		ClientSendBuffer: 64,

		// SQLite serializes writers anyway
		DBMaxOpenConns: 1,
		DBMaxIdleConns: 1,
	}
}

// StressTestConfig returns aggressive settings for scenarios with many regions.
func StressTestConfig() *Config {
	numCPU := runtime.NumCPU()

	return &Config{
		RegionWorkers: numCPU * 2,

		EventBuffer:      4096,
		BroadcastBuffer:  512,
		ClientSendBuffer: 128,

		DBMaxOpenConns: 1,
		DBMaxIdleConns: 1,
	}
}

// LowResourceConfig returns minimal settings for development.
func LowResourceConfig() *Config {
	return &Config{
		RegionWorkers: 1,

		EventBuffer:      64,
		BroadcastBuffer:  16,
		ClientSendBuffer: 8,

		DBMaxOpenConns: 1,
		DBMaxIdleConns: 1,
	}
}

// WorkersFor caps the worker count at the number of regions. Small scenarios
// run sequentially: below minParallelRegions the goroutine overhead dominates.
func (c *Config) WorkersFor(regions int) int {
	const minParallelRegions = 64
	if regions < minParallelRegions || c.RegionWorkers <= 1 {
		return 1
	}
	if c.RegionWorkers > regions {
		return regions
	}
	return c.RegionWorkers
}

// Recommendations provides suggestions based on observed day latency.
type Recommendations struct {
	IncreaseWorkers bool
	IncreaseBuffers bool
	Notes           []string
}

// Analyze examines the average day latency and subscriber drop count.
func Analyze(avgDayLatencyMs float64, droppedClients int) *Recommendations {
	rec := &Recommendations{
		Notes: make([]string, 0),
	}

	if avgDayLatencyMs > 100 {
		rec.IncreaseWorkers = true
		rec.Notes = append(rec.Notes, "Day latency exceeds 100ms - increase region workers")
	}
	if droppedClients > 0 {
		rec.IncreaseBuffers = true
		rec.Notes = append(rec.Notes, "WebSocket subscribers dropped - increase client send buffer")
	}
	return rec
}

// ApplyRecommendations modifies config based on recommendations.
func ApplyRecommendations(config *Config, rec *Recommendations) *Config {
	if rec.IncreaseWorkers {
		config.RegionWorkers *= 2
	}
	if rec.IncreaseBuffers {
		config.BroadcastBuffer *= 2
		config.ClientSendBuffer *= 2
	}
	return config
}
