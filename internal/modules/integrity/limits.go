package integrity

import "time"

// Limits are the absolute and per-step bounds enforced on snapshots and
// transitions.
type Limits struct {
	MaxTurn           int
	MaxPopulation     int64
	MinBalance        int64
	MaxBalance        int64
	MaxTrust          float64
	MaxCapabilities   int
	MaxCapabilityLen  int
	CapacityFactor    int64
	MaxStreak         int
	MaxTurnAdvance    int
	MaxPopulationStep int64
	MaxBalanceStep    int64
	MaxTrustStep      float64
	MaxCapabilityStep int
}

func DefaultLimits() Limits {
	return Limits{
		MaxTurn:           10_000,
		MaxPopulation:     1_000_000_000,
		MinBalance:        -1_000_000_000_000,
		MaxBalance:        1_000_000_000_000,
		MaxTrust:          100,
		MaxCapabilities:   256,
		MaxCapabilityLen:  64,
		CapacityFactor:    10,
		MaxStreak:         1000,
		MaxTurnAdvance:    5,
		MaxPopulationStep: 1_000_000,
		MaxBalanceStep:    10_000_000_000,
		MaxTrustStep:      40,
		MaxCapabilityStep: 16,
	}
}

// RateConfig bounds request frequency per game.
type RateConfig struct {
	MinInterval time.Duration
	PerMinute   int
	BurstWindow time.Duration
	BurstMax    int
}

func DefaultRateConfig() RateConfig {
	return RateConfig{
		MinInterval: 100 * time.Millisecond,
		PerMinute:   120,
		BurstWindow: 2 * time.Second,
		BurstMax:    10,
	}
}

// AnomalyConfig sets the behavioural signal thresholds.
type AnomalyConfig struct {
	IdenticalChoiceStreak    int
	MaxTurnAdvancesPerMinute int
	RegressionBlockThreshold int
}

func DefaultAnomalyConfig() AnomalyConfig {
	return AnomalyConfig{
		IdenticalChoiceStreak:    5,
		MaxTurnAdvancesPerMinute: 30,
		RegressionBlockThreshold: 3,
	}
}
