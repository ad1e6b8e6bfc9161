package config

import "time"

// SimulationConfig tunes the synthetic vendors and customers.
type SimulationConfig struct {
	MaxBatch    int           // largest random release batch
	VendorCount int           // number of synthetic vendor labels
	MinInterval time.Duration // floor for configured release/retrieval rates
	MirrorLogs  bool          // copy simulation log lines to the process log
}

// LoadSimulationConfig reads the SIM_* variables, falling back to batches
// of 1..10 from five vendors with a 50ms interval floor.
func LoadSimulationConfig() SimulationConfig {
	return SimulationConfig{
		MaxBatch:    envInt("SIM_MAX_BATCH", 10),
		VendorCount: envInt("SIM_VENDOR_COUNT", 5),
		MinInterval: envDur("SIM_MIN_INTERVAL", 50*time.Millisecond),
		MirrorLogs:  envBool("SIM_MIRROR_LOGS", true),
	}
}
