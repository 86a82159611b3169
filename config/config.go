// Package config decodes the host configuration file: timeouts, instance
// caps, and the per-operation gas cost schedule, mirroring the teacher's own
// split between a primary TOML decode and a secondary schedule-map decode.
package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	toml "github.com/pelletier/go-toml"
)

// HostConfig is the full set of tunables a host process reads at startup.
type HostConfig struct {
	// WorkerBinary overrides the ACTORX_WORKER_BIN environment variable
	// when set.
	WorkerBinary string `toml:"worker_binary"`

	// HardwareEnclave selects the stdin-path handshake instead of
	// ExtraFiles fd-passing when spawning a worker.
	HardwareEnclave bool `toml:"hardware_enclave"`

	// AutoDeactivateTimeout is the configured idle window for
	// auto-deactivation. Defaults to 5 minutes when zero. The value is only
	// decoded and defaulted here: no host component reads it, and actors are
	// not deactivated on a timer.
	AutoDeactivateTimeout time.Duration `toml:"auto_deactivate_timeout"`

	// MaxLiveInstances sizes a worker's compiled-module cache. The number of
	// concurrently live WASM guest instances is not capped by it.
	MaxLiveInstances int `toml:"max_live_instances"`

	// AllowSelfRecursion enables the opt-in self-invocation exemption from
	// ring detection.
	AllowSelfRecursion bool `toml:"allow_self_recursion"`

	// GasSchedule names the cost, in gas units, of each metered operation
	// class. Decoded through mapstructure from a generic map so new cost
	// classes can be added to the TOML file without a Go code change.
	GasSchedule GasSchedule `toml:"gas_schedule"`
}

// GasSchedule is the per-operation-class cost table of the worker's gas
// metering. The worker charges per function call: CallCost for guest
// functions and HostFunctionCost for host functions. BaseOpcodeCost and
// MemoryGrowCost are decoded but not charged.
type GasSchedule struct {
	BaseOpcodeCost   uint64 `mapstructure:"base_opcode_cost"`
	CallCost         uint64 `mapstructure:"call_cost"`
	MemoryGrowCost   uint64 `mapstructure:"memory_grow_cost"`
	HostFunctionCost uint64 `mapstructure:"host_function_cost"`
}

// DefaultAutoDeactivateTimeout is the fallback idle timeout when a
// HostConfig leaves AutoDeactivateTimeout unset.
const DefaultAutoDeactivateTimeout = 5 * time.Minute

// Default returns a HostConfig with the documented defaults: strict ring
// detection, a 5 minute auto-deactivation window, and a conservative gas
// schedule.
func Default() HostConfig {
	return HostConfig{
		AutoDeactivateTimeout: DefaultAutoDeactivateTimeout,
		MaxLiveInstances:      64,
		GasSchedule: GasSchedule{
			BaseOpcodeCost:   1,
			CallCost:         16,
			MemoryGrowCost:   256,
			HostFunctionCost: 32,
		},
	}
}

// Load decodes a HostConfig from TOML-encoded data, starting from Default
// and overlaying any fields present in data.
func Load(data []byte) (HostConfig, error) {
	cfg := Default()

	tree, err := toml.LoadBytes(data)
	if err != nil {
		return cfg, fmt.Errorf("config: parse toml: %w", err)
	}

	raw := tree.ToMap()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		TagName:          "toml",
	})
	if err != nil {
		return cfg, fmt.Errorf("config: build decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return cfg, fmt.Errorf("config: decode: %w", err)
	}

	if schedule, ok := raw["gas_schedule"]; ok {
		scheduleDecoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &cfg.GasSchedule,
			WeaklyTypedInput: true,
			TagName:          "mapstructure",
		})
		if err != nil {
			return cfg, fmt.Errorf("config: build gas schedule decoder: %w", err)
		}
		if err := scheduleDecoder.Decode(schedule); err != nil {
			return cfg, fmt.Errorf("config: decode gas schedule: %w", err)
		}
	}

	if cfg.AutoDeactivateTimeout == 0 {
		cfg.AutoDeactivateTimeout = DefaultAutoDeactivateTimeout
	}
	return cfg, nil
}
