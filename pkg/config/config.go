// Package config loads the kwality configuration document: the container,
// performance, security, fuzzing, and validation sections described in the
// design's external-interfaces section. Missing fields fall back to
// package-level defaults, mirroring the health package's DefaultConfig
// pattern in the teacher codebase this engine was built from.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/kwality/kwality/pkg/errs"
	"github.com/kwality/kwality/pkg/types"
)

// Config is the root configuration document.
type Config struct {
	Container  ContainerConfig  `json:"container"`
	Performance PerformanceConfig `json:"performance"`
	Security   SecurityConfig   `json:"security"`
	Fuzzing    FuzzingConfig    `json:"fuzzing"`
	Validation ValidationConfig `json:"validation"`
}

// ContainerConfig controls the Sandbox Driver's resource contract.
type ContainerConfig struct {
	Image              string            `json:"image"`
	MemoryLimitMB      int64             `json:"memory_limit_mb"`
	CPULimitCores      float64           `json:"cpu_limit_cores"`
	TimeoutSeconds      int              `json:"timeout_seconds"`
	NetworkIsolation    bool             `json:"network_isolation"`
	ReadonlyFilesystem  bool             `json:"readonly_filesystem"`
	TempDirSizeMB       int64            `json:"temp_dir_size_mb"`
	Environment         map[string]string `json:"environment"`
	SecurityOpts        []string         `json:"security_opts"`
}

// PerformanceConfig controls the Performance Observer.
type PerformanceConfig struct {
	EnableCPUProfiling    bool                  `json:"enable_cpu_profiling"`
	EnableMemoryProfiling bool                  `json:"enable_memory_profiling"`
	EnableIOProfiling     bool                  `json:"enable_io_profiling"`
	BenchmarkIterations   int                   `json:"benchmark_iterations"`
	Thresholds            PerformanceThresholds `json:"thresholds"`
}

// PerformanceThresholds gates bottleneck/recommendation derivation.
type PerformanceThresholds struct {
	MaxExecutionTimeMs  int64   `json:"max_execution_time_ms"`
	MaxMemoryUsageMB    float64 `json:"max_memory_usage_mb"`
	MaxCPUUsagePercent  float64 `json:"max_cpu_usage_percent"`
	MaxIOOpsPerSecond   float64 `json:"max_io_ops_per_second"`
}

// SecurityConfig controls the Security Observer.
type SecurityConfig struct {
	EnableSyscallMonitoring bool     `json:"enable_syscall_monitoring"`
	EnableNetworkMonitoring bool     `json:"enable_network_monitoring"`
	EnableFileMonitoring    bool     `json:"enable_file_monitoring"`
	BlockedSyscalls         []string `json:"blocked_syscalls"`
	AllowedNetworks         []string `json:"allowed_networks"`
	SensitiveFiles          []string `json:"sensitive_files"`
}

// FuzzingConfig controls the Fuzz Driver.
type FuzzingConfig struct {
	Enabled        bool              `json:"enabled"`
	DurationSeconds int              `json:"duration_seconds"`
	Iterations      int              `json:"iterations"`
	Strategy        types.FuzzStrategy `json:"strategy"`
	CoverageGuided  bool             `json:"coverage_guided"`
}

// ValidationConfig controls the orchestrator pipeline.
type ValidationConfig struct {
	MaxValidationTime       int  `json:"max_validation_time"` // seconds
	ParallelExecution       bool `json:"parallel_execution"`
	CleanupAfterValidation  bool `json:"cleanup_after_validation"`
	DetailedLogging         bool `json:"detailed_logging"`
	Retry                   RetryConfig `json:"retry"`
}

// RetryConfig controls the orchestrator's container create/start retry
// policy.
type RetryConfig struct {
	MaxRetries      int      `json:"max_retries"`
	RetryDelaySeconds int    `json:"retry_delay_seconds"`
	BackoffDouble   bool     `json:"backoff_double"`
	RetryableKinds  []string `json:"retryable_kinds"`
}

// Default returns the configuration used when no config file is supplied,
// or to fill in zero-valued sections of a partially-specified document.
func Default() *Config {
	return &Config{
		Container: ContainerConfig{
			Image:              "kwality/runner:latest",
			MemoryLimitMB:      512,
			CPULimitCores:      1.0,
			TimeoutSeconds:      120,
			NetworkIsolation:    true,
			ReadonlyFilesystem:  false,
			TempDirSizeMB:       64,
			Environment:         map[string]string{},
			SecurityOpts:        []string{"no-new-privileges"},
		},
		Performance: PerformanceConfig{
			EnableCPUProfiling:    true,
			EnableMemoryProfiling: true,
			EnableIOProfiling:     true,
			BenchmarkIterations:   1000,
			Thresholds: PerformanceThresholds{
				MaxExecutionTimeMs: 30000,
				MaxMemoryUsageMB:   512,
				MaxCPUUsagePercent: 90,
				MaxIOOpsPerSecond:  1000,
			},
		},
		Security: SecurityConfig{
			EnableSyscallMonitoring: true,
			EnableNetworkMonitoring: true,
			EnableFileMonitoring:    true,
			BlockedSyscalls:         []string{"ptrace", "mount", "reboot", "kexec_load", "init_module"},
			AllowedNetworks:         []string{"localhost", "127.0.0.1"},
			SensitiveFiles:          []string{"/etc/shadow", "/etc/passwd", "/root/.ssh"},
		},
		Fuzzing: FuzzingConfig{
			Enabled:         false,
			DurationSeconds: 30,
			Iterations:      200,
			Strategy:        types.FuzzStrategyRandom,
			CoverageGuided:  true,
		},
		Validation: ValidationConfig{
			MaxValidationTime:      300,
			ParallelExecution:      true,
			CleanupAfterValidation: true,
			DetailedLogging:        false,
			Retry: RetryConfig{
				MaxRetries:        2,
				RetryDelaySeconds: 5,
				BackoffDouble:     false,
				RetryableKinds:    []string{string(errs.KindRuntimeUnavailable)},
			},
		},
	}
}

// Load reads a configuration document from path. A missing file is not an
// error: Default() is returned unchanged. A present-but-invalid file is a
// ConfigError per the design's error taxonomy.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errs.ConfigError(fmt.Sprintf("parse %s", path), err)
	}
	return cfg, nil
}

// GlobalTimeout returns the configured global validation timeout.
func (c *Config) GlobalTimeout() time.Duration {
	if c.Validation.MaxValidationTime <= 0 {
		return 300 * time.Second
	}
	return time.Duration(c.Validation.MaxValidationTime) * time.Second
}
