// Package orchestrator implements the Orchestrator: the phased validation
// pipeline (Initialization, EnvironmentSetup, SecurityScanning,
// RuntimeExecution, PerformanceProfiling, FuzzTesting, ResultAggregation,
// Cleanup, Completed), the session registry tracking every in-flight
// validation, and the global/per-phase timeout and retry policy that binds
// the Sandbox Driver, Security Observer, Performance Observer, Fuzz Driver,
// Metrics Sink, and Result Aggregator into one Validate call.
package orchestrator
