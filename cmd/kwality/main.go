package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kwality/kwality/pkg/catalog"
	"github.com/kwality/kwality/pkg/config"
	"github.com/kwality/kwality/pkg/events"
	"github.com/kwality/kwality/pkg/log"
	"github.com/kwality/kwality/pkg/orchestrator"
	"github.com/kwality/kwality/pkg/performance"
	"github.com/kwality/kwality/pkg/sandbox"
	"github.com/kwality/kwality/pkg/security"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Exit codes, per the design's error taxonomy: 0 always means "a result
// document was produced", regardless of the validation's own status.
const (
	exitInputError   = 1
	exitOutputError  = 2
	exitRuntimeError = 3
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "kwality",
	Short: "kwality validates a codebase inside a disposable sandbox",
	Long: `kwality runs an untrusted codebase through a sandboxed pipeline:
static security scanning, a real sandboxed execution, performance
profiling, and optional fuzz testing, then emits one scored,
finding-annotated result document.`,
	Version:      Version,
	SilenceUsage: true,
	RunE:         runValidate,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"kwality version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	rootCmd.Flags().StringP("config", "c", "config.json", "configuration file (defaults apply if absent)")
	rootCmd.Flags().StringP("input", "i", "", "codebase document to validate (required)")
	rootCmd.Flags().StringP("output", "o", "validation_results.json", "result document path")
	rootCmd.Flags().String("containerd-socket", "", "containerd socket path (defaults to /run/containerd/containerd.sock if not specified)")
	rootCmd.Flags().Bool("watch", false, "stream progress events to stderr while the validation runs")
	_ = rootCmd.MarkFlagRequired("input")

	cobra.OnInitialize(initLogging)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

// exitErr carries a process exit code alongside the human-readable error
// cobra prints, so main can map failures to the design's taxonomy without
// re-inspecting the error after Execute returns.
type exitErr struct {
	code int
	err  error
}

func (e *exitErr) Error() string { return e.err.Error() }
func (e *exitErr) Unwrap() error { return e.err }

func exitCodeFor(err error) int {
	if ee, ok := err.(*exitErr); ok {
		return ee.code
	}
	return exitRuntimeError
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	inputPath, _ := cmd.Flags().GetString("input")
	outputPath, _ := cmd.Flags().GetString("output")
	socketPath, _ := cmd.Flags().GetString("containerd-socket")
	watch, _ := cmd.Flags().GetBool("watch")

	cfg, err := config.Load(configPath)
	if err != nil {
		return &exitErr{exitInputError, fmt.Errorf("loading config: %w", err)}
	}

	inputData, err := os.ReadFile(inputPath)
	if err != nil {
		return &exitErr{exitInputError, fmt.Errorf("reading input: %w", err)}
	}
	codebase, err := decodeCodebase(inputData)
	if err != nil {
		return &exitErr{exitInputError, fmt.Errorf("parsing codebase document: %w", err)}
	}

	cat, err := catalog.Default()
	if err != nil {
		return &exitErr{exitRuntimeError, fmt.Errorf("loading vulnerability/secret catalog: %w", err)}
	}

	securityObserver, err := security.New(cat, cfg)
	if err != nil {
		return &exitErr{exitRuntimeError, fmt.Errorf("constructing security observer: %w", err)}
	}
	performanceProfiler := performance.New(&cfg.Performance)
	sandboxDriver := sandbox.NewContainerdDriver(&cfg.Container, socketPath)

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	orch := orchestrator.New(cfg, sandboxDriver, securityObserver, performanceProfiler, nil, broker, nil)

	if watch {
		sub := broker.Subscribe()
		defer broker.Unsubscribe(sub)
		go watchEvents(sub)
	}

	result, err := orch.Validate(context.Background(), codebase)
	if err != nil {
		return &exitErr{exitRuntimeError, fmt.Errorf("validation failed to run: %w", err)}
	}

	outputData, err := encodeResult(result)
	if err != nil {
		return &exitErr{exitOutputError, fmt.Errorf("encoding result document: %w", err)}
	}
	if err := os.WriteFile(outputPath, outputData, 0644); err != nil {
		return &exitErr{exitOutputError, fmt.Errorf("writing output: %w", err)}
	}

	return nil
}

func watchEvents(sub events.Subscriber) {
	for evt := range sub {
		fmt.Fprintf(os.Stderr, "[%s] %s: %s\n", evt.Timestamp.Format("15:04:05"), evt.Kind, evt.Message)
	}
}
