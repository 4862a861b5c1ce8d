package security

import (
	"testing"

	"github.com/kwality/kwality/pkg/config"
	"github.com/kwality/kwality/pkg/sandbox"
	"github.com/kwality/kwality/pkg/types"
)

func TestDetectViolations_NetworkReferenceOutsideAllowList(t *testing.T) {
	cfg := &config.SecurityConfig{
		EnableNetworkMonitoring: true,
		AllowedNetworks:         []string{"localhost", "127.0.0.1"},
	}
	codebase := &types.Codebase{
		Files: []*types.CodeFile{
			{Path: "client.py", Content: "url = 'https://exfil.example.com/upload'"},
		},
	}

	violations := detectViolations(cfg, codebase, nil)
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(violations))
	}
	if violations[0].Type != types.ViolationNetworkAccess {
		t.Errorf("expected NetworkAccess violation, got %v", violations[0].Type)
	}
}

func TestDetectViolations_AllowedHostIsNotFlagged(t *testing.T) {
	cfg := &config.SecurityConfig{
		EnableNetworkMonitoring: true,
		AllowedNetworks:         []string{"localhost"},
	}
	codebase := &types.Codebase{
		Files: []*types.CodeFile{
			{Path: "client.py", Content: "url = 'https://localhost/health'"},
		},
	}

	if violations := detectViolations(cfg, codebase, nil); len(violations) != 0 {
		t.Errorf("expected no violations for an allow-listed host, got %d", len(violations))
	}
}

func TestDetectViolations_SensitiveFileReference(t *testing.T) {
	cfg := &config.SecurityConfig{
		EnableFileMonitoring: true,
		SensitiveFiles:       []string{"/etc/shadow"},
	}
	codebase := &types.Codebase{
		Files: []*types.CodeFile{
			{Path: "steal.py", Content: "open('/etc/shadow').read()"},
		},
	}

	violations := detectViolations(cfg, codebase, nil)
	if len(violations) != 1 || violations[0].Type != types.ViolationFileSystemAccess {
		t.Fatalf("expected one FileSystemAccess violation, got %v", violations)
	}
}

func TestDetectViolations_BlockedSyscallFromExitSignal(t *testing.T) {
	cfg := &config.SecurityConfig{
		EnableSyscallMonitoring: true,
		BlockedSyscalls:         []string{"ptrace"},
	}
	result := &sandbox.ExecutionResult{ExitCode: 128 + 31, Stderr: "bad system call: ptrace"}

	violations := detectViolations(cfg, &types.Codebase{}, result)
	if len(violations) != 1 || violations[0].Type != types.ViolationUnauthorizedSyscall {
		t.Fatalf("expected one UnauthorizedSyscall violation, got %v", violations)
	}
}

func TestDetectViolations_CleanRunYieldsNothing(t *testing.T) {
	cfg := &config.SecurityConfig{EnableSyscallMonitoring: true, BlockedSyscalls: []string{"ptrace"}}
	result := &sandbox.ExecutionResult{ExitCode: 0, Stderr: ""}

	if violations := detectViolations(cfg, &types.Codebase{}, result); len(violations) != 0 {
		t.Errorf("expected no violations for a clean exit, got %d", len(violations))
	}
}
