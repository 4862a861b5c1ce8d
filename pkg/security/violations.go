package security

import (
	"regexp"
	"strings"
	"time"

	"github.com/kwality/kwality/pkg/config"
	"github.com/kwality/kwality/pkg/sandbox"
	"github.com/kwality/kwality/pkg/types"
)

// urlPattern extracts the host (a hostname or dotted-quad address) from
// http(s) URLs; addresses that appear outside a URL are not matched.
var urlPattern = regexp.MustCompile(`https?://([a-zA-Z0-9.\-]+)`)

// signalKilledOffset is the shell convention for "killed by signal N":
// exit code 128+N. SIGSYS (bad/blocked syscall) is signal 31.
const (
	signalKilledOffset = 128
	sigSYS             = 31
)

// detectViolations inspects the codebase for static references to
// disallowed network hosts and sensitive file paths, and inspects the
// execution outcome for evidence of a blocked syscall (a seccomp kill
// surfaces as exit code 128+SIGSYS or a "bad system call" stderr line).
func detectViolations(cfg *config.SecurityConfig, codebase *types.Codebase, result *sandbox.ExecutionResult) []*types.SecurityViolation {
	var violations []*types.SecurityViolation

	if cfg.EnableNetworkMonitoring {
		violations = append(violations, networkViolations(cfg, codebase)...)
	}
	if cfg.EnableFileMonitoring {
		violations = append(violations, fileViolations(cfg, codebase)...)
	}
	if cfg.EnableSyscallMonitoring && result != nil {
		violations = append(violations, syscallViolations(cfg, result)...)
	}

	return violations
}

func allowed(host string, allowList []string) bool {
	for _, a := range allowList {
		if host == a {
			return true
		}
	}
	return false
}

func networkViolations(cfg *config.SecurityConfig, codebase *types.Codebase) []*types.SecurityViolation {
	var violations []*types.SecurityViolation
	for _, f := range codebase.Files {
		for _, m := range urlPattern.FindAllStringSubmatch(f.Content, -1) {
			host := m[1]
			if allowed(host, cfg.AllowedNetworks) {
				continue
			}
			violations = append(violations, &types.SecurityViolation{
				Type:       types.ViolationNetworkAccess,
				Timestamp:  time.Now().UTC(),
				Risk:       types.RiskTagMedium,
				Evidence:   f.Path + ": reference to " + host,
				Mitigation: "restrict network access or use an allow-listed endpoint",
			})
		}
	}
	return violations
}

func fileViolations(cfg *config.SecurityConfig, codebase *types.Codebase) []*types.SecurityViolation {
	var violations []*types.SecurityViolation
	for _, f := range codebase.Files {
		for _, sensitive := range cfg.SensitiveFiles {
			if !strings.Contains(f.Content, sensitive) {
				continue
			}
			violations = append(violations, &types.SecurityViolation{
				Type:       types.ViolationFileSystemAccess,
				Timestamp:  time.Now().UTC(),
				Risk:       types.RiskTagHigh,
				Evidence:   f.Path + ": reference to sensitive path " + sensitive,
				Mitigation: "restrict file system access permissions",
			})
		}
	}
	return violations
}

func syscallViolations(cfg *config.SecurityConfig, result *sandbox.ExecutionResult) []*types.SecurityViolation {
	var violations []*types.SecurityViolation

	killedBySeccomp := result.ExitCode == signalKilledOffset+sigSYS
	mentionsBadSyscall := strings.Contains(strings.ToLower(result.Stderr), "bad system call")

	if !killedBySeccomp && !mentionsBadSyscall {
		return violations
	}

	for _, syscallName := range cfg.BlockedSyscalls {
		if mentionsBadSyscall && !strings.Contains(result.Stderr, syscallName) {
			continue
		}
		violations = append(violations, &types.SecurityViolation{
			Type:       types.ViolationUnauthorizedSyscall,
			Timestamp:  time.Now().UTC(),
			Risk:       types.RiskTagCritical,
			Evidence:   "process terminated attempting blocked syscall: " + syscallName,
			Mitigation: "remove or replace the syscall usage",
		})
	}

	return violations
}
