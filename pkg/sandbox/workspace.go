package sandbox

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/kwality/kwality/pkg/errs"
	"github.com/kwality/kwality/pkg/types"
)

// workspaceDirName is the fixed subdirectory name the container binds at
// /workspace, per the design's host-side workspace layout.
const workspaceDirName = "workspace"

// CreateEnvironment creates a fresh host temporary directory, materializes
// every CodeFile beneath a workspace/ subdirectory (creating intermediate
// directories as needed), and returns an Environment with no container yet.
// On I/O failure the temporary directory is rolled back.
func (d *ContainerdDriver) CreateEnvironment(_ context.Context, codebase *types.Codebase) (*types.Environment, error) {
	return createEnvironment(codebase)
}

func createEnvironment(codebase *types.Codebase) (*types.Environment, error) {
	tempDir, err := os.MkdirTemp("", "kwality-env-*")
	if err != nil {
		return nil, errs.WorkspaceError("create temp dir", err)
	}

	workspaceDir := filepath.Join(tempDir, workspaceDirName)
	if err := os.MkdirAll(workspaceDir, 0o755); err != nil {
		_ = os.RemoveAll(tempDir)
		return nil, errs.WorkspaceError("create workspace dir", err)
	}

	for _, f := range codebase.Files {
		if err := writeCodeFile(workspaceDir, f); err != nil {
			_ = os.RemoveAll(tempDir)
			return nil, errs.WorkspaceError("materialize "+f.Path, err)
		}
	}

	return &types.Environment{
		ID:           uuid.NewString(),
		WorkspaceDir: tempDir,
		Codebase:     codebase,
		Metadata:     map[string]string{},
	}, nil
}

func writeCodeFile(workspaceDir string, f *types.CodeFile) error {
	rel := filepath.Clean(f.Path)
	if strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return errs.WorkspaceError("refusing to materialize path outside workspace: "+f.Path, nil)
	}

	dest := filepath.Join(workspaceDir, rel)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte(f.Content), 0o644)
}

// removeWorkspace deletes the workspace directory. Idempotent: a missing
// directory is not an error.
func removeWorkspace(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return errs.WorkspaceError("remove workspace", err)
	}
	return nil
}
