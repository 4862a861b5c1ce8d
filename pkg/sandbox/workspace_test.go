package sandbox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kwality/kwality/pkg/types"
)

func TestCreateEnvironment_MaterializesFiles(t *testing.T) {
	cb := &types.Codebase{
		ID:   "cb-1",
		Name: "hello",
		Files: []*types.CodeFile{
			{Path: "main.py", Content: `print("hi")`},
			{Path: "nested/helper.py", Content: "x = 1"},
		},
	}

	env, err := createEnvironment(cb)
	if err != nil {
		t.Fatalf("createEnvironment: %v", err)
	}
	defer os.RemoveAll(env.WorkspaceDir)

	for _, f := range cb.Files {
		data, err := os.ReadFile(filepath.Join(env.WorkspaceDir, workspaceDirName, f.Path))
		if err != nil {
			t.Fatalf("read %s: %v", f.Path, err)
		}
		if string(data) != f.Content {
			t.Errorf("file %s: got %q, want %q", f.Path, data, f.Content)
		}
	}
}

func TestCreateEnvironment_RejectsPathTraversal(t *testing.T) {
	cb := &types.Codebase{
		ID: "cb-2",
		Files: []*types.CodeFile{
			{Path: "../escape.py", Content: "evil"},
		},
	}

	_, err := createEnvironment(cb)
	if err == nil {
		t.Fatal("expected an error for a path-traversing file, got nil")
	}
}

func TestCreateEnvironment_RoundTripIsByteIdentical(t *testing.T) {
	cb := &types.Codebase{
		ID: "cb-3",
		Files: []*types.CodeFile{
			{Path: "a.py", Content: "print(1)"},
		},
	}

	env1, err := createEnvironment(cb)
	if err != nil {
		t.Fatalf("first materialize: %v", err)
	}
	defer os.RemoveAll(env1.WorkspaceDir)

	env2, err := createEnvironment(cb)
	if err != nil {
		t.Fatalf("second materialize: %v", err)
	}
	defer os.RemoveAll(env2.WorkspaceDir)

	d1, _ := os.ReadFile(filepath.Join(env1.WorkspaceDir, workspaceDirName, "a.py"))
	d2, _ := os.ReadFile(filepath.Join(env2.WorkspaceDir, workspaceDirName, "a.py"))
	if string(d1) != string(d2) {
		t.Errorf("expected byte-identical workspace contents, got %q vs %q", d1, d2)
	}
}

func TestRemoveWorkspace_IdempotentNoOp(t *testing.T) {
	dir, err := os.MkdirTemp("", "kwality-test-*")
	if err != nil {
		t.Fatal(err)
	}

	if err := removeWorkspace(dir); err != nil {
		t.Fatalf("first removeWorkspace: %v", err)
	}
	if err := removeWorkspace(dir); err != nil {
		t.Fatalf("second removeWorkspace should be a no-op: %v", err)
	}
}
