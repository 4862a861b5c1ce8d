package sandbox

import (
	"strings"
	"testing"

	"github.com/kwality/kwality/pkg/types"
)

func codebaseWithFiles(paths ...string) *types.Codebase {
	cb := &types.Codebase{ID: "cb", Name: "test"}
	for _, p := range paths {
		cb.Files = append(cb.Files, &types.CodeFile{Path: p})
	}
	return cb
}

func TestSelectEntrypoint(t *testing.T) {
	tests := []struct {
		name     string
		files    []string
		wantSubstr string
	}{
		{"go main", []string{"main.go"}, "go run main.go"},
		{"go no main", []string{"helper.go"}, "go run ."},
		{"rust cargo", []string{"Cargo.toml", "src/main.rs"}, "cargo run"},
		{"rust plain", []string{"hello.rs"}, "rustc hello.rs"},
		{"python main", []string{"main.py"}, "python3 main.py"},
		{"python dunder main", []string{"__main__.py"}, "python3 __main__.py"},
		{"python plain", []string{"script.py"}, "python3 script.py"},
		{"node package", []string{"package.json", "index.js"}, "npm start"},
		{"node plain", []string{"index.js"}, "node index.js"},
		{"java", []string{"Main.java"}, "javac Main.java"},
		{"empty", nil, "no runnable code detected"},
		{"unknown", []string{"README.md"}, "no runnable code detected"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cb := codebaseWithFiles(tc.files...)
			cmd := SelectEntrypoint(cb)
			if len(cmd) != 3 || cmd[0] != "/bin/sh" {
				t.Fatalf("expected a /bin/sh -c command, got %v", cmd)
			}
			if !strings.Contains(cmd[2], tc.wantSubstr) {
				t.Errorf("entrypoint %q does not contain %q", cmd[2], tc.wantSubstr)
			}
		})
	}
}

func TestSelectEntrypoint_GoTakesPriorityOverPython(t *testing.T) {
	cb := codebaseWithFiles("main.go", "script.py")
	cmd := SelectEntrypoint(cb)
	if !strings.Contains(cmd[2], "go run main.go") {
		t.Errorf("expected go to win, got %q", cmd[2])
	}
}
