package sandbox

import (
	"strings"

	"github.com/kwality/kwality/pkg/types"
)

// SelectEntrypoint deterministically picks a shell command to run the
// codebase, by file-extension scan, first match wins, in language order:
// Go, Rust, Python, JavaScript/TypeScript, Java, and finally a fallback
// that reports no runnable code was found. Tie-breaks are by first-appearing
// file in the codebase's own order.
func SelectEntrypoint(codebase *types.Codebase) []string {
	has := func(name string) bool {
		for _, f := range codebase.Files {
			if f.Path == name {
				return true
			}
		}
		return false
	}
	firstWithSuffix := func(suffix string) string {
		for _, f := range codebase.Files {
			if strings.HasSuffix(f.Path, suffix) {
				return f.Path
			}
		}
		return ""
	}

	if has("main.go") {
		return shell("go run main.go")
	}
	if firstWithSuffix(".go") != "" {
		return shell("go run .")
	}

	if has("Cargo.toml") {
		return shell("cargo run")
	}
	if f := firstWithSuffix(".rs"); f != "" {
		bin := strings.TrimSuffix(f, ".rs")
		return shell("rustc " + f + " && ./" + bin)
	}

	if has("main.py") {
		return shell("python3 main.py")
	}
	if has("__main__.py") {
		return shell("python3 __main__.py")
	}
	if f := firstWithSuffix(".py"); f != "" {
		return shell("python3 " + f)
	}

	if has("package.json") {
		return shell("npm start")
	}
	if f := firstWithSuffix(".ts"); f != "" {
		return shell("node " + f)
	}
	if f := firstWithSuffix(".js"); f != "" {
		return shell("node " + f)
	}

	if f := firstWithSuffix(".java"); f != "" {
		class := strings.TrimSuffix(f, ".java")
		return shell("javac " + f + " && java " + class)
	}

	return shell(`echo "no runnable code detected" && exit 1`)
}

func shell(cmd string) []string {
	return []string{"/bin/sh", "-c", cmd}
}
