package security

import (
	"testing"

	"github.com/kwality/kwality/pkg/catalog"
	"github.com/kwality/kwality/pkg/types"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default: %v", err)
	}
	return cat
}

func TestScanVulnerabilities_CommandInjection(t *testing.T) {
	cat := testCatalog(t)
	codebase := &types.Codebase{
		ID: "cb",
		Files: []*types.CodeFile{
			{Path: "run.py", Content: "def run(input):\n    os.system(input)\n"},
		},
	}

	found := scanVulnerabilities(cat, codebase)
	if len(found) == 0 {
		t.Fatal("expected at least one vulnerability match")
	}
	if found[0].FilePath != "run.py" || found[0].Line != 2 {
		t.Errorf("got file=%s line=%d, want file=run.py line=2", found[0].FilePath, found[0].Line)
	}
}

func TestScanSecrets_APIKeyWithContext(t *testing.T) {
	cat := testCatalog(t)
	codebase := &types.Codebase{
		ID: "cb",
		Files: []*types.CodeFile{
			{Path: "config.py", Content: "# setup\n# config\napi_key = \"sk-abcdefghijklmnop\"\n# end\n# done\n"},
		},
	}

	found := scanSecrets(cat, codebase)
	if len(found) == 0 {
		t.Fatal("expected at least one secret match")
	}
	f := found[0]
	if f.Line != 3 {
		t.Errorf("got line %d, want 3", f.Line)
	}
	if f.Context == "" {
		t.Error("expected a non-empty context window")
	}
}

func TestScanVulnerabilities_NoMatchOnCleanCode(t *testing.T) {
	cat := testCatalog(t)
	codebase := &types.Codebase{
		ID: "cb",
		Files: []*types.CodeFile{
			{Path: "clean.py", Content: "def add(a, b):\n    return a + b\n"},
		},
	}

	if found := scanVulnerabilities(cat, codebase); len(found) != 0 {
		t.Errorf("expected no vulnerabilities, got %d", len(found))
	}
}
