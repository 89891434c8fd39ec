package naming

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/backmassage/pngtone/internal/filter"
)

func TestOutputPath(t *testing.T) {
	root := filepath.FromSlash("/data/out")
	tests := []struct {
		name  string
		kind  filter.Kind
		input string
		want  string
	}{
		{"grayscale", filter.Grayscale, "/work/unzipped/cat.png", "/data/out/grayscale/cat.png"},
		{"sepia", filter.Sepia, "/work/unzipped/cat.png", "/data/out/sepia/cat.png"},
		{"keeps case", filter.Grayscale, "/work/unzipped/Logo.PNG", "/data/out/grayscale/Logo.PNG"},
		{"relative input", filter.Sepia, "dog.png", "/data/out/sepia/dog.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OutputPath(root, tt.kind, filepath.FromSlash(tt.input))
			if want := filepath.FromSlash(tt.want); got != want {
				t.Errorf("OutputPath() = %q, want %q", got, want)
			}
		})
	}
}

func TestCollisionResolver(t *testing.T) {
	cr := NewCollisionResolver(false)
	out := filepath.FromSlash("/out/grayscale/a.png")

	if got := cr.Resolve("/x/a.png", out); got != out {
		t.Errorf("first claim = %q, want %q", got, out)
	}
	if got := cr.Resolve("/x/a.png", out); got != out {
		t.Errorf("same owner reclaim = %q, want %q", got, out)
	}

	want1 := filepath.FromSlash("/out/grayscale/a - dup1.png")
	if got := cr.Resolve("/y/a.png", out); got != want1 {
		t.Errorf("second claim = %q, want %q", got, want1)
	}
	want2 := filepath.FromSlash("/out/grayscale/a - dup2.png")
	if got := cr.Resolve("/z/a.png", out); got != want2 {
		t.Errorf("third claim = %q, want %q", got, want2)
	}
}

func TestCollisionResolver_FoldCase(t *testing.T) {
	cr := NewCollisionResolver(true)
	lower := filepath.FromSlash("/out/sepia/a.png")
	upper := filepath.FromSlash("/out/sepia/A.PNG")

	cr.Resolve("/in/a.png", lower)
	got := cr.Resolve("/in/A.PNG", upper)
	if want := filepath.FromSlash("/out/sepia/A - dup1.PNG"); got != want {
		t.Errorf("Resolve() = %q, want %q", got, want)
	}
}

func TestCollisionResolver_CaseSensitive(t *testing.T) {
	cr := NewCollisionResolver(false)
	upper := filepath.FromSlash("/out/grayscale/A.png")
	lower := filepath.FromSlash("/out/grayscale/a.png")

	if got := cr.Resolve("/in/A.png", upper); got != upper {
		t.Errorf("Resolve(A.png) = %q, want %q", got, upper)
	}
	if got := cr.Resolve("/in/a.png", lower); got != lower {
		t.Errorf("Resolve(a.png) = %q, want %q", got, lower)
	}
}

func TestCaseInsensitiveDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Grayscale")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	_, err := os.Stat(filepath.Join(filepath.Dir(dir), "gRAYSCALE"))
	want := err == nil

	if got := CaseInsensitiveDir(dir); got != want {
		t.Errorf("CaseInsensitiveDir(existing) = %v, want %v", got, want)
	}
	if got := CaseInsensitiveDir(filepath.Join(dir, "missing", "deeper")); got != want {
		t.Errorf("CaseInsensitiveDir(missing child) = %v, want %v", got, want)
	}
}

func TestSwapCase(t *testing.T) {
	if got := swapCase("Sepia-01"); got != "sEPIA-01" {
		t.Errorf("swapCase = %q", got)
	}
}

func TestCollisionResolver_Concurrent(t *testing.T) {
	cr := NewCollisionResolver(false)
	out := filepath.FromSlash("/out/grayscale/a.png")

	const n = 32
	results := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = cr.Resolve(fmt.Sprintf("/in%d/a.png", i), out)
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, r := range results {
		if seen[r] {
			t.Fatalf("duplicate output %q", r)
		}
		seen[r] = true
	}
}
