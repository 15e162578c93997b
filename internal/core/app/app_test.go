package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"backrefs/internal/core/config"
	"backrefs/internal/core/ports"
	"backrefs/internal/data/index"
)

func newTestApp(t *testing.T) (*App, string) {
	t.Helper()

	root := t.TempDir()
	srcDir := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(srcDir, 0o755))

	cfg := config.Default()
	cfg.Paths.ProjectRoot = root
	cfg.WatchPaths = []string{"src"}
	cfg.Queue.BatchWait = 20 * time.Millisecond
	cfg.Exclude.Files = []string{"*generated*"}

	a, err := New(cfg, root)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = a.Close(context.Background())
	})
	return a, srcDir
}

func writeSource(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestScanServiceEndToEnd(t *testing.T) {
	a, srcDir := newTestApp(t)
	svc := NewScanService(a)
	ctx := context.Background()

	writeSource(t, srcDir, "A.java", `
package p;

public class A {
    public int f;
    public void g() {}
}
`)
	bPath := writeSource(t, srcDir, "B.java", `
package p;

public class B extends A {
    void h() {
        g();
        A a = new A();
        int x = a.f;
    }
}
`)
	writeSource(t, srcDir, "NotesGenerated.java", `package p; class NotesGenerated {}`)

	result, err := svc.RunScan(ctx, ports.ScanRequest{})
	require.NoError(t, err)
	require.Equal(t, 2, result.UnitsScanned)
	require.Equal(t, 2, result.Classes)
	require.Greater(t, result.References, 0)
	require.Greater(t, result.Members, 0)
	require.Empty(t, result.Warnings)

	impact, err := svc.AnalyzeImpact(ctx, "p.A")
	require.NoError(t, err)
	require.Contains(t, impact.Units, bPath)

	supers, err := svc.SupersOf(ctx, "p.B")
	require.NoError(t, err)
	require.NotEmpty(t, supers)
	require.Equal(t, "p.A", supers[len(supers)-1])
}

func TestScanSurvivesBrokenUnit(t *testing.T) {
	a, srcDir := newTestApp(t)
	svc := NewScanService(a)
	ctx := context.Background()

	writeSource(t, srcDir, "Ok.java", `package p; class Ok { void m() {} }`)
	writeSource(t, srcDir, "Broken.java", `package p; class {{{{`)

	result, err := svc.RunScan(ctx, ports.ScanRequest{})
	require.NoError(t, err)
	require.GreaterOrEqual(t, result.UnitsScanned, 1)
}

func TestRemoveUnitsDropsFacts(t *testing.T) {
	a, srcDir := newTestApp(t)
	svc := NewScanService(a)
	ctx := context.Background()

	writeSource(t, srcDir, "A.java", `package p; public class A { public void g() {} }`)
	gone := writeSource(t, srcDir, "Gone.java", `
package p;

class Gone {
    void use() {
        A a = new A();
        a.g();
    }
}
`)

	_, err := svc.RunScan(ctx, ports.ScanRequest{})
	require.NoError(t, err)

	impact, err := svc.AnalyzeImpact(ctx, "p.A")
	require.NoError(t, err)
	require.Contains(t, impact.Units, gone)

	require.NoError(t, a.removeUnits(ctx, []string{gone}))
	require.NoError(t, a.waitForQueueDrain(ctx))

	impact, err = svc.AnalyzeImpact(ctx, "p.A")
	require.NoError(t, err)
	require.NotContains(t, impact.Units, gone)
}

func TestScanAppliesCleanlyOnRescan(t *testing.T) {
	a, srcDir := newTestApp(t)
	svc := NewScanService(a)
	ctx := context.Background()

	writeSource(t, srcDir, "A.java", `package p; public class A { public void g() {} }`)

	first, err := svc.RunScan(ctx, ports.ScanRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, first.UnitsScanned)

	// A second pass over unchanged sources must replace, not conflict.
	second, err := svc.RunScan(ctx, ports.ScanRequest{})
	require.NoError(t, err)
	require.Equal(t, first.UnitsScanned, second.UnitsScanned)
	require.Equal(t, first.References, second.References)

	units, refs, classes, err := a.store.(*index.Store).Counts(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, units)
	require.Equal(t, first.References, refs)
	require.Equal(t, 1, classes)
}

func TestRescanChangedUnitKeepsCrossUnitReferences(t *testing.T) {
	a, srcDir := newTestApp(t)
	svc := NewScanService(a)
	ctx := context.Background()

	writeSource(t, srcDir, "A.java", `
package p;

public class A {
    public int f;
    public void g() {}
}
`)
	bPath := writeSource(t, srcDir, "B.java", `
package p;

public class B extends A {
    void h() {
        A a = new A();
        int x = a.f;
    }
}
`)

	_, err := svc.RunScan(ctx, ports.ScanRequest{})
	require.NoError(t, err)

	// Only B changed, but A must stay visible to the bind.
	result, err := a.rescanUnits(ctx, []string{bPath})
	require.NoError(t, err)
	require.Equal(t, 1, result.UnitsScanned)

	impact, err := svc.AnalyzeImpact(ctx, "p.A")
	require.NoError(t, err)
	require.Contains(t, impact.Units, bPath)

	uf, err := a.store.(*index.Store).UnitFacts(ctx, bPath)
	require.NoError(t, err)
	qualified := false
	for _, r := range uf.Refs {
		if r.Qualifier == "p.A" {
			qualified = true
		}
	}
	require.True(t, qualified, "field access through A must keep its qualifier owner, refs: %+v", uf.Refs)
}

func TestImpactIncludesSubclassOnlyDependents(t *testing.T) {
	a, srcDir := newTestApp(t)
	svc := NewScanService(a)
	ctx := context.Background()

	writeSource(t, srcDir, "Base.java", `package p; public class Base {}`)
	subPath := writeSource(t, srcDir, "Sub.java", `package p; public class Sub extends Base {}`)

	_, err := svc.RunScan(ctx, ports.ScanRequest{})
	require.NoError(t, err)

	impact, err := svc.AnalyzeImpact(ctx, "p.Base")
	require.NoError(t, err)
	require.Contains(t, impact.Units, subPath)
}

func TestAnalyzeImpactRejectsEmptySymbol(t *testing.T) {
	a, _ := newTestApp(t)
	svc := NewScanService(a)

	_, err := svc.AnalyzeImpact(context.Background(), "  ")
	require.Error(t, err)
}

func TestHealthReportsComponents(t *testing.T) {
	a, _ := newTestApp(t)

	status := a.Health(context.Background())
	require.Equal(t, "ok", status.Status)
	require.Contains(t, status.Components, "index")
	require.Contains(t, status.Components, "write_queue")
	require.Contains(t, status.Components, "memory")
}

func TestDiscoverUnitsFiltersAndSorts(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "target")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "b"), 0o755))

	keepB := filepath.Join(root, "b", "Keep.java")
	keepA := filepath.Join(root, "a", "Main.java")
	require.NoError(t, os.WriteFile(keepA, []byte("class Main {}"), 0o644))
	require.NoError(t, os.WriteFile(keepB, []byte("class Keep {}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "Build.java"), []byte("class Build {}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b", "readme.txt"), []byte("x"), 0o644))

	units, err := DiscoverUnits([]string{root}, []string{"target"}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{keepA, keepB}, units)
}
