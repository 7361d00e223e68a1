package fenics

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// --- local helpers ----------------------------------------------------------

func write(t *testing.T, dir, name, src string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", p, err)
	}
	if err := os.WriteFile(p, []byte(src), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

// runMain writes main.fenics in dir, runs it, and returns stdout.
func runMain(t *testing.T, dir, src string) string {
	t.Helper()
	main := write(t, dir, "main.fenics", src)
	in := NewInterpreter()
	var out bytes.Buffer
	in.Stdout = &out
	in.Stderr = &out
	if status := in.RunFile(main); status != 0 {
		t.Fatalf("run failed (status %d):\n%s", status, out.String())
	}
	return out.String()
}

func runMainErr(t *testing.T, dir, src string) string {
	t.Helper()
	main := write(t, dir, "main.fenics", src)
	in := NewInterpreter()
	var out bytes.Buffer
	in.Stdout = &out
	in.Stderr = &out
	if status := in.RunFile(main); status == 0 {
		t.Fatalf("expected failure, got success:\n%s", out.String())
	}
	return out.String()
}

// --- tests ------------------------------------------------------------------

// The literal import scenario: a lib block names the exported function.
func Test_Import_ByName_WithLib(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "mylib.fenics", `fn add(a, b) -> Int:
    return a + b
lib mylib:
    - add
`)
	out := runMain(t, dir, `import mylib
print(mylib.add(2, 3))
`)
	if out != "5\n" {
		t.Fatalf("got %q", out)
	}
}

func Test_Import_Alias(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "mylib.fenics", `fn one():
    return 1
lib mylib:
    - one
`)
	out := runMain(t, dir, `import mylib as m
print(m.one())
`)
	if out != "1\n" {
		t.Fatalf("got %q", out)
	}
}

func Test_Import_SearchesLibsDir(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "libs/util.fenics", `fn twice(n):
    return n * 2
lib util:
    - twice
`)
	out := runMain(t, dir, `import util
print(util.twice(21))
`)
	if out != "42\n" {
		t.Fatalf("got %q", out)
	}
}

func Test_Import_ByPath(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "vendor/tools.fenics", `fn ping():
    return "pong"
lib tools:
    - ping
`)
	// Default extension is appended when the path has none.
	out := runMain(t, dir, `import "vendor/tools" as tools
print(tools.ping())
`)
	if out != "pong\n" {
		t.Fatalf("got %q", out)
	}
}

// Without a lib block, every top-level function is exported.
func Test_Import_NoLibExportsAllFunctions(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "bare.fenics", `fn a():
    return 1
fn b():
    return 2
`)
	out := runMain(t, dir, `import bare
print(bare.a() + bare.b())
print(len(bare))
`)
	if out != "3\n2\n" {
		t.Fatalf("got %q", out)
	}
}

// A module's functions close over the module environment, not the caller's.
func Test_Import_ClosesOverModuleEnv(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "counter.fenics", `n: 100
fn bump():
    n +: 1
    return n
lib counter:
    - bump
`)
	out := runMain(t, dir, `n: 1
import counter
print(counter.bump())
print(counter.bump())
print(n)
`)
	if out != "101\n102\n1\n" {
		t.Fatalf("got %q", out)
	}
}

// Private module bindings do not leak into the importer; an import adds
// exactly one binding.
func Test_Import_OneBindingNoLeak(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "m.fenics", `hidden: 123
fn get():
    return hidden
lib m:
    - get
`)
	out := runMainErr(t, dir, `import m
print(m.get())
print(hidden)
`)
	if !strings.Contains(out, "123") || !strings.Contains(out, "NameError") {
		t.Fatalf("got %q", out)
	}
}

// `global` declarations in a module land in the shared global frame.
func Test_Import_GlobalFrameShared(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "cfg.fenics", `global app_name: "demo"
fn noop():
    return null
lib cfg:
    - noop
`)
	out := runMain(t, dir, `import cfg
print(app_name)
`)
	if out != "demo\n" {
		t.Fatalf("got %q", out)
	}
}

func Test_Import_MissingModule(t *testing.T) {
	dir := t.TempDir()
	out := runMainErr(t, dir, `import nothere
`)
	if !strings.Contains(out, "ImportError") || !strings.Contains(out, "nothere") {
		t.Fatalf("got %q", out)
	}
}

func Test_Import_MissingExport(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "m.fenics", `x: 1
lib m:
    - ghost
`)
	out := runMainErr(t, dir, `import m
`)
	if !strings.Contains(out, "ImportError") || !strings.Contains(out, "ghost") {
		t.Fatalf("got %q", out)
	}
}

func Test_Import_ParseErrorSurfaces(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "bad.fenics", `fn broken(:
`)
	out := runMainErr(t, dir, `import bad
`)
	if !strings.Contains(out, "ParseError") || !strings.Contains(out, "bad") {
		t.Fatalf("got %q", out)
	}
}

func Test_Import_RuntimeErrorSurfaces(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "boom.fenics", `x: 1 / 0
`)
	out := runMainErr(t, dir, `import boom
`)
	if !strings.Contains(out, "division by zero") {
		t.Fatalf("got %q", out)
	}
}

// Imports are memoized: the module body runs once.
func Test_Import_Memoized(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "once.fenics", `print("loading")
fn f():
    return 1
lib once:
    - f
`)
	write(t, dir, "a.fenics", `import once
fn af():
    return once.f()
lib a:
    - af
`)
	out := runMain(t, dir, `import once
import a
print(a.af())
`)
	if out != "loading\n1\n" {
		t.Fatalf("got %q", out)
	}
}

// A cyclic import resolves to the partially populated module.
func Test_Import_CycleBreaks(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "alpha.fenics", `import beta
fn aval():
    return 1
lib alpha:
    - aval
`)
	write(t, dir, "beta.fenics", `fn bval():
    return 2
lib beta:
    - bval
`)
	out := runMain(t, dir, `import alpha
print(alpha.aval())
`)
	if out != "1\n" {
		t.Fatalf("got %q", out)
	}

	// True two-way cycle: beta sees alpha's in-progress module without
	// deadlocking or recursing forever.
	dir2 := t.TempDir()
	write(t, dir2, "alpha.fenics", `import beta
fn aval():
    return 10
lib alpha:
    - aval
`)
	write(t, dir2, "beta.fenics", `import alpha
fn bval():
    return 20
lib beta:
    - bval
`)
	out2 := runMain(t, dir2, `import alpha
import beta
print(alpha.aval() + beta.bval())
`)
	if out2 != "30\n" {
		t.Fatalf("got %q", out2)
	}
}

// Relative resolution uses the importing module's own directory.
func Test_Import_RelativeToImporter(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "sub/inner.fenics", `fn v():
    return 7
lib inner:
    - v
`)
	write(t, dir, "sub/outer.fenics", `import inner
fn get():
    return inner.v()
lib outer:
    - get
`)
	out := runMain(t, dir, `import "sub/outer" as outer
print(outer.get())
`)
	if out != "7\n" {
		t.Fatalf("got %q", out)
	}
}

// Extra search roots come from the fenics.yaml manifest.
func Test_Import_ManifestModulePaths(t *testing.T) {
	dir := t.TempDir()
	shared := t.TempDir()
	write(t, shared, "extra.fenics", `fn hello():
    return "from manifest root"
lib extra:
    - hello
`)
	write(t, dir, ManifestName, "module_paths:\n  - "+shared+"\n")

	main := write(t, dir, "main.fenics", `import extra
print(extra.hello())
`)
	m, err := LoadManifest(dir)
	if err != nil || m == nil {
		t.Fatalf("manifest: %v %v", m, err)
	}
	in := NewInterpreter()
	var out bytes.Buffer
	in.Stdout = &out
	in.Stderr = &out
	in.SetModulePaths(m.ModulePaths)
	if status := in.RunFile(main); status != 0 {
		t.Fatalf("run failed:\n%s", out.String())
	}
	if out.String() != "from manifest root\n" {
		t.Fatalf("got %q", out.String())
	}
}

func Test_Manifest_MissingIsNil(t *testing.T) {
	m, err := LoadManifest(t.TempDir())
	if m != nil || err != nil {
		t.Fatalf("got %v, %v", m, err)
	}
}

func Test_Manifest_RelativePathsResolved(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, ManifestName, "module_paths:\n  - vendor/fenics\n")
	m, err := LoadManifest(dir)
	if err != nil || m == nil {
		t.Fatalf("manifest: %v %v", m, err)
	}
	want := filepath.Join(dir, "vendor", "fenics")
	if len(m.ModulePaths) != 1 || m.ModulePaths[0] != want {
		t.Fatalf("got %v, want [%s]", m.ModulePaths, want)
	}
}
