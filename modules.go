// modules.go — Fenics module system.
//
// OVERVIEW
// --------
// A Fenics module is an ordinary `.fenics` file. `import` resolves it,
// parses and evaluates it in a fresh environment seeded with the importer's
// global frame, and snapshots its `lib` export blocks into a Module value
// bound in the importer under the bare name or its `as` alias — exactly one
// binding per import.
//
// Resolution:
//   - By name (`import mylib`): searched relative to the importer's
//     directory, first hit wins:
//     <name>.fenics, libs/<name>.fenics, ../libs/<name>.fenics,
//     samples/<name>.fenics, ../samples/<name>.fenics,
//     then any extra roots contributed by a fenics.yaml manifest.
//   - By path (`import "dir/mod"`): resolved relative to the importer's
//     directory; ".fenics" is appended when the path has no extension.
//
// Export capture: every `lib` block lists function names that must resolve
// to Functions in the loaded environment (a missing export is a load-time
// error). A file with no `lib` block exports all of its top-level functions
// in declaration order.
//
// Cycles: loads are memoized by cleaned absolute path. Re-entering a load
// already in progress returns the partially populated Module, which breaks
// the cycle.
package fenics

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestName is the per-project manifest consulted for module search
// roots, read from the entry script's directory.
const ManifestName = "fenics.yaml"

// Manifest is the optional fenics.yaml project manifest.
type Manifest struct {
	ModulePaths []string `yaml:"module_paths"`
	Bridges     []string `yaml:"bridges"`
}

// LoadManifest reads dir/fenics.yaml. A missing manifest is not an error;
// (nil, nil) is returned.
func LoadManifest(dir string) (*Manifest, error) {
	b, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ManifestName, err)
	}
	for i, p := range m.ModulePaths {
		if !filepath.IsAbs(p) {
			m.ModulePaths[i] = filepath.Join(dir, p)
		}
	}
	return &m, nil
}

const moduleExt = ".fenics"

type moduleState int

const (
	modLoading moduleState = iota
	modLoaded
)

// moduleRec tracks cached module state by canonical path.
type moduleRec struct {
	state moduleState
	mod   *Module
}

// execImport runs an `import` statement: load (or reuse) the module and
// bind it in the current frame.
func (in *Interpreter) execImport(s *ImportStmt, env *Env) *control {
	importer := in.scriptPath
	if n := len(in.loadStack); n > 0 {
		importer = in.loadStack[n-1]
	}

	mv, err := in.loadModule(s.Ref, s.IsPath, importer)
	if err != nil {
		if re, ok := err.(*RuntimeError); ok {
			pos := s.Pos
			if re.Line > 0 {
				pos = Pos{Line: re.Line, Col: re.Col}
			}
			return in.throwKind(re.Kind, re.Msg, pos)
		}
		return in.throwKind(KindImport, err.Error(), s.Pos)
	}

	name := s.Alias
	if name == "" {
		name = mv.Data.(*Module).Name
	}
	return in.assignOrDeclare(name, mv, env, s.Pos)
}

// loadModule resolves, parses, evaluates and memoizes one module.
func (in *Interpreter) loadModule(ref string, isPath bool, importer string) (Value, error) {
	canon, err := in.resolveModule(ref, isPath, importer)
	if err != nil {
		return Null, err
	}

	if rec, ok := in.modules[canon]; ok {
		// A load in progress hands back the partially populated module to
		// break import cycles.
		return Value{Tag: VTModule, Data: rec.mod}, nil
	}

	src, rerr := os.ReadFile(canon)
	if rerr != nil {
		return Null, &RuntimeError{Kind: KindImport, Msg: "module not found: " + ref}
	}
	prog, perr := Parse(string(src))
	if perr != nil {
		return Null, &RuntimeError{Kind: KindParse, Msg: fmt.Sprintf("in %s: %v", displayName(canon), perr)}
	}

	mod := &Module{
		Name: displayName(canon),
		Path: canon,
		Map:  &MapObject{Entries: map[string]Value{}},
	}
	in.modules[canon] = &moduleRec{state: modLoading, mod: mod}

	modEnv := NewEnv(in.Global)
	modEnv.eph = map[string]Value{}
	modEnv.SealParentWrites()
	mod.Env = modEnv

	in.loadStack = append(in.loadStack, canon)
	c := in.execBlock(prog.Statements, modEnv)
	in.loadStack = in.loadStack[:len(in.loadStack)-1]

	if c != nil && c.kind == ctlThrow {
		delete(in.modules, canon) // failures are not cached
		re := runtimeErrorFromThrown(c.val)
		re.Msg = fmt.Sprintf("in %s: %s", displayName(canon), re.Msg)
		return Null, re
	}

	if err := captureExports(mod, prog, modEnv); err != nil {
		delete(in.modules, canon)
		return Null, err
	}
	in.modules[canon].state = modLoaded

	return Value{Tag: VTModule, Data: mod}, nil
}

// captureExports fills the module's export table from its lib blocks, or
// from every top-level function when the file declares no lib block.
func captureExports(mod *Module, prog *Program, modEnv *Env) error {
	sawLib := false
	for _, st := range prog.Statements {
		lib, ok := st.(*LibStmt)
		if !ok {
			continue
		}
		sawLib = true
		for _, name := range lib.Exports {
			v, ok := modEnv.Lookup(name)
			if !ok || v.Tag != VTFun {
				return &RuntimeError{
					Kind: KindImport,
					Msg:  fmt.Sprintf("in %s: export '%s' not found or not a function", mod.Name, name),
				}
			}
			mod.Map.Set(name, v)
		}
	}
	if sawLib {
		return nil
	}
	for _, st := range prog.Statements {
		if fn, ok := st.(*FnDecl); ok {
			if v, ok := modEnv.Lookup(fn.Name); ok && v.Tag == VTFun {
				mod.Map.Set(fn.Name, v)
			}
		}
	}
	return nil
}

// resolveModule returns the cleaned absolute path of the module file.
func (in *Interpreter) resolveModule(ref string, isPath bool, importer string) (string, error) {
	baseDir := "."
	if importer != "" {
		baseDir = filepath.Dir(importer)
	}

	if isPath {
		p := ref
		if filepath.Ext(p) == "" {
			p += moduleExt
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			abs, _ := filepath.Abs(p)
			return filepath.Clean(abs), nil
		}
		return "", &RuntimeError{Kind: KindImport, Msg: "module not found: " + ref}
	}

	rel := []string{
		ref + moduleExt,
		filepath.Join("libs", ref+moduleExt),
		filepath.Join("..", "libs", ref+moduleExt),
		filepath.Join("samples", ref+moduleExt),
		filepath.Join("..", "samples", ref+moduleExt),
	}
	for _, r := range rel {
		p := filepath.Join(baseDir, r)
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			abs, _ := filepath.Abs(p)
			return filepath.Clean(abs), nil
		}
	}
	for _, root := range in.modulePaths {
		p := filepath.Join(root, ref+moduleExt)
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			abs, _ := filepath.Abs(p)
			return filepath.Clean(abs), nil
		}
	}
	return "", &RuntimeError{
		Kind: KindImport,
		Msg:  fmt.Sprintf("module '%s' not found in search paths: ., libs/, ../libs/, samples/, ../samples/", ref),
	}
}

// displayName is the short module identity: base name without extension.
func displayName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
