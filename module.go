package fastc

import (
	"path/filepath"
	"sort"
)

// Loader abstracts the filesystem so module resolution can be driven by
// a real directory tree or, in tests, an in-memory fixture — the same
// seam the teacher draws between ImportLoader and RelativeImportLoader
// in its grammar-import resolution.
type Loader interface {
	// Load returns the source bytes for the module named by path (the
	// `::`-separated segments of a `use` declaration), and the canonical
	// name to report it under in diagnostics.
	Load(path []string) (src []byte, canonicalName string, err error)
}

// FileLoader resolves `use a::b::c` against c.fc in the directory
// a/b relative to Root, mirroring RelativeImportLoader's path-joining
// but with FastC's `::` separator instead of filesystem-style imports.
type FileLoader struct {
	Root string
}

func (l FileLoader) Load(path []string) ([]byte, string, error) {
	segs := append([]string{l.Root}, path...)
	name := filepath.Join(segs...) + ".fc"
	return readFileFunc(name)
}

// readFileFunc is a package-level indirection so tests can substitute a
// fixture reader without touching the real filesystem.
var readFileFunc = defaultReadFile

// moduleUnit is one resolved source file plus the parsed declarations
// it contributed, keyed by its canonical module path.
type moduleUnit struct {
	Path string
	File *File
}

// ModuleGraph resolves `use` declarations into a flattened, cycle-free
// compilation order. It is the load-bearing piece of the teacher's
// import-loader idiom (ImportLoader/ImportResolver) adapted to
// FastC's single-namespace `mod`/`use` model: unlike the teacher's
// grammars, which import rule definitions into a shared namespace
// wholesale, FastC's `use` only establishes compilation order and
// visibility — name resolution of the merged items happens later, in
// the resolver.
type ModuleGraph struct {
	loader  Loader
	bag     *DiagnosticBag
	units   map[string]*moduleUnit
	visited map[string]int // 0=unvisited 1=in-progress 2=done, for cycle detection
	order   []string
}

func NewModuleGraph(loader Loader, bag *DiagnosticBag) *ModuleGraph {
	return &ModuleGraph{
		loader:  loader,
		bag:     bag,
		units:   make(map[string]*moduleUnit),
		visited: make(map[string]int),
	}
}

// Resolve parses rootSrc as the entry file under rootName and follows
// every `use` declaration it (transitively) contains, reporting
// parse-import-cycle and parse-import-not-found diagnostics into the
// bag. It returns the merged item list in dependency order: a module's
// declarations always precede those of any module that uses it, so the
// resolver can process items in a single forward pass.
func (g *ModuleGraph) Resolve(rootName string, rootSrc []byte) []Item {
	root := g.parseUnit(rootName, rootSrc)
	g.units[rootName] = root
	g.visit(rootName)

	var items []Item
	for _, path := range g.order {
		if u := g.units[path]; u != nil {
			items = append(items, u.File.Items...)
		}
	}
	return items
}

func (g *ModuleGraph) parseUnit(name string, src []byte) *moduleUnit {
	lexBag := &DiagnosticBag{}
	lx := NewLexer(src, lexBag)
	toks := lx.Tokenize()
	p := NewParser(src, toks, lexBag)
	file := p.ParseFile()
	g.bag.merge(lexBag)
	return &moduleUnit{Path: name, File: file}
}

func (g *ModuleGraph) visit(path string) {
	switch g.visited[path] {
	case 2:
		return
	case 1:
		g.bag.Errorf("parse-import-cycle", Span{}, "module %q participates in an import cycle", path)
		return
	}
	g.visited[path] = 1

	unit := g.units[path]
	if unit == nil {
		return
	}
	// Deterministic traversal: sort dependency paths so diagnostic and
	// merge order never depends on map iteration.
	var deps []string
	for _, item := range unit.File.Items {
		use, ok := item.(*UseDecl)
		if !ok {
			continue
		}
		deps = append(deps, joinPath(use.Path))
	}
	sort.Strings(deps)

	for _, depName := range deps {
		depPath := splitPath(depName)
		if _, ok := g.units[depName]; !ok {
			src, canonical, err := g.loader.Load(depPath)
			if err != nil {
				g.bag.Errorf("parse-import-not-found", unit.File.Span(), "cannot resolve module %q: %v", depName, err)
				continue
			}
			g.units[depName] = g.parseUnit(canonical, src)
		}
		g.visit(depName)
	}

	g.visited[path] = 2
	g.order = append(g.order, path)
}

func splitPath(joined string) []string {
	var out []string
	cur := ""
	for i := 0; i < len(joined); i++ {
		if i+1 < len(joined) && joined[i] == ':' && joined[i+1] == ':' {
			out = append(out, cur)
			cur = ""
			i++
			continue
		}
		cur += string(joined[i])
	}
	out = append(out, cur)
	return out
}
