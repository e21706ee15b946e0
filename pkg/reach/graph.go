package reach

import (
	"bufio"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/user/sarif-cli/pkg/detect"
)

// function is one node of the call graph.
type function struct {
	Name      string
	File      string // slash-separated, relative to the project root
	StartLine int
	EndLine   int
	entry     bool
}

// callGraph is a textual approximation of the project's call structure. It is
// deliberately shallow: definitions and call sites are recognized by pattern,
// not by a real parser, which is enough to pick a prompt template.
type callGraph struct {
	functions []*function
	edges     map[*function][]*function
	byFile    map[string][]*function
}

var (
	cFuncDef      = regexp.MustCompile(`^[A-Za-z_][\w\s\*]*\s[\*]*([A-Za-z_]\w*)\s*\([^;]*\)\s*\{?\s*$`)
	pyFuncDef     = regexp.MustCompile(`^\s*def\s+([A-Za-z_]\w*)\s*\(`)
	jsFuncDef     = regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?function\s+([A-Za-z_$][\w$]*)\s*\(`)
	javaMethodDef = regexp.MustCompile(`^\s*(?:public|protected|private)\s+[\w<>\[\]]+\s+([A-Za-z_]\w*)\s*\([^;]*\)\s*\{?\s*$`)
	callSite      = regexp.MustCompile(`\b([A-Za-z_]\w*)\s*\(`)
)

// Keywords that look like call sites to the pattern above.
var notCalls = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "return": true,
	"sizeof": true, "catch": true, "def": true, "function": true, "new": true,
}

func buildCallGraph(ctx context.Context, projectDir string) (*callGraph, error) {
	g := &callGraph{
		edges:  make(map[*function][]*function),
		byFile: make(map[string][]*function),
	}

	err := filepath.WalkDir(projectDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		lang := detect.LanguageOf(path)
		if lang == "unknown" {
			return nil
		}
		rel, rerr := filepath.Rel(projectDir, path)
		if rerr != nil {
			rel = path
		}
		return g.scanFile(path, filepath.ToSlash(rel), lang)
	})
	if err != nil {
		return nil, err
	}

	g.linkCalls(projectDir)
	return g, nil
}

// scanFile records every function definition in the file. A function body is
// assumed to run until the next definition or EOF.
func (g *callGraph) scanFile(absPath, relPath, lang string) error {
	f, err := os.Open(absPath)
	if err != nil {
		return err
	}
	defer f.Close()

	var defs []*function
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		name := matchDefinition(scanner.Text(), lang)
		if name == "" {
			continue
		}
		fn := &function{Name: name, File: relPath, StartLine: lineNo}
		fn.entry = isEntryPoint(name, lang)
		if n := len(defs); n > 0 {
			defs[n-1].EndLine = lineNo - 1
		}
		defs = append(defs, fn)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if n := len(defs); n > 0 {
		defs[n-1].EndLine = lineNo
	}

	g.functions = append(g.functions, defs...)
	g.byFile[relPath] = defs
	return nil
}

func matchDefinition(line, lang string) string {
	var m []string
	switch lang {
	case "python":
		m = pyFuncDef.FindStringSubmatch(line)
	case "javascript":
		m = jsFuncDef.FindStringSubmatch(line)
	case "java":
		m = javaMethodDef.FindStringSubmatch(line)
	default: // c, cpp
		m = cFuncDef.FindStringSubmatch(line)
	}
	if m == nil {
		return ""
	}
	if notCalls[m[1]] {
		return ""
	}
	return m[1]
}

// isEntryPoint marks functions an attacker can drive directly: program mains
// and request/event handlers.
func isEntryPoint(name, lang string) bool {
	lower := strings.ToLower(name)
	if lower == "main" {
		return true
	}
	for _, prefix := range []string{"handle", "serve", "on_", "process_request", "do_get", "do_post"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// linkCalls connects callers to callees by re-reading each function body and
// matching identifiers against the known definition set.
func (g *callGraph) linkCalls(projectDir string) {
	byName := make(map[string][]*function)
	for _, fn := range g.functions {
		byName[fn.Name] = append(byName[fn.Name], fn)
	}

	for file, defs := range g.byFile {
		if len(defs) == 0 {
			continue
		}
		data, err := os.ReadFile(filepath.Join(projectDir, filepath.FromSlash(file)))
		if err != nil {
			continue
		}
		lines := strings.Split(string(data), "\n")
		for _, caller := range defs {
			end := caller.EndLine
			if end > len(lines) {
				end = len(lines)
			}
			for i := caller.StartLine; i < end; i++ {
				for _, m := range callSite.FindAllStringSubmatch(lines[i], -1) {
					callee := m[1]
					if notCalls[callee] || callee == caller.Name {
						continue
					}
					for _, target := range byName[callee] {
						g.edges[caller] = append(g.edges[caller], target)
					}
				}
			}
		}
	}
}

// enclosing returns the function whose body covers the given location.
func (g *callGraph) enclosing(file string, line int) *function {
	for _, fn := range g.byFile[file] {
		if line >= fn.StartLine && line <= fn.EndLine {
			return fn
		}
	}
	return nil
}

// pathFromEntry runs a BFS from each entry point toward the sink function and
// returns the first (shortest) call path found, or nil.
func (g *callGraph) pathFromEntry(ctx context.Context, sink *function) []*function {
	entries := make([]*function, 0)
	for _, fn := range g.functions {
		if fn.entry {
			entries = append(entries, fn)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].File != entries[j].File {
			return entries[i].File < entries[j].File
		}
		return entries[i].StartLine < entries[j].StartLine
	})

	for _, entry := range entries {
		if ctx.Err() != nil {
			return nil
		}
		if path := g.findPath(entry, sink); path != nil {
			return path
		}
	}
	return nil
}

func (g *callGraph) findPath(start, end *function) []*function {
	queue := [][]*function{{start}}
	visited := map[*function]bool{start: true}

	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]

		node := path[len(path)-1]
		if node == end {
			return path
		}

		for _, next := range g.edges[node] {
			if !visited[next] {
				visited[next] = true
				newPath := make([]*function, len(path), len(path)+1)
				copy(newPath, path)
				queue = append(queue, append(newPath, next))
			}
		}
	}
	return nil
}
