package reach

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/sarif-cli/pkg/engine"
	"github.com/user/sarif-cli/pkg/logging"
)

const cProgram = `#include <string.h>
void copy_input(char *dst, char *src) {
    strcpy(dst, src);
}

void helper_unused(char *p) {
    gets(p);
}

int main(int argc, char **argv) {
    char buf[16];
    copy_input(buf, argv[1]);
    return 0;
}
`

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.c"), []byte(cProgram), 0o644))
	return dir
}

func vulnAt(file string, line int) *engine.Vulnerability {
	return &engine.Vulnerability{
		ID:      engine.Fingerprint(file, line, line, engine.CategoryMemorySafety),
		Primary: engine.Finding{Tool: "semgrep", RuleID: "CWE-120", File: file, Line: line},
		Verdict: engine.VerdictUnverified,
	}
}

func TestAnalyzeReachableSink(t *testing.T) {
	dir := writeProject(t)
	a := NewAnalyzer(dir, time.Minute, logging.Nop())

	r := a.Analyze(context.Background(), vulnAt("main.c", 3))
	require.Equal(t, engine.ReachReachable, r.State)
	require.NotEmpty(t, r.Path)
	assert.Equal(t, "main", r.Path[0].Symbol)
	assert.Equal(t, "copy_input", r.Path[1].Symbol)
	// Last step is the sink location itself.
	assert.Equal(t, 3, r.Path[len(r.Path)-1].Line)
}

func TestAnalyzeUnreachableSink(t *testing.T) {
	dir := writeProject(t)
	a := NewAnalyzer(dir, time.Minute, logging.Nop())

	r := a.Analyze(context.Background(), vulnAt("main.c", 7))
	assert.Equal(t, engine.ReachUnreachable, r.State)
	assert.Empty(t, r.Path)
}

func TestAnalyzeGlobalScopeIsUnknown(t *testing.T) {
	dir := writeProject(t)
	a := NewAnalyzer(dir, time.Minute, logging.Nop())

	r := a.Analyze(context.Background(), vulnAt("main.c", 1))
	assert.Equal(t, engine.ReachUnknown, r.State)
}

func TestAnalyzeUnknownFileIsUnknown(t *testing.T) {
	dir := writeProject(t)
	a := NewAnalyzer(dir, time.Minute, logging.Nop())

	r := a.Analyze(context.Background(), vulnAt("missing.c", 3))
	assert.Equal(t, engine.ReachUnknown, r.State)
}

func TestEntryPointRecognition(t *testing.T) {
	assert.True(t, isEntryPoint("main", "c"))
	assert.True(t, isEntryPoint("handle_request", "python"))
	assert.True(t, isEntryPoint("serveHTTP", "javascript"))
	assert.True(t, isEntryPoint("do_GET", "python"))
	assert.False(t, isEntryPoint("copy_input", "c"))
	assert.False(t, isEntryPoint("internal_helper", "java"))
}

func TestPythonHandlerEntry(t *testing.T) {
	dir := t.TempDir()
	src := `def sanitize(value):
    return value

def run_query(cursor, value):
    cursor.execute("SELECT * FROM t WHERE v = '%s'" % value)

def handle_request(cursor, raw):
    run_query(cursor, sanitize(raw))
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.py"), []byte(src), 0o644))

	a := NewAnalyzer(dir, time.Minute, logging.Nop())
	r := a.Analyze(context.Background(), vulnAt("app.py", 5))
	require.Equal(t, engine.ReachReachable, r.State)
	assert.Equal(t, "handle_request", r.Path[0].Symbol)
}
