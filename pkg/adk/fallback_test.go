package adk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/user/sarif-cli/pkg/engine"
)

func TestFallbackSubstitution(t *testing.T) {
	table := NewFallbackTable()

	p := table.Generate(engine.CategoryMemorySafety, "CWE-120", "    strcpy(dst, src);")
	assert.Contains(t, p.PatchedLine, "strncpy(dst, src);")
	assert.Contains(t, p.PatchedLine, "// TODO:")
	assert.Equal(t, engine.PatchSourceRule, p.Source)
	assert.Equal(t, 0.5, p.Confidence)

	p = table.Generate(engine.CategoryMemorySafety, "insecure-gets", "gets(buf);")
	assert.Contains(t, p.PatchedLine, "fgets(buf);")
}

func TestFallbackAdvisoryWhenNoCallMatches(t *testing.T) {
	table := NewFallbackTable()

	p := table.Generate(engine.CategoryInjection, "B608", `query = "SELECT * FROM t WHERE id=" + id`)
	assert.Contains(t, p.PatchedLine, "parameterized queries")
	assert.Equal(t, `query = "SELECT * FROM t WHERE id=" + id`, p.OriginalLine)

	p = table.Generate(engine.CategoryNullDeref, "CWE-476", "int x = *ptr;")
	assert.Contains(t, p.PatchedLine, "null check")
}

func TestFallbackUnmappedCategory(t *testing.T) {
	table := NewFallbackTable()

	p := table.Generate(engine.CategoryOther, "java/S1000", "doSomething();")
	assert.Equal(t, "doSomething();  // TODO: Manual review required for java/S1000", p.PatchedLine)
	assert.Equal(t, engine.PatchSourceRule, p.Source)
}

func TestFallbackDoesNotSubstituteSimilarNames(t *testing.T) {
	table := NewFallbackTable()

	// "gets" appears only as part of "widgets", not as a call.
	p := table.Generate(engine.CategoryMemorySafety, "CWE-120", "render_widgets = true;")
	assert.NotContains(t, p.PatchedLine, "fgets")
	assert.Contains(t, p.PatchedLine, "buffer bounds")

	// A call to a longer identifier that merely ends in "gets".
	p = table.Generate(engine.CategoryMemorySafety, "CWE-120", "draw_widgets(buf);")
	assert.Equal(t, "draw_widgets(buf);  // review buffer bounds before this operation", p.PatchedLine)
	assert.NotContains(t, p.PatchedLine, "fgets")

	// A real call later on the same line still gets patched.
	p = table.Generate(engine.CategoryMemorySafety, "CWE-120", "draw_widgets(buf); gets(buf);")
	assert.Contains(t, p.PatchedLine, "draw_widgets(buf); fgets(buf);")
	assert.NotContains(t, p.PatchedLine, "widfgets")
}
