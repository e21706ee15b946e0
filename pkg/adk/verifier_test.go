package adk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/sarif-cli/pkg/engine"
	"github.com/user/sarif-cli/pkg/logging"
)

// fakeLLM serves an OpenAI-compatible chat endpoint whose verdict depends on
// the rule id found in the prompt.
func fakeLLM(t *testing.T, verdictFor func(prompt string) (string, int)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)

		verdict, status := verdictFor(req.Messages[1].Content)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": verdict}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func writeSource(t *testing.T, dir, name string, lines ...string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(strings.Join(lines, "\n")+"\n"), 0o644))
}

func testVuln(file, ruleID string, line int, category engine.Category) *engine.Vulnerability {
	return &engine.Vulnerability{
		ID:       engine.Fingerprint(file, line, line, category),
		Category: category,
		Primary: engine.Finding{
			Tool: "semgrep", RuleID: ruleID, RuleName: ruleID,
			File: file, Line: line, Severity: engine.SeverityError,
			Message: "reported by test",
		},
		StartLine: line,
		EndLine:   line,
		Verdict:   engine.VerdictUnverified,
	}
}

func TestVerifyAllWithoutLLMUsesRulePatches(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "main.c",
		"#include <string.h>",
		"void copy(char *dst, const char *src) {",
		"    strcpy(dst, src);",
		"}")

	v := NewVerifier(nil, dir, 2, time.Second, logging.Nop())
	vulns := []*engine.Vulnerability{
		testVuln("main.c", "CWE-120", 3, engine.CategoryMemorySafety),
	}
	v.VerifyAll(context.Background(), vulns)

	require.Equal(t, engine.VerdictConfirmed, vulns[0].Verdict)
	require.NotNil(t, vulns[0].Patch)
	assert.Equal(t, engine.PatchSourceRule, vulns[0].Patch.Source)
	assert.Contains(t, vulns[0].Patch.PatchedLine, "strncpy")
	assert.Equal(t, "    strcpy(dst, src);", vulns[0].Patch.OriginalLine)
}

func TestVerifyAllConfirmsWithLLMPatch(t *testing.T) {
	srv := fakeLLM(t, func(prompt string) (string, int) {
		return `{"is_valid": true, "confidence": 0.92, "patch_code": "    strncpy(dst, src, dst_len);", "explanation": "bounded copy"}`, http.StatusOK
	})
	defer srv.Close()

	dir := t.TempDir()
	writeSource(t, dir, "main.c", "void f() {", "    strcpy(dst, src);", "}")

	provider := NewOpenAIProvider("", "test-model", srv.URL)
	v := NewVerifier(provider, dir, 2, time.Second, logging.Nop())
	vulns := []*engine.Vulnerability{
		testVuln("main.c", "CWE-120", 2, engine.CategoryMemorySafety),
	}
	v.VerifyAll(context.Background(), vulns)

	require.Equal(t, engine.VerdictConfirmed, vulns[0].Verdict)
	require.NotNil(t, vulns[0].Patch)
	assert.Equal(t, engine.PatchSourceLLM, vulns[0].Patch.Source)
	assert.Equal(t, 0.92, vulns[0].Patch.Confidence)
	assert.Equal(t, "    strncpy(dst, src, dst_len);", vulns[0].Patch.PatchedLine)
}

func TestVerifyAllRejectsFalsePositive(t *testing.T) {
	srv := fakeLLM(t, func(prompt string) (string, int) {
		return `{"is_valid": false, "confidence": 0.85, "patch_code": "", "explanation": "input is constant"}`, http.StatusOK
	})
	defer srv.Close()

	dir := t.TempDir()
	writeSource(t, dir, "app.py", "query = 'SELECT 1'")

	provider := NewOpenAIProvider("", "test-model", srv.URL)
	v := NewVerifier(provider, dir, 2, time.Second, logging.Nop())
	vulns := []*engine.Vulnerability{
		testVuln("app.py", "B608", 1, engine.CategoryInjection),
	}
	v.VerifyAll(context.Background(), vulns)

	assert.Equal(t, engine.VerdictRejected, vulns[0].Verdict)
	assert.Nil(t, vulns[0].Patch)
}

func TestVerifyAllIsolatesFailures(t *testing.T) {
	// The LLM errors on one vulnerability and answers the other. The failed
	// one must fall back to a rule patch; the sibling must keep its LLM patch.
	srv := fakeLLM(t, func(prompt string) (string, int) {
		if strings.Contains(prompt, "CWE-120") {
			return "", http.StatusInternalServerError
		}
		return `{"is_valid": true, "confidence": 0.7, "patch_code": "cursor.execute(query, params)", "explanation": "parameterized"}`, http.StatusOK
	})
	defer srv.Close()

	dir := t.TempDir()
	writeSource(t, dir, "main.c", "strcpy(dst, src);")
	writeSource(t, dir, "app.py", "cursor.execute(query)")

	provider := NewOpenAIProvider("", "test-model", srv.URL)
	v := NewVerifier(provider, dir, 2, time.Second, logging.Nop())
	vulns := []*engine.Vulnerability{
		testVuln("main.c", "CWE-120", 1, engine.CategoryMemorySafety),
		testVuln("app.py", "B608", 1, engine.CategoryInjection),
	}
	v.VerifyAll(context.Background(), vulns)

	require.Equal(t, engine.VerdictConfirmed, vulns[0].Verdict)
	assert.Equal(t, engine.PatchSourceRule, vulns[0].Patch.Source)

	require.Equal(t, engine.VerdictConfirmed, vulns[1].Verdict)
	assert.Equal(t, engine.PatchSourceLLM, vulns[1].Patch.Source)
}

func TestVerifyAllFallsBackOnConfirmWithoutPatch(t *testing.T) {
	srv := fakeLLM(t, func(prompt string) (string, int) {
		return `{"is_valid": true, "confidence": 0.9, "patch_code": "", "explanation": "looks bad"}`, http.StatusOK
	})
	defer srv.Close()

	dir := t.TempDir()
	writeSource(t, dir, "main.c", "gets(buf);")

	provider := NewOpenAIProvider("", "test-model", srv.URL)
	v := NewVerifier(provider, dir, 1, time.Second, logging.Nop())
	vulns := []*engine.Vulnerability{
		testVuln("main.c", "insecure-gets", 1, engine.CategoryMemorySafety),
	}
	v.VerifyAll(context.Background(), vulns)

	require.Equal(t, engine.VerdictConfirmed, vulns[0].Verdict)
	require.NotNil(t, vulns[0].Patch)
	assert.Equal(t, engine.PatchSourceRule, vulns[0].Patch.Source)
}

func TestVerifyAllLeavesUnreadableSourceUnverified(t *testing.T) {
	dir := t.TempDir()

	v := NewVerifier(nil, dir, 1, time.Second, logging.Nop())
	vulns := []*engine.Vulnerability{
		testVuln("missing.c", "CWE-120", 1, engine.CategoryMemorySafety),
	}
	v.VerifyAll(context.Background(), vulns)

	assert.Equal(t, engine.VerdictUnverified, vulns[0].Verdict)
	assert.Nil(t, vulns[0].Patch)
}

func TestVerifyAllEveryVulnerabilityResolved(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 8; i++ {
		writeSource(t, dir, fmt.Sprintf("f%d.c", i), "strcpy(dst, src);")
	}

	v := NewVerifier(nil, dir, 3, time.Second, logging.Nop())
	var vulns []*engine.Vulnerability
	for i := 0; i < 8; i++ {
		vulns = append(vulns, testVuln(fmt.Sprintf("f%d.c", i), "CWE-120", 1, engine.CategoryMemorySafety))
	}
	v.VerifyAll(context.Background(), vulns)

	for _, vuln := range vulns {
		assert.Equal(t, engine.VerdictConfirmed, vuln.Verdict)
		require.NotNil(t, vuln.Patch)
		assert.NotEmpty(t, vuln.Patch.PatchedLine)
	}
}
