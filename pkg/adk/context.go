package adk

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// contextLines is how many lines around the flagged line go into the prompt.
const contextLines = 5

// ReadContext loads the code surrounding one source line. The flagged line is
// marked with ">>> " so the model can find it; the exact original line is
// returned separately for patch construction.
func ReadContext(projectDir, file string, line int) (code string, originalLine string, err error) {
	path := filepath.Join(projectDir, filepath.FromSlash(file))
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("read source %s: %w", file, err)
	}

	lines := strings.Split(string(data), "\n")
	if line < 1 || line > len(lines) {
		return "", "", fmt.Errorf("line %d out of range for %s (%d lines)", line, file, len(lines))
	}
	originalLine = lines[line-1]

	start := line - contextLines - 1
	if start < 0 {
		start = 0
	}
	end := line + contextLines
	if end > len(lines) {
		end = len(lines)
	}

	var sb strings.Builder
	for i := start; i < end; i++ {
		prefix := "    "
		if i == line-1 {
			prefix = ">>> "
		}
		fmt.Fprintf(&sb, "%s%4d | %s\n", prefix, i+1, lines[i])
	}
	return sb.String(), originalLine, nil
}
