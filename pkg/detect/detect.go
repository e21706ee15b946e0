package detect

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// languageExtensions maps each supported language to its file extensions.
var languageExtensions = map[string][]string{
	"c":          {".c", ".h"},
	"cpp":        {".cpp", ".cc", ".cxx", ".hpp", ".hxx", ".h++"},
	"java":       {".java"},
	"python":     {".py"},
	"javascript": {".js", ".jsx", ".ts", ".tsx"},
}

// Languages walks the project tree and returns the set of detected source
// languages, sorted for deterministic logging.
func Languages(projectDir string) ([]string, error) {
	byExt := make(map[string]string)
	for lang, exts := range languageExtensions {
		for _, e := range exts {
			byExt[e] = lang
		}
	}

	found := make(map[string]bool)
	err := filepath.WalkDir(projectDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if lang, ok := byExt[strings.ToLower(filepath.Ext(path))]; ok {
			found[lang] = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	langs := make([]string, 0, len(found))
	for l := range found {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs, nil
}

// LanguageOf infers the language of a single file from its extension, or
// "unknown" when the extension is unmapped.
func LanguageOf(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	for lang, exts := range languageExtensions {
		for _, e := range exts {
			if e == ext {
				return lang
			}
		}
	}
	return "unknown"
}
