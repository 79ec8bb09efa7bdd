package review

import (
	"path/filepath"
	"strings"
)

// languageAliases maps editor language identifiers to the names the analysis
// service expects. Identifiers without an entry pass through unchanged.
var languageAliases = map[string]string{
	"javascriptreact": "javascript",
	"typescriptreact": "typescript",
	"golang":          "go",
	"c++":             "cpp",
	"c#":              "csharp",
	"py":              "python",
	"rb":              "ruby",
}

func NormalizeLanguage(id string) string {
	lowered := strings.ToLower(strings.TrimSpace(id))
	if mapped, ok := languageAliases[lowered]; ok {
		return mapped
	}
	if lowered != "" {
		return lowered
	}
	return id
}

// stagedExtensions is the allow-list for staged-change review, matching the
// languages the analysis service reports from /api/languages.
var stagedExtensions = map[string]string{
	".py":   "python",
	".js":   "javascript",
	".jsx":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".java": "java",
	".cs":   "csharp",
	".cpp":  "cpp",
	".cc":   "cpp",
	".cxx":  "cpp",
	".h":    "cpp",
	".go":   "go",
	".rs":   "rust",
	".php":  "php",
	".rb":   "ruby",
}

// LanguageForPath resolves the review language for a path by extension.
// The second return is false for paths outside the staged allow-list.
func LanguageForPath(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	language, ok := stagedExtensions[ext]
	return language, ok
}
