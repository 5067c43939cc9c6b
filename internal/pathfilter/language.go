package pathfilter

import (
	"path"
	"strings"
)

// Unknown is returned by Language for unrecognized files.
const Unknown = "unknown"

// extensionToLanguage maps file extensions to language names.
var extensionToLanguage = map[string]string{
	".go":       "Go",
	".py":       "Python",
	".pyi":      "Python",
	".ts":       "TypeScript",
	".tsx":      "TypeScript",
	".mts":      "TypeScript",
	".js":       "JavaScript",
	".jsx":      "JavaScript",
	".mjs":      "JavaScript",
	".cjs":      "JavaScript",
	".java":     "Java",
	".rs":       "Rust",
	".c":        "C",
	".h":        "C",
	".cpp":      "C++",
	".cc":       "C++",
	".hpp":      "C++",
	".cs":       "C#",
	".rb":       "Ruby",
	".php":      "PHP",
	".swift":    "Swift",
	".kt":       "Kotlin",
	".scala":    "Scala",
	".sh":       "Shell",
	".bash":     "Shell",
	".sql":      "SQL",
	".html":     "HTML",
	".css":      "CSS",
	".scss":     "CSS",
	".yaml":     "YAML",
	".yml":      "YAML",
	".json":     "JSON",
	".toml":     "TOML",
	".tf":       "Terraform",
	".md":       "Markdown",
	".markdown": "Markdown",
	".mdx":      "Markdown",
	".proto":    "Protobuf",
	".lua":      "Lua",
	".dart":     "Dart",
	".ex":       "Elixir",
	".hs":       "Haskell",
	".vue":      "Vue",
	".svelte":   "Svelte",
	".txt":      "Text",
}

// filenameToLanguage maps specific filenames to language names.
var filenameToLanguage = map[string]string{
	"Dockerfile":  "Dockerfile",
	"Makefile":    "Makefile",
	"Jenkinsfile": "Groovy",
	"Gemfile":     "Ruby",
	"Rakefile":    "Ruby",
	"go.mod":      "Go Module",
	"LICENSE":     "Text",
}

// Language returns the language of a repository file based on its exact
// name or extension.
func Language(filePath string) string {
	base := path.Base(normalize(filePath))
	if lang, ok := filenameToLanguage[base]; ok {
		return lang
	}
	ext := strings.ToLower(path.Ext(base))
	if lang, ok := extensionToLanguage[ext]; ok {
		return lang
	}
	return Unknown
}

// IsMarkdown reports whether filePath holds Markdown.
func IsMarkdown(filePath string) bool {
	return Language(filePath) == "Markdown"
}
