package analyzer

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Language labels used to route detector stages.
const (
	langJavaScript = "javascript"
	langTypeScript = "typescript"
	langPython     = "python"
	langJava       = "java"
	langGo         = "go"
	langRuby       = "ruby"
	langPHP        = "php"
	langCSharp     = "csharp"
	langCPP        = "cpp"
)

var extLanguages = map[string]string{
	".js":   langJavaScript,
	".jsx":  langJavaScript,
	".ts":   langTypeScript,
	".tsx":  langTypeScript,
	".py":   langPython,
	".java": langJava,
	".go":   langGo,
	".rb":   langRuby,
	".php":  langPHP,
	".cs":   langCSharp,
	".c":    langCPP,
	".cpp":  langCPP,
	".h":    langCPP,
}

var (
	javaSignature   = regexp.MustCompile(`(?m)^\s*(public|private|protected)?\s*(final\s+)?class\s+\w+`)
	pythonSignature = regexp.MustCompile(`(?m)^\s*(import\s+\w+|from\s+\w+\s+import|def\s+\w+\s*\()`)
)

// detectLanguage maps the file extension to a language, falls back to a
// content sniff, and defaults to javascript.
func detectLanguage(fileName, content string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if lang, ok := extLanguages[ext]; ok {
		return lang
	}
	if javaSignature.MatchString(content) {
		return langJava
	}
	if pythonSignature.MatchString(content) {
		return langPython
	}
	return langJavaScript
}

func isJSLike(lang string) bool {
	return lang == langJavaScript || lang == langTypeScript
}
