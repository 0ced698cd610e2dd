package analyzer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_DetectLanguage_ByExtension(t *testing.T) {
	require.Equal(t, langJavaScript, detectLanguage("app.js", ""))
	require.Equal(t, langJavaScript, detectLanguage("App.JSX", ""))
	require.Equal(t, langTypeScript, detectLanguage("server.ts", ""))
	require.Equal(t, langPython, detectLanguage("tool.py", ""))
	require.Equal(t, langJava, detectLanguage("Main.java", ""))
	require.Equal(t, langGo, detectLanguage("main.go", ""))
}

func Test_DetectLanguage_ContentSniff(t *testing.T) {
	java := "public class Billing {\n  private int total;\n}"
	require.Equal(t, langJava, detectLanguage("snippet.txt", java))

	python := "import requests\n\ndef fetch(url):\n    return requests.get(url)\n"
	require.Equal(t, langPython, detectLanguage("snippet", python))
}

func Test_DetectLanguage_DefaultsToJavaScript(t *testing.T) {
	require.Equal(t, langJavaScript, detectLanguage("mystery.dat", "??"))
}

func Test_IsJSLike(t *testing.T) {
	require.True(t, isJSLike(langJavaScript))
	require.True(t, isJSLike(langTypeScript))
	require.False(t, isJSLike(langPython))
	require.False(t, isJSLike(langJava))
}
