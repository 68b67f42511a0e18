package assemble

import (
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Block is the rendered unit for one file: a header, the (possibly
// region-filtered) body and an optional diff report.
type Block struct {
	Path        string `yaml:"path"`
	Rel         string `yaml:"rel"`
	Tier        Tier   `yaml:"-"`
	Instruction bool   `yaml:"instruction"`
	HasDiff     bool   `yaml:"has_diff"`
	Text        string `yaml:"-"`
	Size        int    `yaml:"size"`
}

// fenceLanguages maps extensions to markdown fence info strings.
var fenceLanguages = map[string]string{
	".swift": "swift",
	".go":    "go",
	".ts":    "typescript",
	".tsx":   "tsx",
	".js":    "javascript",
	".jsx":   "jsx",
	".kt":    "kotlin",
	".java":  "java",
	".rs":    "rust",
	".c":     "c",
	".h":     "c",
	".cc":    "cpp",
	".cpp":   "cpp",
	".hpp":   "cpp",
	".m":     "objectivec",
	".mm":    "objectivec",
	".cs":    "csharp",
	".py":    "python",
	".rb":    "ruby",
	".php":   "php",
}

// FenceLanguage returns the fence info string for path.
func FenceLanguage(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := fenceLanguages[ext]; ok {
		return lang
	}
	return strings.TrimPrefix(ext, ".")
}

// renderBlock formats a block. diff is omitted when empty.
func renderBlock(rel, lang, body, diff, diffBranch string) string {
	var sb strings.Builder
	sb.WriteString("File: ")
	sb.WriteString(rel)
	sb.WriteString("\n```")
	sb.WriteString(lang)
	sb.WriteString("\n")
	sb.WriteString(withNewline(body))
	sb.WriteString("```\n")

	if diff != "" {
		sb.WriteString("\nDiff of ")
		sb.WriteString(rel)
		sb.WriteString(" against ")
		sb.WriteString(diffBranch)
		sb.WriteString(":\n```diff\n")
		sb.WriteString(withNewline(diff))
		sb.WriteString("```\n")
	}
	return sb.String()
}

func withNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// scrubMarkers removes every line containing marker. With keepFirst the
// first such line survives, so a file carries at most one live instruction.
func scrubMarkers(content, marker string, keepFirst bool) string {
	if marker == "" || !strings.Contains(content, marker) {
		return content
	}

	lines := strings.Split(content, "\n")
	out := lines[:0]
	kept := false
	for _, line := range lines {
		if strings.Contains(line, marker) {
			if keepFirst && !kept {
				kept = true
				out = append(out, line)
			}
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// charCount measures text in characters, not bytes.
func charCount(s string) int {
	return utf8.RuneCountInString(s)
}
