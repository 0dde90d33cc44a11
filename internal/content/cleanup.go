package content

import (
	"regexp"
	"strings"
)

const bom = "\uFEFF"

var (
	// fenceRe matches markup wrapped whole in a Markdown code fence.
	fenceRe = regexp.MustCompile("(?s)^\\s*```[A-Za-z0-9_-]*[ \\t]*\\r?\\n(.*?)\\r?\\n?[ \\t]*```\\s*$")

	styleAttrRe = regexp.MustCompile(`(?i)(\s)style\s*=\s*("([^"]*)"|'([^']*)')`)
	boxSizingRe = regexp.MustCompile(`(?i)\s*(?:-webkit-|-moz-)?box-sizing\s*:\s*[a-z-]+\s*(?:;|$)`)
)

// stripFence removes a Markdown code fence around the whole input.
func stripFence(markup string, issues *issueLog) string {
	m := fenceRe.FindStringSubmatch(markup)
	if m == nil {
		return markup
	}
	issues.add(IssueFenceStripped, "")
	return m[1]
}

// stripBOM removes byte-order marks wherever the model emitted them.
func stripBOM(markup string, issues *issueLog) string {
	if !strings.Contains(markup, bom) {
		return markup
	}
	issues.add(IssueBOMStripped, "")
	return strings.ReplaceAll(markup, bom, "")
}

// stripBoxSizing removes box-sizing declarations from inline style attributes,
// dropping the attribute entirely when nothing else remains.
func stripBoxSizing(markup string, issues *issueLog) string {
	removed := 0
	out := styleAttrRe.ReplaceAllStringFunc(markup, func(attr string) string {
		m := styleAttrRe.FindStringSubmatch(attr)
		quote, value := `"`, m[3]
		if strings.HasPrefix(m[2], "'") {
			quote, value = "'", m[4]
		}
		if !boxSizingRe.MatchString(value) {
			return attr
		}
		removed++
		cleaned := strings.TrimSpace(boxSizingRe.ReplaceAllString(value, ""))
		if cleaned == "" {
			return ""
		}
		return m[1] + "style=" + quote + cleaned + quote
	})
	if removed > 0 {
		issues.add(IssueBoxSizingRemoved, "")
	}
	return out
}
