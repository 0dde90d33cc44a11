package content

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Elements the constrained renderer cannot handle or that can execute code.
const unsafeElements = "script, style, iframe, object, embed, video, audio, canvas, svg, form, input, button, select, textarea, link, meta"

var globalAttrs = map[string]bool{
	"lang":  true,
	"dir":   true,
	"title": true,
	"class": true,
}

var elementAttrs = map[string]map[string]bool{
	"a":        {"href": true, "target": true, "rel": true},
	"img":      {"src": true, "alt": true, "width": true, "height": true},
	"td":       {"colspan": true, "rowspan": true},
	"th":       {"colspan": true, "rowspan": true, "scope": true},
	"ol":       {"start": true, "type": true},
	"li":       {"value": true},
	"col":      {"span": true},
	"colgroup": {"span": true},
}

var allowedClasses = map[string]bool{
	"video-link":  true,
	"question":    true,
	"answer":      true,
	"answer-line": true,
	"note":        true,
	"tip":         true,
	"callout":     true,
	"vocab":       true,
}

// sanitize reduces the selection's descendants to the safe dialect and
// returns how many elements and attributes were removed.
func sanitize(root *goquery.Selection) int {
	unsafe := root.Find(unsafeElements)
	removed := unsafe.Length()
	unsafe.Remove()

	root.Find("*").Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		kept := n.Attr[:0]
		for _, a := range n.Attr {
			if v, ok := allowAttr(n.Data, a); ok {
				if v != a.Val {
					removed++
					a.Val = v
				}
				kept = append(kept, a)
				continue
			}
			removed++
		}
		n.Attr = kept
	})
	return removed
}

// allowAttr decides whether an attribute survives and returns its value,
// possibly reduced.
func allowAttr(element string, a html.Attribute) (string, bool) {
	key := strings.ToLower(a.Key)
	if a.Namespace != "" || strings.HasPrefix(key, "on") {
		return "", false
	}
	if !globalAttrs[key] && !elementAttrs[element][key] {
		return "", false
	}
	switch key {
	case "class":
		var classes []string
		for _, c := range strings.Fields(a.Val) {
			if allowedClasses[c] {
				classes = append(classes, c)
			}
		}
		if len(classes) == 0 {
			return "", false
		}
		return strings.Join(classes, " "), true
	case "href", "src":
		if scriptURL(a.Val) {
			return "", false
		}
	}
	return a.Val, true
}

// scriptURL reports whether a URL uses a script scheme, ignoring the
// whitespace and control characters browsers skip.
func scriptURL(v string) bool {
	var b strings.Builder
	for _, r := range v {
		if r <= ' ' {
			continue
		}
		b.WriteRune(r)
	}
	s := strings.ToLower(b.String())
	return strings.HasPrefix(s, "javascript:") || strings.HasPrefix(s, "vbscript:")
}
