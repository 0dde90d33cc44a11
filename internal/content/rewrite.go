package content

import (
	"fmt"
	"html"
)

const videoLinkFormat = `<p class="video-link"><a href="%s" target="_blank" rel="noopener noreferrer">%s</a></p>`

// rewriteReferences replaces video embeds with plain links and canonicalizes
// or unwraps video anchors. Markup that does not reference the video host is
// left untouched.
func rewriteReferences(markup string, outcome Outcome, label string, issues *issueLog) string {
	markup = iframeRe.ReplaceAllStringFunc(markup, func(span string) string {
		src, ok := attrValue(srcAttrRe, openingTag(span))
		if !ok {
			return span
		}
		id, host := videoID(src)
		if !host {
			return span
		}
		if id == "" || !outcome.IsValid(id) {
			issues.add(IssueEmbedRemoved, id)
			return ""
		}
		issues.add(IssueEmbedConverted, id)
		return fmt.Sprintf(videoLinkFormat, canonicalURL(id), html.EscapeString(label))
	})

	return anchorRe.ReplaceAllStringFunc(markup, func(span string) string {
		m := anchorRe.FindStringSubmatch(span)
		attrs, inner := m[1], m[2]
		href, ok := attrValue(hrefAttrRe, attrs)
		if !ok {
			return span
		}
		id, host := videoID(href)
		if !host {
			return span
		}
		if id == "" || !outcome.IsValid(id) {
			issues.add(IssueAnchorUnwrapped, id)
			return inner
		}
		canonical := canonicalURL(id)
		if href == canonical {
			return span
		}
		issues.add(IssueAnchorRewritten, id)
		rewritten := hrefAttrRe.ReplaceAllStringFunc(attrs, func(attr string) string {
			lead := hrefAttrRe.FindStringSubmatch(attr)[1]
			return lead + `href="` + canonical + `"`
		})
		return "<a" + rewritten + ">" + inner + "</a>"
	})
}
