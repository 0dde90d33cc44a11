package content

import (
	"html"
	"regexp"
)

// ReferenceKind distinguishes where in the markup a video reference was found.
type ReferenceKind string

// Reference kinds.
const (
	KindIframeEmbed ReferenceKind = "iframe-embed"
	KindAnchorLink  ReferenceKind = "anchor-link"
)

// Reference is a video reference found in the markup. ExternalID is empty
// when the reference points at the video host but no identifier could be
// extracted from it.
type Reference struct {
	Kind       ReferenceKind
	Span       string
	ExternalID string
}

const watchPrefix = "https://www.youtube.com/watch?v="

// canonicalURL returns the watch-page URL for a video id.
func canonicalURL(id string) string {
	return watchPrefix + id
}

// idRule extracts a video id from one URL shape; the id is capture group 1.
type idRule struct {
	shape   string
	pattern *regexp.Regexp
}

const (
	urlPrefix = `(?i)^\s*(?:https?:)?(?://)?`
	idSuffix  = `([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`
)

// Ordered; the first rule that matches wins.
var idRules = []idRule{
	{shape: "embed", pattern: regexp.MustCompile(urlPrefix + `(?:www\.|m\.)?youtube\.com/embed/` + idSuffix)},
	{shape: "nocookie", pattern: regexp.MustCompile(urlPrefix + `(?:www\.)?youtube-nocookie\.com/embed/` + idSuffix)},
	{shape: "watch", pattern: regexp.MustCompile(urlPrefix + `(?:www\.|m\.)?youtube\.com/watch\?(?:[^#]*?[&;])?v=` + idSuffix)},
	{shape: "short-link", pattern: regexp.MustCompile(urlPrefix + `youtu\.be/` + idSuffix)},
	{shape: "shorts", pattern: regexp.MustCompile(urlPrefix + `(?:www\.|m\.)?youtube\.com/shorts/` + idSuffix)},
}

var (
	videoHostRe = regexp.MustCompile(`(?i)^\s*(?:https?:)?(?://)?(?:[a-z0-9-]+\.)*(?:youtube\.com|youtube-nocookie\.com|youtu\.be)(?:[/?#:]|$)`)

	iframeRe = regexp.MustCompile(`(?is)<iframe\b[^>]*?(?:/>|>.*?</iframe\s*>)`)
	anchorRe = regexp.MustCompile(`(?is)<a\b([^>]*)>(.*?)</a\s*>`)

	srcAttrRe  = regexp.MustCompile(`(?is)(^|\s)src\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'>]+))`)
	hrefAttrRe = regexp.MustCompile(`(?is)(^|\s)href\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'>]+))`)
)

// videoID extracts the video id from a URL. host reports whether the URL
// points at the video host at all.
func videoID(rawURL string) (id string, host bool) {
	u := html.UnescapeString(rawURL)
	if !videoHostRe.MatchString(u) {
		return "", false
	}
	for _, rule := range idRules {
		if m := rule.pattern.FindStringSubmatch(u); m != nil {
			return m[1], true
		}
	}
	return "", true
}

// attrValue returns the value of the first attribute matched by re in tag.
func attrValue(re *regexp.Regexp, tag string) (string, bool) {
	m := re.FindStringSubmatch(tag)
	if m == nil {
		return "", false
	}
	for _, v := range m[2:] {
		if v != "" {
			return v, true
		}
	}
	return "", true
}

// openingTag returns the markup up to and including the first '>'.
func openingTag(element string) string {
	for i := 0; i < len(element); i++ {
		if element[i] == '>' {
			return element[:i+1]
		}
	}
	return element
}

// scanReferences returns every video reference in document order.
func scanReferences(markup string) []Reference {
	var refs []Reference
	for _, span := range iframeRe.FindAllString(markup, -1) {
		src, ok := attrValue(srcAttrRe, openingTag(span))
		if !ok {
			continue
		}
		if id, host := videoID(src); host {
			refs = append(refs, Reference{Kind: KindIframeEmbed, Span: span, ExternalID: id})
		}
	}
	for _, m := range anchorRe.FindAllStringSubmatch(markup, -1) {
		href, ok := attrValue(hrefAttrRe, m[1])
		if !ok {
			continue
		}
		if id, host := videoID(href); host {
			refs = append(refs, Reference{Kind: KindAnchorLink, Span: m[0], ExternalID: id})
		}
	}
	return refs
}

// referenceIDs returns the distinct non-empty ids in first-seen order.
func referenceIDs(refs []Reference) []string {
	seen := make(map[string]struct{}, len(refs))
	var ids []string
	for _, r := range refs {
		if r.ExternalID == "" {
			continue
		}
		if _, ok := seen[r.ExternalID]; ok {
			continue
		}
		seen[r.ExternalID] = struct{}{}
		ids = append(ids, r.ExternalID)
	}
	return ids
}
