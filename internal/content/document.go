package content

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	htmlTagRe = regexp.MustCompile(`(?i)<html[\s/>]`)
	bodyTagRe = regexp.MustCompile(`(?i)<body[\s/>]`)
)

// hasDocumentRoot reports whether markup already carries both an html root
// and a body. A bare body or html element does not count.
func hasDocumentRoot(markup string) bool {
	return htmlTagRe.MatchString(markup) && bodyTagRe.MatchString(markup)
}

func parseDocument(markup string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	return doc, nil
}

// bodyInner renders the children of the document body, trimmed.
func bodyInner(doc *goquery.Document) (string, error) {
	inner, err := doc.Find("body").First().Html()
	if err != nil {
		return "", fmt.Errorf("render body: %w", err)
	}
	return strings.TrimSpace(inner), nil
}

// firstHeading returns the whitespace-collapsed text of the first h1.
func firstHeading(doc *goquery.Document) string {
	return strings.Join(strings.Fields(doc.Find("h1").First().Text()), " ")
}

var defaultTitles = map[DocKind]string{
	DocPlain:     "Document",
	DocWorksheet: "Worksheet",
	DocLesson:    "Lesson",
}

func documentTitle(doc *goquery.Document, kind DocKind) string {
	if title := firstHeading(doc); title != "" {
		return title
	}
	if title, ok := defaultTitles[kind]; ok {
		return title
	}
	return defaultTitles[DocPlain]
}

var shellTemplate = template.Must(template.New("shell").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}" dir="{{.Dir}}">
<head>
<meta charset="utf-8">
{{- if .Viewport}}
<meta name="viewport" content="width=device-width, initial-scale=1">
{{- end}}
<title>{{.Title}}</title>
<style>{{.CSS}}</style>
</head>
<body{{if .BodyClass}} class="{{.BodyClass}}"{{end}}>
{{.Body}}
</body>
</html>
`))

type shell struct {
	Lang      string
	Dir       string
	Title     string
	CSS       template.CSS
	BodyClass string
	Viewport  bool
	Body      template.HTML
}

func (s shell) render() (string, error) {
	var buf bytes.Buffer
	if err := shellTemplate.Execute(&buf, s); err != nil {
		return "", fmt.Errorf("render document shell: %w", err)
	}
	return buf.String(), nil
}

const baseCSS = `body{font-family:system-ui,-apple-system,"Segoe UI",Roboto,"Noto Sans","Noto Sans Arabic","Noto Sans Hebrew",sans-serif;` +
	`line-height:1.6;margin:0 auto;max-width:48rem;padding:1.5rem;direction:%s;text-align:%s}` +
	`img{max-width:100%%;height:auto}` +
	`table{border-collapse:collapse}th,td{border:1px solid #ccc;padding:.4rem}` +
	`.video-link a{font-weight:600}`

// Extra rules per document kind for the constrained renderer.
var kindCSS = map[DocKind]string{
	DocPlain:     ``,
	DocWorksheet: `h1{font-size:1.6rem;border-bottom:2px solid #333}.question{margin:1.2rem 0}.answer-line{border-bottom:1px solid #999;height:1.8rem}`,
	DocLesson:    `h1{font-size:1.8rem}h2{margin-top:2rem}.note,.tip,.callout{border-inline-start:4px solid #4a7;padding:.5rem 1rem;background:#f4faf6}.vocab{font-style:italic}`,
}

func directionCSS(loc locale) string {
	return fmt.Sprintf(baseCSS, loc.dir, loc.textAlign())
}

// webShell wraps a fragment in a minimal full document.
func webShell(fragment, title string, loc locale) (string, error) {
	return shell{
		Lang:     loc.tag,
		Dir:      loc.dir,
		Title:    title,
		CSS:      template.CSS(directionCSS(loc)),
		Viewport: true,
		Body:     template.HTML(fragment),
	}.render()
}

// constrainedShell wraps sanitized body content in the document shell for kind.
func constrainedShell(inner, title string, loc locale, kind DocKind) (string, error) {
	return shell{
		Lang:      loc.tag,
		Dir:       loc.dir,
		Title:     title,
		CSS:       template.CSS(directionCSS(loc) + kindCSS[kind]),
		BodyClass: "doc doc-" + string(kind),
		Body:      template.HTML(inner),
	}.render()
}
