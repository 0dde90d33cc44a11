package content

import (
	"fmt"
	"strings"

	"github.com/phrazzld/lessonforge/internal/generation"
)

// Target is the consumer the markup is shaped for.
type Target string

// Supported targets.
const (
	TargetWeb         Target = "web"
	TargetConstrained Target = "constrainedRenderer"
)

// ParseTarget parses a client-supplied target; empty means TargetWeb.
func ParseTarget(s string) (Target, error) {
	switch {
	case s == "" || strings.EqualFold(s, string(TargetWeb)):
		return TargetWeb, nil
	case strings.EqualFold(s, string(TargetConstrained)), strings.EqualFold(s, "pdf"):
		return TargetConstrained, nil
	default:
		return "", fmt.Errorf("%w: unknown target %q", generation.ErrInvalidRequest, s)
	}
}

// DocKind selects the document shell for constrained output.
type DocKind string

// Supported document kinds.
const (
	DocPlain     DocKind = "plain"
	DocWorksheet DocKind = "worksheet"
	DocLesson    DocKind = "lesson"
)

// ParseDocKind parses a client-supplied document kind; empty means DocPlain.
func ParseDocKind(s string) (DocKind, error) {
	switch k := DocKind(strings.ToLower(s)); k {
	case "":
		return DocPlain, nil
	case DocPlain, DocWorksheet, DocLesson:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown document kind %q", generation.ErrInvalidRequest, s)
	}
}

// Request is one normalization call.
type Request struct {
	HTML    string
	Lang    string
	Target  Target
	DocKind DocKind
}

// Issue codes. Every non-identity transformation records exactly one issue.
const (
	IssueFenceStripped    = "fence_stripped"
	IssueBOMStripped      = "bom_stripped"
	IssueBoxSizingRemoved = "box_sizing_removed"
	IssueEmbedConverted   = "embed_converted"
	IssueEmbedRemoved     = "embed_removed"
	IssueAnchorRewritten  = "anchor_rewritten"
	IssueAnchorUnwrapped  = "anchor_unwrapped"
	IssueUnsafeMarkup     = "unsafe_markup_removed"
	IssueWrapped          = "wrapped"
)

// Issue describes one transformation applied to the input.
type Issue struct {
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
}

// Result is the outcome of a normalization. HTML always has exactly one document root.
type Result struct {
	HTML   string
	Issues []Issue
}

// Message renders the issue as a human-readable sentence.
func (i Issue) Message() string {
	switch i.Code {
	case IssueFenceStripped:
		return "removed Markdown code fence"
	case IssueBOMStripped:
		return "removed byte-order marks"
	case IssueBoxSizingRemoved:
		return "removed box-sizing declarations from inline styles"
	case IssueEmbedConverted:
		return fmt.Sprintf("replaced embed %s with a link", i.Detail)
	case IssueEmbedRemoved:
		if i.Detail == "" {
			return "removed embed: unrecognized video reference"
		}
		return fmt.Sprintf("removed embed %s: not found", i.Detail)
	case IssueAnchorRewritten:
		return fmt.Sprintf("rewrote link %s to canonical form", i.Detail)
	case IssueAnchorUnwrapped:
		if i.Detail == "" {
			return "removed link: unrecognized video reference"
		}
		return fmt.Sprintf("removed link %s: not found", i.Detail)
	case IssueUnsafeMarkup:
		return fmt.Sprintf("removed unsafe markup: %s", i.Detail)
	case IssueWrapped:
		return "wrapped fragment in a full document"
	default:
		if i.Detail == "" {
			return i.Code
		}
		return i.Code + ": " + i.Detail
	}
}

type issueLog []Issue

func (l *issueLog) add(code, detail string) {
	*l = append(*l, Issue{Code: code, Detail: detail})
}
