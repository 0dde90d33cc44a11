package content

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/lessonforge/internal/generation"
	"github.com/phrazzld/lessonforge/internal/platform/logger"
)

// DefaultMaxInputBytes is the input ceiling used when none is configured.
const DefaultMaxInputBytes = 1 << 20

// Normalizer rewrites generated markup. It is safe for concurrent use.
type Normalizer struct {
	validator     Validator
	maxInputBytes int
	logger        *slog.Logger
}

// NewNormalizer creates a Normalizer. A nil validator treats every
// reference as valid.
func NewNormalizer(v Validator, maxInputBytes int, logger *slog.Logger) *Normalizer {
	if maxInputBytes <= 0 {
		maxInputBytes = DefaultMaxInputBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		validator:     v,
		maxInputBytes: maxInputBytes,
		logger:        logger.With(slog.String("component", "normalizer")),
	}
}

// Normalize runs the full pass over req.HTML. The returned markup always has
// exactly one document root, and normalizing it again is a no-op.
func (n *Normalizer) Normalize(ctx context.Context, req Request) (Result, error) {
	if len(req.HTML) > n.maxInputBytes {
		return Result{}, fmt.Errorf("%w: %d bytes exceeds limit of %d",
			generation.ErrInputTooLarge, len(req.HTML), n.maxInputBytes)
	}
	if req.Target == "" {
		req.Target = TargetWeb
	}
	if req.DocKind == "" {
		req.DocKind = DocPlain
	}

	log := logger.FromContextOrDefault(ctx, n.logger)
	loc := resolveLocale(req.Lang)

	var issues issueLog
	markup := stripBOM(req.HTML, &issues)
	markup = stripFence(markup, &issues)
	markup = stripBoxSizing(markup, &issues)

	refs := scanReferences(markup)
	outcome := n.validate(ctx, log, referenceIDs(refs))
	markup = rewriteReferences(markup, outcome, loc.videoLabel(), &issues)

	var err error
	switch req.Target {
	case TargetConstrained:
		markup, err = shapeConstrained(markup, loc, req.DocKind, &issues)
	default:
		markup, err = shapeWeb(markup, loc, req.DocKind, &issues)
	}
	if err != nil {
		return Result{}, err
	}

	log.InfoContext(ctx, "markup normalized",
		slog.String("target", string(req.Target)),
		slog.String("doc_kind", string(req.DocKind)),
		slog.Int("references", len(refs)),
		slog.Bool("service_reachable", outcome.ServiceReachable),
		slog.Int("issues", len(issues)))

	return Result{HTML: markup, Issues: issues}, nil
}

func (n *Normalizer) validate(ctx context.Context, log *slog.Logger, ids []string) Outcome {
	if len(ids) == 0 {
		return Outcome{Valid: map[string]bool{}, ServiceReachable: true}
	}
	if n.validator == nil {
		return failOpen(ids)
	}
	outcome, err := n.validator.Validate(ctx, ids)
	if err != nil {
		log.WarnContext(ctx, "reference validation failed open",
			slog.Int("ids", len(ids)),
			slog.String("error_code", generation.Code(err)))
	}
	if outcome.Valid == nil {
		outcome = failOpen(ids)
	}
	return outcome
}

// shapeConstrained reduces the body content to the safe dialect and wraps
// it in the shell for kind.
func shapeConstrained(markup string, loc locale, kind DocKind, issues *issueLog) (string, error) {
	doc, err := parseDocument(markup)
	if err != nil {
		return "", err
	}
	if removed := sanitize(doc.Find("body")); removed > 0 {
		issues.add(IssueUnsafeMarkup, fmt.Sprintf("%d elements or attributes", removed))
	}
	inner, err := bodyInner(doc)
	if err != nil {
		return "", err
	}
	return constrainedShell(inner, documentTitle(doc, kind), loc, kind)
}

// shapeWeb wraps markup in a minimal document unless it already has both an
// html root and a body, in which case it is returned unchanged.
func shapeWeb(markup string, loc locale, kind DocKind, issues *issueLog) (string, error) {
	if hasDocumentRoot(markup) {
		return markup, nil
	}
	doc, err := parseDocument(markup)
	if err != nil {
		return "", err
	}
	inner, err := bodyInner(doc)
	if err != nil {
		return "", err
	}
	issues.add(IssueWrapped, "")
	return webShell(inner, documentTitle(doc, kind), loc)
}
