package image

import (
	"fmt"
	"strings"

	"github.com/phrazzld/lessonforge/internal/generation"
	"github.com/phrazzld/lessonforge/internal/provider"
)

// Mode restricts which strategies a synthesis may use.
type Mode string

// Synthesis modes.
const (
	ModeAuto      Mode = "auto"
	ModeReplicate Mode = "replicate"
	ModeRunPod    Mode = "runpod"
	ModeSearch    Mode = "search"
	ModeNone      Mode = "none"
)

// ParseMode parses a client-supplied mode. An empty string means ModeAuto.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAuto, nil
	case ModeAuto, ModeReplicate, ModeRunPod, ModeSearch, ModeNone:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown image mode %q", generation.ErrInvalidRequest, s)
	}
}

// allows reports whether a strategy backed by id may run under m.
func (m Mode) allows(id provider.ID) bool {
	switch m {
	case ModeAuto:
		return true
	case ModeReplicate:
		return id == provider.Replicate
	case ModeRunPod:
		return id == provider.RunPod
	case ModeSearch:
		return id == provider.GoogleImages
	default:
		return false
	}
}
