package engine

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/roach88/hpp/internal/codec"
	"github.com/roach88/hpp/internal/directive"
	"github.com/roach88/hpp/internal/loader"
	"github.com/roach88/hpp/internal/models"
)

// expander holds the per-run state shared by every recursion level.
// One expander serves exactly one Assemble call.
type expander struct {
	loader   *loader.Loader
	vars     map[string]any
	fallback codec.Fallback
	logger   *slog.Logger
	maxDepth int
}

// expand returns buf with every directive resolved.
//
// The buffer is tokenized once. Each distinct span is resolved in order of
// first occurrence and all copies of it are replaced. Replacement text is
// never tokenized again: loaded files are expanded before they are
// substituted, and variable values are data. depth is the recursion level
// of buf.
func (x *expander) expand(buf string, depth int) (string, error) {
	if depth > x.maxDepth {
		return "", models.NewError(models.CodeExpansionLimit, "recursion depth %d exceeds limit %d", depth, x.maxDepth)
	}

	occs, err := directive.FindAll(buf)
	if err != nil {
		return "", err
	}

	seen := make(map[string]bool, len(occs))
	for _, occ := range occs {
		if seen[occ.Span] {
			continue
		}
		seen[occ.Span] = true

		// An earlier replacement may have consumed the span.
		if !strings.Contains(buf, occ.Span) {
			x.logger.Debug("directive no longer present", "span", occ.Span, "depth", depth)
			continue
		}

		repl, err := x.resolve(occ, depth)
		if err != nil {
			return "", attachDirective(err, occ.Span)
		}

		x.logger.Debug("replacing directive",
			"span", occ.Span,
			"copies", strings.Count(buf, occ.Span),
			"bytes", len(repl),
			"depth", depth,
		)
		buf = strings.ReplaceAll(buf, occ.Span, repl)
	}
	return buf, nil
}

// attachDirective records span on err unless a deeper level already did.
func attachDirective(err error, span string) error {
	var me *models.Error
	if errors.As(err, &me) && me.Directive == "" {
		me.Directive = span
	}
	return err
}
