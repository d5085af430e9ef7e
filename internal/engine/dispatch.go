package engine

import (
	"github.com/roach88/hpp/internal/codec"
	"github.com/roach88/hpp/internal/directive"
	"github.com/roach88/hpp/internal/models"
)

const (
	scriptOpen  = "<script type=\"text/javascript\">\n"
	scriptClose = "\n</script>"
	styleOpen   = "<style type=\"text/css\">\n"
	styleClose  = "\n</style>"
)

// resolve computes the replacement text for one occurrence found at depth.
// Content loaded by insert, script and style is expanded at depth+1 before
// it is returned.
func (x *expander) resolve(occ directive.Occurrence, depth int) (string, error) {
	x.logger.Debug("handling directive",
		"kind", string(occ.Kind),
		"arg", occ.Arg,
		"flags", occ.Flags.String(),
		"depth", depth,
	)

	dup := occ.Flags.Has(directive.FlagDup)
	wantCompress := occ.Flags.Has(directive.FlagCompress)

	var (
		content  string
		compress bool
		err      error
	)

	switch occ.Kind {
	case directive.KindInsert:
		content, err = x.loadText(occ.Arg, dup, depth)
		x.ignoreCompress(occ, depth)

	case directive.KindScript:
		content, err = x.loadText(occ.Arg, dup, depth)
		if err == nil && content != "" {
			content = scriptOpen + content + scriptClose
			compress = wantCompress
		}

	case directive.KindStyle:
		// Stylesheets always load once.
		content, err = x.loadText(occ.Arg, false, depth)
		if err == nil {
			content = styleOpen + content + styleClose
		}
		x.ignoreFlag(occ, directive.FlagDup, depth)
		x.ignoreCompress(occ, depth)

	case directive.KindBin2B64:
		content, err = x.loader.Load(occ.Arg, models.LoadBinary, dup, depth+1)
		x.ignoreCompress(occ, depth)

	case directive.KindPyVar:
		content, err = x.lookupVar(occ.Arg)
		compress = wantCompress

	default:
		return "", models.NewError(models.CodeUnrecognizedDirective,
			"unrecognized directive hpp_%s", occ.Kind)
	}
	if err != nil {
		return "", err
	}

	if compress {
		x.logger.Debug("compressing new content", "bytes", len(content), "depth", depth)
		content, err = codec.Compress(content)
		if err != nil {
			return "", models.NewError(models.CodeIO, "compressing replacement for hpp_%s %s", occ.Kind, occ.Arg).Wrap(err)
		}
	}
	return content, nil
}

// loadText loads ref as text and expands it one level deeper. A suppressed
// duplicate comes back as "".
func (x *expander) loadText(ref string, dup bool, depth int) (string, error) {
	text, err := x.loader.Load(ref, models.LoadText, dup, depth+1)
	if err != nil || text == "" {
		return text, err
	}
	return x.expand(text, depth+1)
}

// lookupVar renders a bound variable: primitives in plain string form,
// anything else as structured text.
func (x *expander) lookupVar(name string) (string, error) {
	val, ok := x.vars[name]
	if !ok {
		return "", models.NewError(models.CodeUndefinedVariable,
			"variable substitution requested for undefined variable %s", name)
	}
	if s, ok := codec.PlainString(val); ok {
		return s, nil
	}
	return codec.MarshalStructured(val, x.fallback)
}

func (x *expander) ignoreCompress(occ directive.Occurrence, depth int) {
	x.ignoreFlag(occ, directive.FlagCompress, depth)
}

func (x *expander) ignoreFlag(occ directive.Occurrence, flag directive.Flag, depth int) {
	if occ.Flags.Has(flag) {
		x.logger.Debug("flag not supported, ignoring", "kind", string(occ.Kind), "flag", directive.Flags(flag).String(), "depth", depth)
	}
}
