package directive

import (
	"strings"

	"github.com/roach88/hpp/internal/models"
)

const (
	openDelim  = "<<"
	closeDelim = ">>"
	kindPrefix = "hpp_"
)

// commentOpeners is checked longest first so that "<!--" wins over
// shorter openers.
var commentOpeners = []struct {
	style  CommentStyle
	opener string
	closer string
}{
	{CommentHTML, "<!--", "-->"},
	{CommentBlock, "/*", "*/"},
	{CommentLine, "//", ""},
}

// FindAll returns every directive in buf, in left-to-right order.
//
// Text that does not begin with "<<" followed by optional whitespace and
// "hpp_" is never a directive. Once that prefix is seen the tokenizer
// commits: a missing kind or argument, a flag outside {compress, dup}, or a
// missing ">>" is a CodeMalformedDirective error.
func FindAll(buf string) ([]Occurrence, error) {
	var out []Occurrence

	pos, floor := 0, 0
	for {
		idx := strings.Index(buf[pos:], openDelim)
		if idx < 0 {
			return out, nil
		}
		start := pos + idx

		occ, end, ok, err := scanDirective(buf, start, floor)
		if err != nil {
			return nil, err
		}
		if !ok {
			pos = start + 1
			continue
		}

		out = append(out, occ)
		pos, floor = end, end
	}
}

// Contains reports whether buf holds at least one directive prefix.
// It is a cheap pre-check; FindAll does the real work.
func Contains(buf string) bool {
	pos := 0
	for {
		idx := strings.Index(buf[pos:], openDelim)
		if idx < 0 {
			return false
		}
		start := pos + idx
		if strings.HasPrefix(skipSpace(buf, start+len(openDelim)), kindPrefix) {
			return true
		}
		pos = start + 1
	}
}

// scanDirective tokenizes the directive whose "<<" is at start. ok is false
// when the text is not a directive at all; end is the offset just past the
// span. A comment opener is only considered if it starts at or after floor,
// the end of the previous directive.
func scanDirective(buf string, start, floor int) (occ Occurrence, end int, ok bool, err error) {
	i := start + len(openDelim)
	i = skipSpaceIdx(buf, i)
	if !strings.HasPrefix(buf[i:], kindPrefix) {
		return Occurrence{}, 0, false, nil
	}
	i += len(kindPrefix)

	closeIdx := findClose(buf, i)
	if closeIdx < 0 {
		return Occurrence{}, 0, false, malformed(buf[start:lineEnd(buf, start)], "missing closing %q", closeDelim)
	}
	inner := buf[i:closeIdx]
	end = closeIdx + len(closeDelim)

	kindEnd := 0
	for kindEnd < len(inner) && isKindChar(inner[kindEnd]) {
		kindEnd++
	}
	kind := inner[:kindEnd]
	if kind == "" {
		return Occurrence{}, 0, false, malformed(buf[start:end], "missing directive kind after %q", kindPrefix)
	}

	rest := inner[kindEnd:]
	if rest != "" && !isSpace(rest[0]) {
		return Occurrence{}, 0, false, malformed(buf[start:end], "invalid character %q in directive kind", rest[0])
	}

	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return Occurrence{}, 0, false, malformed(buf[start:end], "hpp_%s requires an argument", kind)
	}

	var flags Flags
	for _, name := range fields[1:] {
		f, known := flagNames[name]
		if !known {
			return Occurrence{}, 0, false, malformed(buf[start:end], "unknown flag %q (expected compress or dup)", name)
		}
		flags |= Flags(f)
	}

	occ = Occurrence{
		Kind:  Kind(kind),
		Arg:   fields[0],
		Flags: flags,
	}

	spanStart, spanEnd, style := wrapComment(buf, start, end, floor)
	occ.Span = buf[spanStart:spanEnd]
	occ.Offset = spanStart
	occ.Comment = style
	return occ, spanEnd, true, nil
}

// wrapComment widens [start, end) to an enclosing single-line comment.
// The opener must precede "<<" on the same line with only blanks between;
// the closer, if the style has one, must follow ">>" the same way. An
// opener without its closer still widens the start.
func wrapComment(buf string, start, end, floor int) (int, int, CommentStyle) {
	before := start
	for before > floor && isBlank(buf[before-1]) {
		before--
	}

	for _, c := range commentOpeners {
		if !strings.HasSuffix(buf[floor:before], c.opener) {
			continue
		}
		spanStart := before - len(c.opener)
		if c.closer == "" {
			return spanStart, end, c.style
		}

		after := end
		for after < len(buf) && isBlank(buf[after]) {
			after++
		}
		if strings.HasPrefix(buf[after:], c.closer) {
			return spanStart, after + len(c.closer), c.style
		}
		return spanStart, end, c.style
	}

	return start, end, CommentNone
}

// findClose returns the index of the ">>" ending the directive that starts
// before from, or -1 if another "<<" or the end of buf comes first.
func findClose(buf string, from int) int {
	closeIdx := strings.Index(buf[from:], closeDelim)
	if closeIdx < 0 {
		return -1
	}
	if nested := strings.Index(buf[from:], openDelim); nested >= 0 && nested < closeIdx {
		return -1
	}
	return from + closeIdx
}

func malformed(span, format string, args ...any) error {
	return models.NewError(models.CodeMalformedDirective, format, args...).WithDirective(span)
}

func lineEnd(buf string, from int) int {
	if nl := strings.IndexByte(buf[from:], '\n'); nl >= 0 {
		return from + nl
	}
	return len(buf)
}

func skipSpace(buf string, i int) string {
	return buf[skipSpaceIdx(buf, i):]
}

func skipSpaceIdx(buf string, i int) int {
	for i < len(buf) && isSpace(buf[i]) {
		i++
	}
	return i
}

func isKindChar(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

// isBlank is isSpace without line breaks.
func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\f' || c == '\v'
}
