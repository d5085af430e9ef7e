// Package directive tokenizes hpp directives.
//
// A directive has the form
//
//	<<hpp_KIND ARG [FLAG ...]>>
//
// and may be wrapped in a single-line comment:
//
//	// <<hpp_insert lib.js>>
//	/* <<hpp_style theme.css>> */
//	<!-- <<hpp_script app.js compress>> -->
//
// The tokenizer only finds and classifies directives; it evaluates nothing.
// Any KIND is accepted so that the dispatcher can reject unknown kinds with
// a precise error; flags are checked here against the closed vocabulary.
package directive

import "strings"

// Kind identifies what a directive inserts.
type Kind string

const (
	KindInsert  Kind = "insert"
	KindScript  Kind = "script"
	KindStyle   Kind = "style"
	KindBin2B64 Kind = "bin2b64"
	KindPyVar   Kind = "pyvar"
)

// Known reports whether k is one of the supported kinds.
func (k Kind) Known() bool {
	switch k {
	case KindInsert, KindScript, KindStyle, KindBin2B64, KindPyVar:
		return true
	}
	return false
}

// Flag is one directive option.
type Flag uint8

const (
	// FlagCompress replaces the content with its compressed, base64 form.
	FlagCompress Flag = 1 << iota

	// FlagDup loads the file even if it was loaded earlier in the run.
	FlagDup
)

var flagNames = map[string]Flag{
	"compress": FlagCompress,
	"dup":      FlagDup,
}

// Flags is a set of Flag values.
type Flags uint8

// Has reports whether f is in the set.
func (fs Flags) Has(f Flag) bool {
	return fs&Flags(f) != 0
}

// String lists the set members in vocabulary order, space separated.
func (fs Flags) String() string {
	var names []string
	if fs.Has(FlagCompress) {
		names = append(names, "compress")
	}
	if fs.Has(FlagDup) {
		names = append(names, "dup")
	}
	return strings.Join(names, " ")
}

// CommentStyle records which comment, if any, wrapped a directive.
type CommentStyle int

const (
	CommentNone  CommentStyle = iota
	CommentLine               // //
	CommentBlock              // /* */
	CommentHTML               // <!-- -->
)

// Occurrence is one directive found in a buffer.
type Occurrence struct {
	Kind  Kind
	Arg   string
	Flags Flags

	// Span is the exact matched text, including comment delimiters when the
	// directive is commented. Replacing Span removes the whole directive.
	Span string

	// Offset is the byte offset of Span in the scanned buffer.
	Offset int

	Comment CommentStyle
}

// Commented reports whether the directive was wrapped in a comment.
func (o Occurrence) Commented() bool {
	return o.Comment != CommentNone
}
