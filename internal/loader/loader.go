package loader

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/roach88/hpp/internal/codec"
	"github.com/roach88/hpp/internal/models"
)

// Loader resolves and reads file references for one run.
type Loader struct {
	baseDir  string
	registry *Registry
	logger   *slog.Logger
	records  []models.LoadRecord
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for load tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// New creates a Loader resolving relative references against baseDir.
// A nil registry gets a fresh one.
func New(baseDir string, registry *Registry, opts ...Option) (*Loader, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, models.NewError(models.CodeIO, "resolving base directory %s", baseDir).Wrap(err)
	}
	if registry == nil {
		registry = NewRegistry()
	}

	l := &Loader{
		baseDir:  abs,
		registry: registry,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// BaseDir returns the absolute base directory.
func (l *Loader) BaseDir() string {
	return l.baseDir
}

// Registry returns the registry this loader records into.
func (l *Loader) Registry() *Registry {
	return l.registry
}

// Records returns one record per file actually read, in read order.
func (l *Loader) Records() []models.LoadRecord {
	out := make([]models.LoadRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Resolve returns the canonical path for ref.
func (l *Loader) Resolve(ref string) string {
	if filepath.IsAbs(ref) {
		return filepath.Clean(ref)
	}
	return filepath.Join(l.baseDir, ref)
}

// Load reads ref in the given mode.
//
// If the resolved path was already loaded in this run and allowDup is
// false, Load returns "" without touching the filesystem. Otherwise the
// file is read, registered and returned: as decoded text for LoadText, as
// base64 text for LoadBinary. depth is recorded for diagnostics only.
//
// Returns a CodeFileNotFound error if the path does not exist.
func (l *Loader) Load(ref string, mode models.LoadMode, allowDup bool, depth int) (string, error) {
	path := l.Resolve(ref)

	if l.registry.Contains(path) && !allowDup {
		l.logger.Debug("ignoring previously-loaded file", "ref", ref, "path", path, "depth", depth)
		return "", nil
	}

	l.logger.Debug("loading file", "path", path, "mode", mode, "depth", depth)

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", models.NewError(models.CodeFileNotFound, "%s not found", ref).WithPath(path).Wrap(err)
		}
		return "", models.NewError(models.CodeIO, "reading %s", ref).WithPath(path).Wrap(err)
	}

	var content string
	switch mode {
	case models.LoadBinary:
		content = codec.EncodeBinary(raw)
	default:
		content, err = DecodeText(raw)
		if err != nil {
			return "", models.NewError(models.CodeIO, "decoding %s", ref).WithPath(path).Wrap(err)
		}
	}

	l.registry.Add(path)
	l.records = append(l.records, models.LoadRecord{
		Path:   path,
		Mode:   mode,
		Depth:  depth,
		Bytes:  len(raw),
		Digest: codec.Digest(raw),
	})

	return content, nil
}

// ErrInvalidUTF8 is returned by DecodeText for text that is neither valid
// UTF-8 nor marked as UTF-16 by a BOM.
var ErrInvalidUTF8 = errors.New("invalid UTF-8")

// DecodeText converts file bytes to text.
//
// A leading BOM selects the encoding (UTF-8, UTF-16LE or UTF-16BE) and is
// dropped. Without a UTF-16 BOM the bytes must be valid UTF-8; anything else
// fails with ErrInvalidUTF8 rather than being altered. "\r\n" and lone "\r"
// become "\n".
func DecodeText(raw []byte) (string, error) {
	if !hasUTF16BOM(raw) {
		if off := invalidUTF8Offset(raw); off >= 0 {
			return "", fmt.Errorf("%w at byte %d", ErrInvalidUTF8, off)
		}
	}

	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	decoded, _, err := transform.Bytes(decoder, raw)
	if err != nil {
		return "", err
	}

	text := string(decoded)
	if strings.Contains(text, "\r") {
		text = strings.ReplaceAll(text, "\r\n", "\n")
		text = strings.ReplaceAll(text, "\r", "\n")
	}
	return text, nil
}

func hasUTF16BOM(raw []byte) bool {
	return len(raw) >= 2 && ((raw[0] == 0xff && raw[1] == 0xfe) || (raw[0] == 0xfe && raw[1] == 0xff))
}

// invalidUTF8Offset returns the offset of the first invalid UTF-8 sequence
// in raw, or -1.
func invalidUTF8Offset(raw []byte) int {
	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRune(raw[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return -1
}
