package codec

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Compress deflates text into a zlib stream and returns it base64 encoded.
func Compress(text string) (string, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, zlib.DefaultCompression)
	if err != nil {
		return "", fmt.Errorf("creating zlib writer: %w", err)
	}
	if _, err := io.WriteString(w, text); err != nil {
		w.Close()
		return "", fmt.Errorf("compressing: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("flushing zlib stream: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Decompress reverses Compress.
func Decompress(encoded string) (string, error) {
	raw, err := DecodeBinary(encoded)
	if err != nil {
		return "", err
	}
	r, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("opening zlib stream: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("inflating: %w", err)
	}
	return string(out), nil
}

// EncodeBinary returns the standard base64 encoding of data.
func EncodeBinary(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeBinary reverses EncodeBinary. Surrounding whitespace is ignored.
func DecodeBinary(encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace([]byte(encoded))))
	if err != nil {
		return nil, fmt.Errorf("decoding base64: %w", err)
	}
	return raw, nil
}
