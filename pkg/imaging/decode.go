package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Source reads the whole input once so format sniffing (content-based,
// never extension-based per spec.md §4.C) and decoding can both work
// against the same bytes without requiring a seekable reader.
type Source struct {
	Data []byte
}

// ReadSource slurps r (a file, or os.Stdin for "-") fully into memory;
// animation frames are decoded from this buffer, all at once, rather
// than from disk.
func ReadSource(r io.Reader) (*Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading image source: %w", err)
	}
	return &Source{Data: data}, nil
}

// sniffFormat returns the registered image format name ("png", "jpeg",
// "gif", "webp", "bmp", "tiff", ...) by content, matching the decoders
// registered above.
func (s *Source) sniffFormat() (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(s.Data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return format, nil
}

// ErrDecode marks an error as a spec.md §7 Decode-kind failure: the
// request fails, the daemon keeps running.
var ErrDecode = fmt.Errorf("image could not be decoded")
