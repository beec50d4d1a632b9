// Package cache implements the on-disk cached-animation file format
// spec.md §6 defines ("Cached animation file format") and the minimal
// per-output directory layout needed to read/write/clear those files;
// the wider directory-lifecycle policy questions spec.md §1 calls out
// as a non-goal (retention, eviction, multi-daemon sharing) are not
// this package's concern.
package cache

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/driftwall/driftwall/pkg/codec"
	"github.com/driftwall/driftwall/pkg/imaging"
	"github.com/driftwall/driftwall/pkg/pixel"
)

// magic replaces spec.md §6's literal "SWWW" header tag (see
// DESIGN.md's Open Question log).
var magic = [4]byte{'D', 'R', 'F', 'W'}

// version is the only cached animation file format this package
// reads or writes.
const version = 1

// ErrBadMagic is returned by ReadAnimation when a file doesn't start
// with this package's magic header, most commonly a leftover file
// from before a magic rename.
var ErrBadMagic = errors.New("cache: not a cached animation file")

// Dir resolves the cache directory for one namespace, creating it if
// missing. An empty namespace is the default, unnamespaced daemon.
func Dir(namespace string) (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("cache: resolve cache dir: %w", err)
	}
	dir := filepath.Join(base, "driftwall")
	if namespace != "" {
		dir = filepath.Join(dir, namespace)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("cache: create cache dir: %w", err)
	}
	return dir, nil
}

// Path returns the cache file path for one output within dir. One
// file per output: a new `img` request for that output simply
// overwrites its predecessor.
func Path(dir, output string) string {
	return filepath.Join(dir, output+".cache")
}

// Clear removes every cached animation file in dir, for the
// `clear-cache` client subcommand.
func Clear(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("cache: read cache dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("cache: remove %s: %w", e.Name(), err)
		}
	}
	return nil
}

// WriteAnimation writes anim to path in the cached animation file
// format (spec.md §6), atomically: the encode happens into a sibling
// temp file that's renamed into place, so a crash mid-write never
// leaves a truncated file for the next read.
func WriteAnimation(path string, anim *imaging.Animation, format pixel.Format) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("cache: create temp file: %w", err)
	}

	if err := encodeAnimation(f, anim, format); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("cache: close temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("cache: rename into place: %w", err)
	}
	return nil
}

func encodeAnimation(w io.Writer, anim *imaging.Animation, format pixel.Format) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.Write(magic[:]); err != nil {
		return fmt.Errorf("cache: write magic: %w", err)
	}
	if err := bw.WriteByte(version); err != nil {
		return fmt.Errorf("cache: write version: %w", err)
	}
	if err := writeUint32(bw, uint32(len(anim.Frames))); err != nil {
		return err
	}
	if err := writeUint32(bw, uint32(anim.Anchor.W)); err != nil {
		return err
	}
	if err := writeUint32(bw, uint32(anim.Anchor.H)); err != nil {
		return err
	}
	if err := bw.WriteByte(byte(format)); err != nil {
		return fmt.Errorf("cache: write format: %w", err)
	}

	if _, err := bw.Write(anim.Anchor.Pix); err != nil {
		return fmt.Errorf("cache: write anchor pixels: %w", err)
	}

	for i, frame := range anim.Frames {
		if err := writeUint32(bw, uint32(frame.Duration/time.Millisecond)); err != nil {
			return err
		}
		if err := writeUint32(bw, uint32(len(frame.Delta))); err != nil {
			return err
		}
		if _, err := bw.Write(frame.Delta); err != nil {
			return fmt.Errorf("cache: write frame %d delta: %w", i, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("cache: flush: %w", err)
	}
	return nil
}

// ReadAnimation reads a cached animation file back into memory. The
// returned Animation's Channels is derived from format, matching how
// imaging.DecodeAnimation derives it (spec.md §4.A: padding channels
// are never part of the compressed diff).
func ReadAnimation(path string) (*imaging.Animation, pixel.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("cache: open: %w", err)
	}
	defer f.Close()
	return decodeAnimation(bufio.NewReader(f))
}

func decodeAnimation(r io.Reader) (*imaging.Animation, pixel.Format, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, 0, fmt.Errorf("cache: read magic: %w", err)
	}
	if hdr != magic {
		return nil, 0, ErrBadMagic
	}

	ver, err := readByte(r)
	if err != nil {
		return nil, 0, err
	}
	if ver != version {
		return nil, 0, fmt.Errorf("cache: unsupported file version %d", ver)
	}

	frameCount, err := readUint32(r)
	if err != nil {
		return nil, 0, err
	}
	width, err := readUint32(r)
	if err != nil {
		return nil, 0, err
	}
	height, err := readUint32(r)
	if err != nil {
		return nil, 0, err
	}
	formatByte, err := readByte(r)
	if err != nil {
		return nil, 0, err
	}
	format := pixel.Format(formatByte)

	anchor := pixel.NewFrame(int(width), int(height), format)
	if _, err := io.ReadFull(r, anchor.Pix); err != nil {
		return nil, 0, fmt.Errorf("cache: read anchor pixels: %w", err)
	}

	channels := codec.Channels3
	if format.HasPadding() {
		channels = codec.Channels4
	}

	anim := &imaging.Animation{Anchor: anchor, Channels: channels}
	for i := uint32(0); i < frameCount; i++ {
		durationMs, err := readUint32(r)
		if err != nil {
			return nil, 0, fmt.Errorf("cache: read frame %d duration: %w", i, err)
		}
		length, err := readUint32(r)
		if err != nil {
			return nil, 0, fmt.Errorf("cache: read frame %d length: %w", i, err)
		}
		delta := make([]byte, length)
		if _, err := io.ReadFull(r, delta); err != nil {
			return nil, 0, fmt.Errorf("cache: read frame %d delta: %w", i, err)
		}
		anim.Frames = append(anim.Frames, imaging.AnimFrame{
			Duration: time.Duration(durationMs) * time.Millisecond,
			Delta:    delta,
		})
	}

	return anim, format, nil
}

func writeUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	if _, err := w.Write(buf[:]); err != nil {
		return fmt.Errorf("cache: write uint32: %w", err)
	}
	return nil
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("cache: read uint32: %w", err)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func readByte(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("cache: read byte: %w", err)
	}
	return buf[0], nil
}
