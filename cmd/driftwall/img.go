package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/driftwall/driftwall/pkg/config"
	"github.com/driftwall/driftwall/pkg/imaging"
	"github.com/driftwall/driftwall/pkg/ipc"
	"github.com/driftwall/driftwall/pkg/transition"
)

// imgOptions holds img's own flags plus the transition sub-flags
// spec.md §6 names; env defaults are read once at command-construction
// time and only apply when the matching flag was never passed.
type imgOptions struct {
	resize    string
	fillColor string
	filter    string

	transitionType     string
	transitionStep     uint8
	transitionFPS      uint8
	transitionDuration float64
	transitionBezier   string
	transitionAngle    float64
	transitionPos      string
	transitionWave     string
	invertY            bool
}

func newImgCmd(flags *sharedFlags) *cobra.Command {
	envCfg, _ := config.LoadCliConfig()
	opts := &imgOptions{
		resize:             "no",
		fillColor:          "000000",
		filter:             "Lanczos3",
		transitionType:     firstNonEmpty(envCfg.Transition.Type, "simple"),
		transitionStep:     90,
		transitionFPS:      60,
		transitionDuration: 1,
		transitionBezier:   firstNonEmpty(envCfg.Transition.Bezier, "0,0,1,1"),
		transitionPos:      firstNonEmpty(envCfg.Transition.Pos, "center"),
		transitionWave:     "20,20",
	}
	if v, err := strconv.ParseUint(envCfg.Transition.Step, 10, 8); err == nil {
		opts.transitionStep = uint8(v)
	}
	if v, err := strconv.ParseUint(envCfg.Transition.FPS, 10, 8); err == nil {
		opts.transitionFPS = uint8(v)
	}
	if v, err := strconv.ParseFloat(envCfg.Transition.Duration, 64); err == nil {
		opts.transitionDuration = v
	}

	cmd := &cobra.Command{
		Use:   "img <path|->",
		Short: "Decode and present an image or animation on the targeted outputs.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runImg(flags, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.resize, "resize", opts.resize, "fit mode: no, crop, fit, stretch")
	cmd.Flags().StringVar(&opts.fillColor, "fill-color", opts.fillColor, "rrggbb padding color for fit modes that letterbox")
	cmd.Flags().StringVar(&opts.filter, "filter", opts.filter, "resize filter: Nearest, Bilinear, CatmullRom, Mitchell, Lanczos3")
	cmd.Flags().StringVar(&opts.transitionType, "transition-type", opts.transitionType, "none, simple, fade, wipe, wave, grow, outer, center, any, random, left, right, top, bottom")
	cmd.Flags().Uint8Var(&opts.transitionStep, "transition-step", opts.transitionStep, "transition step size [1,255]")
	cmd.Flags().Uint8Var(&opts.transitionFPS, "transition-fps", opts.transitionFPS, "transition frame rate [1,255]")
	cmd.Flags().Float64Var(&opts.transitionDuration, "transition-duration", opts.transitionDuration, "transition duration in seconds")
	cmd.Flags().StringVar(&opts.transitionBezier, "transition-bezier", opts.transitionBezier, "cubic easing control points x1,y1,x2,y2")
	cmd.Flags().Float64Var(&opts.transitionAngle, "transition-angle", opts.transitionAngle, "wipe angle in degrees")
	cmd.Flags().StringVar(&opts.transitionPos, "transition-pos", opts.transitionPos, "origin: x,y or x%,y% or center/top/bottom/left/right")
	cmd.Flags().StringVar(&opts.transitionWave, "transition-wave", opts.transitionWave, "wave boundary size w,h")
	cmd.Flags().BoolVar(&opts.invertY, "invert-y", opts.invertY, "invert the Y axis of --transition-pos (0 becomes the top edge)")

	return cmd
}

func runImg(flags *sharedFlags, opts *imgOptions, path string) error {
	fit, err := imaging.ParseFitMode(opts.resize)
	if err != nil {
		return newExitError(1, "%s", err)
	}
	fill, err := parseHexColor(opts.fillColor)
	if err != nil {
		return newExitError(1, "%s", err)
	}
	filter, err := imaging.ParseFilter(opts.filter)
	if err != nil {
		return newExitError(1, "%s", err)
	}
	desc, err := buildTransitionDescriptor(opts)
	if err != nil {
		return newExitError(1, "%s", err)
	}

	var stdinData []byte
	if path == "-" {
		var err error
		stdinData, err = io.ReadAll(os.Stdin)
		if err != nil {
			return newExitError(1, "%s", err)
		}
	} else if _, err := os.Stat(path); err != nil {
		return newExitError(1, "%s", err)
	}

	req := ipc.ImgRequest{
		Outputs:     flags.targets(),
		Transition:  desc,
		Fit:         fit,
		Fill:        fill,
		Filter:      filter,
		ContentHash: contentHash(path, stdinData),
	}

	conn, err := dial(flags)
	if err != nil {
		return err
	}
	defer conn.Close()

	fd := -1
	if path == "-" {
		req.HasFD = true
		fd, err = memfdFrom(stdinData)
		if err != nil {
			return newExitError(1, "%s", err)
		}
		defer unix.Close(fd)
	} else {
		req.Path = path
	}

	if err := conn.SendImg(req, fd); err != nil {
		return newExitError(1, "%s", err)
	}
	kind, payload, err := conn.ReadReply()
	if err != nil {
		return newExitError(1, "%s", err)
	}
	if kind == ipc.ReplyErr {
		reply, _ := payload.(ipc.ErrReply)
		return newExitError(1, "%s", reply.Message)
	}
	return nil
}

// contentHash builds the fingerprint's content component (spec.md
// §GLOSSARY "Fingerprint"): a path request hashes the path itself,
// since the daemon re-reads the file from disk rather than the client
// shipping its bytes; a stdin request has no stable path, so it hashes
// the bytes actually sent.
func contentHash(path string, stdinData []byte) string {
	if path == "-" {
		h := sha256.Sum256(stdinData)
		return hex.EncodeToString(h[:])
	}
	h := sha256.Sum256([]byte(path))
	return hex.EncodeToString(h[:])
}

func memfdFrom(data []byte) (int, error) {
	fd, err := unix.MemfdCreate("driftwall-img", unix.MFD_CLOEXEC)
	if err != nil {
		return -1, fmt.Errorf("memfd_create: %w", err)
	}
	if err := unix.Ftruncate(fd, int64(len(data))); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("ftruncate: %w", err)
	}
	if _, err := unix.Pwrite(fd, data, 0); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("writing image bytes to memfd: %w", err)
	}
	return fd, nil
}

func buildTransitionDescriptor(opts *imgOptions) (transition.Descriptor, error) {
	t, err := transition.ParseType(opts.transitionType)
	if err != nil {
		return transition.Descriptor{}, err
	}
	bezier, err := parseBezier(opts.transitionBezier)
	if err != nil {
		return transition.Descriptor{}, err
	}
	pos, err := parsePos(opts.transitionPos)
	if err != nil {
		return transition.Descriptor{}, err
	}
	wave, err := parseWave(opts.transitionWave)
	if err != nil {
		return transition.Descriptor{}, err
	}
	return transition.Descriptor{
		Type:       t,
		Step:       opts.transitionStep,
		FPS:        opts.transitionFPS,
		DurationMS: uint32(opts.transitionDuration * 1000),
		Bezier:     bezier,
		AngleDeg:   opts.transitionAngle,
		Pos:        pos,
		InvertY:    opts.invertY,
		WaveSize:   wave,
	}, nil
}

func parseBezier(s string) (transition.Bezier, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return transition.Bezier{}, fmt.Errorf("invalid --transition-bezier %q, expected x1,y1,x2,y2", s)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return transition.Bezier{}, fmt.Errorf("invalid --transition-bezier %q: %w", s, err)
		}
		vals[i] = v
	}
	return transition.Bezier{X1: vals[0], Y1: vals[1], X2: vals[2], Y2: vals[3]}, nil
}

func parseWave(s string) (transition.WaveSize, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return transition.WaveSize{}, fmt.Errorf("invalid --transition-wave %q, expected w,h", s)
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return transition.WaveSize{}, fmt.Errorf("invalid --transition-wave %q: %w", s, err)
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return transition.WaveSize{}, fmt.Errorf("invalid --transition-wave %q: %w", s, err)
	}
	return transition.WaveSize{Width: w, Height: h}, nil
}

// parsePos accepts either "x,y"/"x%,y%" or one of the named anchors
// spec.md §6 lists ("center", "top", ...).
func parsePos(s string) (transition.Point, error) {
	switch s {
	case "center":
		return transition.Point{X: 50, Y: 50, Percent: true}, nil
	case "top":
		return transition.Point{X: 50, Y: 100, Percent: true}, nil
	case "bottom":
		return transition.Point{X: 50, Y: 0, Percent: true}, nil
	case "left":
		return transition.Point{X: 0, Y: 50, Percent: true}, nil
	case "right":
		return transition.Point{X: 100, Y: 50, Percent: true}, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return transition.Point{}, fmt.Errorf("invalid --transition-pos %q", s)
	}
	percent := strings.HasSuffix(parts[0], "%") && strings.HasSuffix(parts[1], "%")
	x, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(parts[0]), "%"), 64)
	if err != nil {
		return transition.Point{}, fmt.Errorf("invalid --transition-pos %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(parts[1]), "%"), 64)
	if err != nil {
		return transition.Point{}, fmt.Errorf("invalid --transition-pos %q: %w", s, err)
	}
	return transition.Point{X: x, Y: y, Percent: percent}, nil
}
