package ipc

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/driftwall/driftwall/pkg/imaging"
	"github.com/driftwall/driftwall/pkg/transition"
)

// RequestKind is the frame's kind byte on the client->daemon leg
// (spec.md §4.G "Request kinds").
type RequestKind byte

const (
	ReqPing RequestKind = iota
	ReqQuery
	ReqImg
	ReqClear
	ReqRestore
	ReqClearCache
	ReqKill
)

// ReplyKind is the frame's kind byte on the daemon->client leg
// (spec.md §4.G "Reply kinds").
type ReplyKind byte

const (
	ReplyOk ReplyKind = iota
	ReplyErr
	ReplyInfo
	ReplyPong
)

// Field tags shared across request/reply payloads. Values are local
// to this package's wire format, not the Wayland protocol's.
const (
	tagOutputs byte = iota
	tagTransitionType
	tagTransitionStep
	tagTransitionFPS
	tagTransitionDurationMS
	tagTransitionBezierX1
	tagTransitionBezierY1
	tagTransitionBezierX2
	tagTransitionBezierY2
	tagTransitionAngle
	tagTransitionPosX
	tagTransitionPosY
	tagTransitionPosPercent
	tagTransitionInvertY
	tagTransitionWaveW
	tagTransitionWaveH
	tagFitMode
	tagFillR
	tagFillG
	tagFillB
	tagFilter
	tagFPSOverride
	tagPath
	tagMemfd // sentinel: presence means pixels travel by fd, not inline
	tagContentHash
	tagColorR
	tagColorG
	tagColorB
	tagErrMessage
	tagInfoOutput
	tagInfoGeometry
	tagInfoScale
	tagInfoContent
)

// ImgRequest is the `img` request payload (spec.md §4.G). Path is
// empty when the image bytes are attached to the frame via a memfd
// (HasFD reports which).
type ImgRequest struct {
	Outputs      []string
	Transition   transition.Descriptor
	Fit          imaging.FitMode
	Fill         imaging.Color
	Filter       imaging.Filter
	FPSOverride  uint8
	Path         string
	HasFD        bool
	ContentHash  string
}

func (r ImgRequest) encode() []byte {
	w := &fieldWriter{}
	w.putStrings(tagOutputs, r.Outputs)
	w.putUint32(tagTransitionType, uint32(r.Transition.Type))
	w.putUint32(tagTransitionStep, uint32(r.Transition.Step))
	w.putUint32(tagTransitionFPS, uint32(r.Transition.FPS))
	w.putUint32(tagTransitionDurationMS, r.Transition.DurationMS)
	w.putFloat64(tagTransitionBezierX1, r.Transition.Bezier.X1)
	w.putFloat64(tagTransitionBezierY1, r.Transition.Bezier.Y1)
	w.putFloat64(tagTransitionBezierX2, r.Transition.Bezier.X2)
	w.putFloat64(tagTransitionBezierY2, r.Transition.Bezier.Y2)
	w.putFloat64(tagTransitionAngle, r.Transition.AngleDeg)
	w.putFloat64(tagTransitionPosX, r.Transition.Pos.X)
	w.putFloat64(tagTransitionPosY, r.Transition.Pos.Y)
	w.putBool(tagTransitionPosPercent, r.Transition.Pos.Percent)
	w.putBool(tagTransitionInvertY, r.Transition.InvertY)
	w.putFloat64(tagTransitionWaveW, r.Transition.WaveSize.Width)
	w.putFloat64(tagTransitionWaveH, r.Transition.WaveSize.Height)
	w.putUint32(tagFitMode, uint32(r.Fit))
	w.putUint32(tagFillR, uint32(r.Fill.R))
	w.putUint32(tagFillG, uint32(r.Fill.G))
	w.putUint32(tagFillB, uint32(r.Fill.B))
	w.putUint32(tagFilter, uint32(r.Filter))
	w.putUint32(tagFPSOverride, uint32(r.FPSOverride))
	if r.Path != "" {
		w.putString(tagPath, r.Path)
	}
	if r.HasFD {
		w.putBool(tagMemfd, true)
	}
	w.putString(tagContentHash, r.ContentHash)
	return w.bytes()
}

func decodeImgRequest(buf []byte) (ImgRequest, error) {
	f, err := parseFields(buf)
	if err != nil {
		return ImgRequest{}, fmt.Errorf("ipc: decoding img request: %w", err)
	}
	return ImgRequest{
		Outputs: f.strings(tagOutputs),
		Transition: transition.Descriptor{
			Type:       transition.Type(f.uint32(tagTransitionType)),
			Step:       uint8(f.uint32(tagTransitionStep)),
			FPS:        uint8(f.uint32(tagTransitionFPS)),
			DurationMS: f.uint32(tagTransitionDurationMS),
			Bezier: transition.Bezier{
				X1: f.float64(tagTransitionBezierX1),
				Y1: f.float64(tagTransitionBezierY1),
				X2: f.float64(tagTransitionBezierX2),
				Y2: f.float64(tagTransitionBezierY2),
			},
			AngleDeg: f.float64(tagTransitionAngle),
			Pos: transition.Point{
				X:       f.float64(tagTransitionPosX),
				Y:       f.float64(tagTransitionPosY),
				Percent: f.bool(tagTransitionPosPercent),
			},
			InvertY: f.bool(tagTransitionInvertY),
			WaveSize: transition.WaveSize{
				Width:  f.float64(tagTransitionWaveW),
				Height: f.float64(tagTransitionWaveH),
			},
		},
		Fit:         imaging.FitMode(f.uint32(tagFitMode)),
		Fill:        imaging.Color{R: byte(f.uint32(tagFillR)), G: byte(f.uint32(tagFillG)), B: byte(f.uint32(tagFillB))},
		Filter:      imaging.Filter(f.uint32(tagFilter)),
		FPSOverride: uint8(f.uint32(tagFPSOverride)),
		Path:        f.string(tagPath),
		HasFD:       f.bool(tagMemfd),
		ContentHash: f.string(tagContentHash),
	}, nil
}

// ClearRequest is the `clear` request payload.
type ClearRequest struct {
	Outputs []string
	Color   imaging.Color
}

func (r ClearRequest) encode() []byte {
	w := &fieldWriter{}
	w.putStrings(tagOutputs, r.Outputs)
	w.putUint32(tagColorR, uint32(r.Color.R))
	w.putUint32(tagColorG, uint32(r.Color.G))
	w.putUint32(tagColorB, uint32(r.Color.B))
	return w.bytes()
}

func decodeClearRequest(buf []byte) (ClearRequest, error) {
	f, err := parseFields(buf)
	if err != nil {
		return ClearRequest{}, fmt.Errorf("ipc: decoding clear request: %w", err)
	}
	return ClearRequest{
		Outputs: f.strings(tagOutputs),
		Color:   imaging.Color{R: byte(f.uint32(tagColorR)), G: byte(f.uint32(tagColorG)), B: byte(f.uint32(tagColorB))},
	}, nil
}

// OutputsRequest is the payload shared by `query` and `restore`: just
// the set of outputs to target (empty means all).
type OutputsRequest struct {
	Outputs []string
}

func (r OutputsRequest) encode() []byte {
	w := &fieldWriter{}
	w.putStrings(tagOutputs, r.Outputs)
	return w.bytes()
}

func decodeOutputsRequest(buf []byte) (OutputsRequest, error) {
	f, err := parseFields(buf)
	if err != nil {
		return OutputsRequest{}, fmt.Errorf("ipc: decoding outputs request: %w", err)
	}
	return OutputsRequest{Outputs: f.strings(tagOutputs)}, nil
}

// ErrReply is the `Err` reply payload.
type ErrReply struct {
	Message string
}

func (r ErrReply) encode() []byte {
	w := &fieldWriter{}
	w.putString(tagErrMessage, r.Message)
	return w.bytes()
}

func decodeErrReply(buf []byte) (ErrReply, error) {
	f, err := parseFields(buf)
	if err != nil {
		return ErrReply{}, fmt.Errorf("ipc: decoding err reply: %w", err)
	}
	return ErrReply{Message: f.string(tagErrMessage)}, nil
}

// OutputInfo is one output's entry in an Info reply (spec.md §6
// "query output" / §4.G "Info{outputs...}").
type OutputInfo struct {
	Name    string
	Width   int32
	Height  int32
	Scale   float64
	Content string // human-readable descriptor of current content
}

// InfoReply is the `Info` reply payload.
type InfoReply struct {
	Outputs []OutputInfo
}

func (r InfoReply) encode() []byte {
	w := &fieldWriter{}
	for _, o := range r.Outputs {
		w.putString(tagInfoOutput, o.Name)
		geom := &fieldWriter{}
		geom.putUint32(0, uint32(o.Width))
		geom.putUint32(1, uint32(o.Height))
		w.putBytes(tagInfoGeometry, geom.bytes())
		w.putFloat64(tagInfoScale, o.Scale)
		w.putString(tagInfoContent, o.Content)
	}
	return w.bytes()
}

func decodeInfoReply(buf []byte) (InfoReply, error) {
	f, err := parseFields(buf)
	if err != nil {
		return InfoReply{}, fmt.Errorf("ipc: decoding info reply: %w", err)
	}
	names := f.fields[tagInfoOutput]
	geoms := f.fields[tagInfoGeometry]
	scales := f.fields[tagInfoScale]
	contents := f.fields[tagInfoContent]

	out := make([]OutputInfo, len(names))
	for i := range names {
		info := OutputInfo{Name: string(names[i])}
		if i < len(geoms) {
			gf, err := parseFields(geoms[i])
			if err == nil {
				info.Width = int32(gf.uint32(0))
				info.Height = int32(gf.uint32(1))
			}
		}
		if i < len(scales) && len(scales[i]) == 8 {
			info.Scale = math.Float64frombits(binary.LittleEndian.Uint64(scales[i]))
		}
		if i < len(contents) {
			info.Content = string(contents[i])
		}
		out[i] = info
	}
	return InfoReply{Outputs: out}, nil
}
