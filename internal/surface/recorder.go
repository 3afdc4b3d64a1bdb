package surface

import (
	"fmt"
	"image"
	"strings"
)

type OpKind string

const (
	OpClear   OpKind = "clear"
	OpDraw    OpKind = "draw"
	OpSave    OpKind = "save"
	OpRestore OpKind = "restore"
	OpResize  OpKind = "resize"
)

// Op is one recorded surface call.
type Op struct {
	Kind  OpKind
	Image image.Image
	Src   Rect
	Dst   Rect
}

func (o Op) String() string {
	switch o.Kind {
	case OpDraw:
		return fmt.Sprintf("draw src=(%.2f,%.2f %.2fx%.2f) dst=(%.2f,%.2f %.2fx%.2f)",
			o.Src.X, o.Src.Y, o.Src.W, o.Src.H, o.Dst.X, o.Dst.Y, o.Dst.W, o.Dst.H)
	case OpClear, OpResize:
		return fmt.Sprintf("%s (%.0f,%.0f %.0fx%.0f)", o.Kind, o.Dst.X, o.Dst.Y, o.Dst.W, o.Dst.H)
	default:
		return string(o.Kind)
	}
}

// Recorder records surface calls and forwards them to Next, if set.
type Recorder struct {
	Next Surface
	Ops  []Op
}

func NewRecorder(next Surface) *Recorder {
	return &Recorder{Next: next}
}

func (r *Recorder) ClearRect(x, y, w, h float64) {
	r.Ops = append(r.Ops, Op{Kind: OpClear, Dst: Rect{x, y, w, h}})
	if r.Next != nil {
		r.Next.ClearRect(x, y, w, h)
	}
}

func (r *Recorder) DrawImage(img image.Image, sx, sy, sw, sh, dx, dy, dw, dh float64) {
	r.Ops = append(r.Ops, Op{
		Kind:  OpDraw,
		Image: img,
		Src:   Rect{sx, sy, sw, sh},
		Dst:   Rect{dx, dy, dw, dh},
	})
	if r.Next != nil {
		r.Next.DrawImage(img, sx, sy, sw, sh, dx, dy, dw, dh)
	}
}

func (r *Recorder) Save() {
	r.Ops = append(r.Ops, Op{Kind: OpSave})
	if r.Next != nil {
		r.Next.Save()
	}
}

func (r *Recorder) Restore() {
	r.Ops = append(r.Ops, Op{Kind: OpRestore})
	if r.Next != nil {
		r.Next.Restore()
	}
}

// Resize implements Resizer, forwarding when Next supports it.
func (r *Recorder) Resize(width, height int) {
	r.Ops = append(r.Ops, Op{Kind: OpResize, Dst: Rect{W: float64(width), H: float64(height)}})
	if rs, ok := r.Next.(Resizer); ok {
		rs.Resize(width, height)
	}
}

// Draws returns only the draw calls.
func (r *Recorder) Draws() []Op {
	var out []Op
	for _, op := range r.Ops {
		if op.Kind == OpDraw {
			out = append(out, op)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.Ops = r.Ops[:0]
}

// Trace renders the recorded calls one per line.
func (r *Recorder) Trace() string {
	var sb strings.Builder
	for _, op := range r.Ops {
		sb.WriteString(op.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
