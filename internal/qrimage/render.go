// Package qrimage renders envelope strings as QR code PNG images.
package qrimage

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/common"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
)

const (
	// DefaultSizePx is the edge length used when callers do not choose one.
	DefaultSizePx = 300
	// MaxSizePx bounds the work done for a single render.
	MaxSizePx = 4096
	// DefaultModulePx is the pixel size of one QR module in the natural symbol.
	DefaultModulePx = 10
)

// ParseLevel maps "low", "medium", "high" and "highest" to a recovery level.
func ParseLevel(s string) (qrcode.RecoveryLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "low", "l":
		return qrcode.Low, nil
	case "medium", "m":
		return qrcode.Medium, nil
	case "high", "q":
		return qrcode.High, nil
	case "highest", "h":
		return qrcode.Highest, nil
	default:
		return qrcode.Low, fmt.Errorf("unknown error correction level %q", s)
	}
}

// Renderer turns text into a square PNG. The zero value renders with low
// error correction and 10px modules.
type Renderer struct {
	Level    qrcode.RecoveryLevel
	ModulePx int
}

// NewRenderer returns a Renderer for the named error-correction level.
func NewRenderer(level string) (*Renderer, error) {
	l, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return &Renderer{Level: l, ModulePx: DefaultModulePx}, nil
}

// Render encodes text as a QR symbol and returns PNG bytes of exactly
// sizePx x sizePx. The symbol is first drawn at its natural size and then
// resampled with a Catmull-Rom filter when that differs from sizePx.
func (r *Renderer) Render(text string, sizePx int) ([]byte, error) {
	if sizePx <= 0 || sizePx > MaxSizePx {
		return nil, fmt.Errorf("%w: size %dpx outside 1..%d", common.ErrRenderFailed, sizePx, MaxSizePx)
	}

	q, err := qrcode.New(text, r.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrRenderFailed, err)
	}

	modulePx := r.ModulePx
	if modulePx <= 0 {
		modulePx = DefaultModulePx
	}
	src := q.Image(-modulePx)

	var out image.Image = src
	if b := src.Bounds(); b.Dx() != sizePx || b.Dy() != sizePx {
		dst := image.NewGray(image.Rect(0, 0, sizePx, sizePx))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
		out = dst
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("%w: png: %v", common.ErrRenderFailed, err)
	}
	return buf.Bytes(), nil
}

// RenderBase64 is Render with the PNG bytes base64 encoded.
func (r *Renderer) RenderBase64(text string, sizePx int) (string, error) {
	b, err := r.Render(text, sizePx)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
