// Package export renders solutions as standalone SVG documents.
package export

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/san-kum/rkode/internal/viz"
)

const (
	background = "#0a0a0a"
	padding    = 0.1
)

// DefaultPalette strokes successive curves.
var DefaultPalette = []string{"#00d7ff", "#ff5f87", "#afff00", "#ffaf00"}

// Curve is one polyline in data coordinates. Non-finite points break it.
type Curve struct {
	X, Y   []float64
	Stroke string
}

// WriteCanvasSVG writes every lit sub-pixel of a braille canvas as a dot,
// scale user units apart.
func WriteCanvasSVG(w io.Writer, canvas *viz.Canvas, scale float64) error {
	if canvas == nil {
		return fmt.Errorf("rkode: nil canvas")
	}
	cols, rows := canvas.Width*2, canvas.Height*4
	width, height := float64(cols)*scale, float64(rows)*scale

	bw := bufio.NewWriter(w)
	header(bw, width, height)
	fmt.Fprintln(bw, `<g fill="#00ff00">`)
	r := scale * 0.4
	for y := range rows {
		for x := range cols {
			if canvas.IsSet(x, y) {
				fmt.Fprintf(bw, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
					(float64(x)+0.5)*scale, (float64(y)+0.5)*scale, r)
			}
		}
	}
	fmt.Fprintln(bw, "</g>\n</svg>")
	return bw.Flush()
}

// WriteCurvesSVG scales all curves into one shared box of width x height
// pixels, with y growing upwards. Curves without a stroke take colors from
// DefaultPalette.
func WriteCurvesSVG(w io.Writer, curves []Curve, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("rkode: invalid svg size %dx%d", width, height)
	}
	xlo, xhi, ylo, yhi := math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)
	for _, c := range curves {
		for i := range min(len(c.X), len(c.Y)) {
			if !finite(c.X[i]) || !finite(c.Y[i]) {
				continue
			}
			xlo, xhi = math.Min(xlo, c.X[i]), math.Max(xhi, c.X[i])
			ylo, yhi = math.Min(ylo, c.Y[i]), math.Max(yhi, c.Y[i])
		}
	}
	if xlo > xhi {
		return fmt.Errorf("rkode: no finite points to draw")
	}
	xlo, xhi = pad(xlo, xhi)
	ylo, yhi = pad(ylo, yhi)

	fw, fh := float64(width), float64(height)
	bw := bufio.NewWriter(w)
	header(bw, fw, fh)
	for n, c := range curves {
		stroke := c.Stroke
		if stroke == "" {
			stroke = DefaultPalette[n%len(DefaultPalette)]
		}
		fmt.Fprintf(bw, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, stroke)
		move := true
		for i := range min(len(c.X), len(c.Y)) {
			if !finite(c.X[i]) || !finite(c.Y[i]) {
				move = true
				continue
			}
			x := (c.X[i] - xlo) / (xhi - xlo) * fw
			y := fh - (c.Y[i]-ylo)/(yhi-ylo)*fh
			op := "L"
			if move {
				op = "M"
			}
			if i > 0 {
				bw.WriteByte(' ')
			}
			fmt.Fprintf(bw, "%s%.1f,%.1f", op, x, y)
			move = false
		}
		fmt.Fprintln(bw, `"/>`)
	}
	fmt.Fprint(bw, "</svg>\n")
	return bw.Flush()
}

func header(w io.Writer, width, height float64) {
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}

func pad(lo, hi float64) (float64, float64) {
	span := hi - lo
	if span == 0 {
		span = 1
	}
	return lo - span*padding, hi + span*padding
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
