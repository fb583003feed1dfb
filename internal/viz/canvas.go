package viz

import (
	"math"
	"strings"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set sets a pixel at (x, y) in sub-pixel coordinates. The canvas is
// (Width*2) x (Height*4) sub-pixels with y growing downwards.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// IsSet reports whether the sub-pixel at (x, y) is lit.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// PhasePortrait draws the curve (xs[i], ys[i]) scaled to fill a w x h
// character canvas. Non-finite points break the curve.
func PhasePortrait(xs, ys []float64, w, h int) *Canvas {
	c := NewCanvas(w, h)
	n := min(len(xs), len(ys))
	if n == 0 {
		return c
	}

	xlo, xhi := bounds(xs[:n])
	ylo, yhi := bounds(ys[:n])
	px := func(v float64) int { return int(math.Round((v - xlo) / (xhi - xlo) * float64(2*w-1))) }
	py := func(v float64) int { return int(math.Round((yhi - v) / (yhi - ylo) * float64(4*h-1))) }

	prevOK := false
	var x0, y0 int
	for i := range n {
		if !isFinite(xs[i]) || !isFinite(ys[i]) {
			prevOK = false
			continue
		}
		x1, y1 := px(xs[i]), py(ys[i])
		if prevOK {
			c.DrawLine(x0, y0, x1, y1)
		} else {
			c.Set(x1, y1)
		}
		x0, y0, prevOK = x1, y1, true
	}
	return c
}

// bounds returns the finite range of vs, widened when degenerate.
func bounds(vs []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range vs {
		if isFinite(v) {
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	if lo > hi {
		return -1, 1
	}
	if lo == hi {
		return lo - 1, hi + 1
	}
	return lo, hi
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
