package steg

import (
	"fmt"
	"image"
	"image/color"
	"runtime"

	"github.com/zedseven/binmani"
	"github.com/zedseven/stegmerge/internal/algos"
	"golang.org/x/sync/errgroup"
)

const (
	nibbleBits uint8 = 4
	VersionMax uint8 = 1
	VersionMid uint8 = 0
	VersionMin uint8 = 0
)

// Shared types

// Pixel is an (R, G, B) triple of 8-bit channel values.
type Pixel [3]uint8

// Black is the pixel used wherever no payload pixel exists.
var Black = Pixel{0, 0, 0}

// PixelGrid is a read-only, random-access view over a rectangle of pixels anchored at (0, 0).
type PixelGrid interface {
	Width() int
	Height() int
	ColourModel() color.Model
	PixelAt(x, y int) Pixel
}

// Grid is an in-memory PixelGrid owned by whoever created it.
// It also satisfies image.Image; At reports colours in the grid's own colour model.
type Grid struct {
	W, H  int
	Model color.Model
	Pix   []Pixel // Column-major: the pixel at (x, y) lives at Pix[x*H+y].
}

// NewGrid allocates a black grid of the given colour model and size.
func NewGrid(model color.Model, w, h int) *Grid {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Grid{W: w, H: h, Model: model, Pix: make([]Pixel, w*h)}
}

func (g *Grid) Width() int               { return g.W }
func (g *Grid) Height() int              { return g.H }
func (g *Grid) ColourModel() color.Model { return g.Model }

// PixelAt returns the pixel at (x, y), or Black outside the grid.
func (g *Grid) PixelAt(x, y int) Pixel {
	if !g.contains(x, y) {
		return Black
	}
	return g.Pix[x*g.H+y]
}

// SetPixel writes the pixel at (x, y). Writes outside the grid are ignored.
func (g *Grid) SetPixel(x, y int, p Pixel) {
	if !g.contains(x, y) {
		return
	}
	g.Pix[x*g.H+y] = p
}

// Crop copies the rectangle (x0, y0)-(x1, y1) out of the grid, clipped to its bounds,
// into a new grid anchored at (0, 0).
func (g *Grid) Crop(x0, y0, x1, y1 int) *Grid {
	r := image.Rect(x0, y0, x1, y1).Intersect(image.Rect(0, 0, g.W, g.H))
	out := NewGrid(g.Model, r.Dx(), r.Dy())
	for x := 0; x < out.W; x++ {
		copy(out.Pix[x*out.H:(x+1)*out.H], g.Pix[(r.Min.X+x)*g.H+r.Min.Y:])
	}
	return out
}

func (g *Grid) contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.W && y < g.H
}

// image.Image

func (g *Grid) ColorModel() color.Model { return g.Model }
func (g *Grid) Bounds() image.Rectangle { return image.Rect(0, 0, g.W, g.H) }

func (g *Grid) At(x, y int) color.Color {
	p := g.PixelAt(x, y)
	c := color.RGBA{R: p[0], G: p[1], B: p[2], A: 0xff}
	if g.Model == nil {
		return c
	}
	return g.Model.Convert(c)
}

func (g *Grid) String() string {
	return fmt.Sprintf("{%dx%d %v}", g.W, g.H, colourModelToStr(g.Model))
}

// Options selects how a transform walks the grid.
type Options struct {
	// Algorithm is the traversal to use. The zero value means AlgoSequential.
	Algorithm Algo
	// Workers is the number of parallel workers for AlgoParallel. Values <= 0 use one per CPU.
	Workers int
}

// Algo is a supported traversal algorithm.
type Algo = algos.Algo

const (
	AlgoSequential = algos.AlgoSequential
	AlgoParallel   = algos.AlgoParallel
)

// ParseAlgo parses an algorithm name, returning an invalid Algo if it is not recognized.
func ParseAlgo(name string) Algo {
	return algos.StringToAlgo(name)
}

// Error types

type unknownColourModelError struct{}

func (e unknownColourModelError) Error() string {
	return "The colour model of the provided Image is unknown."
}

// InvalidFormatError is returned when a configuration value is missing or malformed.
type InvalidFormatError struct {
	ErrorDesc string
}

func (e InvalidFormatError) Error() string {
	if len(e.ErrorDesc) > 0 {
		return e.ErrorDesc
	}
	return "The provided data is of an invalid format."
}

// SizeError is returned by Merge when the payload does not fit within the carrier along either axis.
type SizeError struct {
	CarrierW, CarrierH int
	PayloadW, PayloadH int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("The payload image (%dx%d px) must not be larger than the carrier image (%dx%d px) in either dimension.",
		e.PayloadW, e.PayloadH, e.CarrierW, e.CarrierH)
}

// UnsupportedFormatError is returned when an image can't be written in the format its path asks for.
type UnsupportedFormatError struct {
	Path string
	Ext  string
}

func (e *UnsupportedFormatError) Error() string {
	if len(e.Ext) <= 0 {
		return fmt.Sprintf("Unable to tell which image format to write '%v' as: the path has no extension.", e.Path)
	}
	return fmt.Sprintf("The image format '%v' is not supported for writing '%v'.", e.Ext, e.Path)
}

// Library methods

func Version() string {
	return fmt.Sprintf("%02d.%02d.%02d", VersionMax, VersionMid, VersionMin)
}

// Nibble helpers

// highNibble returns bits 7..4 of v.
func highNibble(v uint8) uint16 {
	return binmani.ReadFrom(uint16(v), nibbleBits, nibbleBits)
}

// lowNibble returns bits 3..0 of v.
func lowNibble(v uint8) uint16 {
	return binmani.ReadFrom(uint16(v), 0, nibbleBits)
}

// mergeChannel keeps the carrier's high nibble and stores the payload's high nibble below it.
func mergeChannel(carrier, payload uint8) uint8 {
	return uint8(binmani.WriteTo(uint16(carrier), 0, nibbleBits, highNibble(payload)))
}

// unmergeChannel moves the stored nibble back up, leaving the low bits zero.
func unmergeChannel(stego uint8) uint8 {
	return uint8(binmani.WriteTo(0, nibbleBits, nibbleBits, lowNibble(stego)))
}

// Shared methods

// planSpans picks the column spans a transform over a grid w pixels wide will walk.
func planSpans(w int, opts Options) ([]algos.Span, error) {
	algo := opts.Algorithm
	if algo == algos.AlgoUnknown {
		algo = AlgoSequential
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return algos.AlgoSpans(algo, w, workers)
}

// walk visits every coordinate of the spans over a grid h pixels tall. Within a span, columns
// are visited in order, x outer and y inner, and visit is told which span it is in. When there is
// more than one span they run concurrently, but no coordinate is visited twice.
func walk(spans []algos.Span, h int, visit func(span, x, y int)) {
	visitSpan := func(i int) {
		next := spans[i].Addressor(h)
		for {
			x, y, err := next()
			if err != nil {
				return
			}
			visit(i, x, y)
		}
	}

	if len(spans) <= 1 {
		for i := range spans {
			visitSpan(i)
		}
		return
	}

	var g errgroup.Group
	for i := range spans {
		i := i
		g.Go(func() error {
			visitSpan(i)
			return nil
		})
	}
	// Workers never fail.
	_ = g.Wait()
}
