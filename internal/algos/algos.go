package algos

import (
	"fmt"
	"strings"

	"github.com/zedseven/stegmerge/internal/util"
)

// Algorithm definitions

// Defines a supported traversal algorithm type.
type Algo int

// Simply determines whether a given algorithm is valid.
func (algo Algo) IsValid() bool {
	return algo > AlgoUnknown && algo <= maxAlgoVal
}

// Returns the name of the algorithm, or "<unknown>" if unknown.
func (algo Algo) String() string {
	switch algo {
	case AlgoSequential:
		return "sequential"
	case AlgoParallel:
		return "parallel"
	default:
		return "<unknown>"
	}
}

const (
	AlgoUnknown    Algo = iota     // An unknown algorithm type.
	AlgoSequential Algo = iota     // Visits every column in order on the calling goroutine.
	AlgoParallel   Algo = iota     // Splits the columns into disjoint spans, one worker per span.
	maxAlgoVal     Algo = iota - 1 // The maximum algorithm value, used for validity checking.
)

// Error types

// Thrown when an unknown algorithm type is provided.
type UnknownAlgoError struct {
	Algorithm Algo
}

func (e UnknownAlgoError) Error() string {
	return fmt.Sprintf("The specified algorithm (%d) does not exist.", e.Algorithm)
}

// Thrown when an addressor is called but its pool of coordinates to hand out is empty.
type EmptyPoolError struct{}

func (e EmptyPoolError) Error() string {
	return "The pool of pixel addresses is empty."
}

// Spans

// Span is a contiguous, half-open range of columns [X0, X1).
type Span struct {
	X0, X1 int
}

// Width returns the number of columns in the span.
func (s Span) Width() int {
	return s.X1 - s.X0
}

// Addressor returns the coordinates of the span's columns over a grid h pixels tall,
// x outer and y inner.
func (s Span) Addressor(h int) func() (x, y int, err error) {
	pos := -1
	posMax := s.Width() * h
	return func() (int, int, error) {
		pos++
		if pos >= posMax || h <= 0 {
			return -1, -1, &EmptyPoolError{}
		}
		// Would normally floor here, but since all values are >= 0, integer division handles this for us
		return s.X0 + pos/h, pos % h, nil
	}
}

// ColumnSpans splits w columns into at most workers contiguous spans of near-equal width.
// The spans are in column order and together cover [0, w) exactly once.
func ColumnSpans(w, workers int) []Span {
	if w <= 0 {
		return nil
	}
	workers = util.Clamp(1, w, workers)
	spans := make([]Span, 0, workers)
	base, extra := w/workers, w%workers
	x := 0
	for i := 0; i < workers; i++ {
		n := base
		if i < extra {
			n++
		}
		spans = append(spans, Span{x, x + n})
		x += n
	}
	return spans
}

// Algorithm closures

// An addressor that works sequentially over a w by h grid, x outer and y inner.
func SequentialAddressor(w, h int) func() (x, y int, err error) {
	return Span{0, w}.Addressor(h)
}

// Algorithm type interfacing methods

// AlgoSpans returns the column spans a given algorithm visits over a grid w pixels wide.
func AlgoSpans(algo Algo, w, workers int) ([]Span, error) {
	switch algo {
	case AlgoSequential:
		return ColumnSpans(w, 1), nil
	case AlgoParallel:
		return ColumnSpans(w, workers), nil
	default:
		return nil, &UnknownAlgoError{algo}
	}
}

// Simply parses a string into an algorithm type, or AlgoUnknown if the string is not recognized.
func StringToAlgo(str string) Algo {
	switch strings.ToLower(str) {
	case "sequential":
		return AlgoSequential
	case "parallel":
		return AlgoParallel
	default:
		return AlgoUnknown
	}
}
