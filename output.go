package steg

import (
	"fmt"
	"io"
	"os"
)

// OutputLevel is the amount of console output an operation provides.
type OutputLevel uint8

const (
	OutputNone  OutputLevel = iota // No output at all.
	OutputSteps                    // One line per major step, plus warnings.
	OutputInfo                     // Steps, plus details about the images involved.
	OutputDebug                    // Everything, including per-pixel values.
)

// outputWriter is where levelled output goes. Tests swap it out.
var outputWriter io.Writer = os.Stdout

// String returns the name of the output level.
func (lvl OutputLevel) String() string {
	switch lvl {
	case OutputNone:
		return "none"
	case OutputSteps:
		return "steps"
	case OutputInfo:
		return "info"
	case OutputDebug:
		return "debug"
	default:
		return fmt.Sprintf("<unknown %d>", uint8(lvl))
	}
}

// printlnLvl prints a only if the current output level is at least the required one.
func printlnLvl(current, required OutputLevel, a ...interface{}) {
	if current < required || required == OutputNone {
		return
	}
	fmt.Fprintln(outputWriter, a...)
}
