package steg

import (
	"fmt"
)

// MergeConfig stores the configuration options for the MergeFiles operation.
type MergeConfig struct {
	// CarrierPath is the path on disk to the image that will hide the payload.
	CarrierPath string
	// PayloadPath is the path on disk to the image that will be hidden.
	PayloadPath string
	// OutPath is the path on disk to write the stego image. Its extension picks the format.
	OutPath string
	// Algorithm is the traversal to use. The zero value means AlgoSequential.
	Algorithm Algo
	// Workers is the number of workers for AlgoParallel. Values <= 0 use one per CPU.
	Workers int
}

// Merge hides payload in the low four bits of every channel of a copy of carrier.
// Each output channel keeps the carrier's high nibble and takes the payload's high nibble as its
// low nibble; wherever the payload has no pixel, black is hidden instead. The result has the
// carrier's size and colour model. Neither input is modified.
//
// A *SizeError is returned if the payload is wider or taller than the carrier.
func Merge(carrier, payload PixelGrid) (*Grid, error) {
	return MergeWith(carrier, payload, Options{})
}

// MergeWith is Merge with a choice of traversal.
func MergeWith(carrier, payload PixelGrid, opts Options) (*Grid, error) {
	cw, ch := carrier.Width(), carrier.Height()
	pw, ph := payload.Width(), payload.Height()
	if pw > cw || ph > ch {
		return nil, &SizeError{CarrierW: cw, CarrierH: ch, PayloadW: pw, PayloadH: ph}
	}

	spans, err := planSpans(cw, opts)
	if err != nil {
		return nil, err
	}

	out := NewGrid(carrier.ColourModel(), cw, ch)
	walk(spans, ch, func(_, x, y int) {
		c := carrier.PixelAt(x, y)
		p := Black
		if x < pw && y < ph {
			p = payload.PixelAt(x, y)
		}

		var m Pixel
		for i := range m {
			m[i] = mergeChannel(c[i], p[i])
		}
		out.SetPixel(x, y, m)
	})

	return out, nil
}

// MergeFiles hides the image at config.PayloadPath in the image at config.CarrierPath, and saves
// the result to config.OutPath.
func MergeFiles(config *MergeConfig, outputLevel OutputLevel) error {
	// Input validation
	if len(config.CarrierPath) <= 0 {
		return &InvalidFormatError{"CarrierPath is empty."}
	}
	if len(config.PayloadPath) <= 0 {
		return &InvalidFormatError{"PayloadPath is empty."}
	}
	if len(config.OutPath) <= 0 {
		return &InvalidFormatError{"OutPath is empty."}
	}
	if config.Algorithm != 0 && !config.Algorithm.IsValid() {
		return &InvalidFormatError{"Algorithm is invalid."}
	}

	printlnLvl(outputLevel, OutputSteps, fmt.Sprintf("Steg v%v.", Version()))
	printlnLvl(outputLevel, OutputDebug, "This tool has been set to display debug output.")

	printlnLvl(outputLevel, OutputSteps, fmt.Sprintf("Loading the carrier image from '%v'...", config.CarrierPath))
	carrier, err := loadGrid(config.CarrierPath, outputLevel)
	if err != nil {
		printlnLvl(outputLevel, OutputSteps, fmt.Sprintf("Unable to load the image at '%v'!", config.CarrierPath))
		return err
	}
	printGridInfo(outputLevel, "Carrier", carrier)

	printlnLvl(outputLevel, OutputSteps, fmt.Sprintf("Loading the payload image from '%v'...", config.PayloadPath))
	payload, err := loadGrid(config.PayloadPath, outputLevel)
	if err != nil {
		printlnLvl(outputLevel, OutputSteps, fmt.Sprintf("Unable to load the image at '%v'!", config.PayloadPath))
		return err
	}
	printGridInfo(outputLevel, "Payload", payload)

	if IsLossyFormat(config.OutPath) {
		printlnLvl(outputLevel, OutputSteps,
			fmt.Sprintf("Warning: '%v' will be written in a lossy format, which is likely to destroy the hidden image.", config.OutPath))
	}

	printlnLvl(outputLevel, OutputSteps, fmt.Sprintf("Merging the images (%v)...", algoOrDefault(config.Algorithm)))
	merged, err := MergeWith(carrier, payload, Options{Algorithm: config.Algorithm, Workers: config.Workers})
	if err != nil {
		printlnLvl(outputLevel, OutputSteps, "The payload image can't be hidden in the carrier image.")
		return err
	}

	printlnLvl(outputLevel, OutputSteps, fmt.Sprintf("Writing the stego image to '%v' now...", config.OutPath))
	if err = writeGrid(merged, config.OutPath, outputLevel); err != nil {
		printlnLvl(outputLevel, OutputSteps, "An error occurred while writing to the final image.")
		return err
	}

	printlnLvl(outputLevel, OutputSteps, "All done! c:")

	return nil
}

// Helper functions

func printGridInfo(outputLevel OutputLevel, name string, grid *Grid) {
	printlnLvl(outputLevel, OutputInfo,
		fmt.Sprintf("%v image info:\n\tDimensions: %dx%dpx\n\tColour model: %v",
			name, grid.W, grid.H, colourModelToStr(grid.Model)))
}

func algoOrDefault(algo Algo) Algo {
	if !algo.IsValid() {
		return AlgoSequential
	}
	return algo
}
