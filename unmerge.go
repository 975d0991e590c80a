package steg

import (
	"fmt"
)

// Types

// UnmergeConfig stores the configuration options for the UnmergeFiles operation.
type UnmergeConfig struct {
	ImagePath   string      // The path on disk to a stego image.
	OutPath     string      // The path on disk to write the recovered image. Its extension picks the format.
	Algorithm   Algo        // The traversal to use. The zero value means AlgoSequential.
	Workers     int         // The number of workers for AlgoParallel. Values <= 0 use one per CPU.
	OutputLevel OutputLevel // The amount of output to provide.
}

// Primary method

// Unmerge recovers the image hidden by Merge. Every channel of the result is the stego channel's
// low nibble moved up into the high nibble, so the hidden image comes back with its own low four
// bits zeroed.
//
// The result is cropped from (0, 0) to just past the last non-black pixel met while scanning
// x outer, y inner. This is not a true bounding box: a stray non-black pixel late in the scan
// widens the crop, and one that comes before a later non-black pixel in a further column can be
// cropped away. A stego image with nothing hidden in it gives back a 1x1 black image.
func Unmerge(stego PixelGrid) *Grid {
	out, _ := UnmergeWith(stego, Options{})
	return out
}

// UnmergeWith is Unmerge with a choice of traversal. Only an unknown algorithm makes it fail.
func UnmergeWith(stego PixelGrid, opts Options) (*Grid, error) {
	w, h := stego.Width(), stego.Height()

	spans, err := planSpans(w, opts)
	if err != nil {
		return nil, err
	}

	recovered := NewGrid(stego.ColourModel(), w, h)

	// Each span only ever touches its own entry.
	last := make([][2]int, len(spans))
	for i := range last {
		last[i] = [2]int{-1, -1}
	}

	walk(spans, h, func(span, x, y int) {
		s := stego.PixelAt(x, y)

		var p Pixel
		for i := range p {
			p[i] = unmergeChannel(s[i])
		}
		recovered.SetPixel(x, y, p)

		if p != Black {
			last[span] = [2]int{x, y}
		}
	})

	// Spans are in column order, so the last span that saw a non-black pixel holds the one
	// a single sequential scan would have seen last.
	boundX, boundY := 1, 1
	for i := len(last) - 1; i >= 0; i-- {
		if last[i][0] >= 0 {
			boundX, boundY = last[i][0]+1, last[i][1]+1
			break
		}
	}

	return recovered.Crop(0, 0, boundX, boundY), nil
}

// UnmergeFiles recovers the image hidden in the image at config.ImagePath, and saves the result
// to config.OutPath.
func UnmergeFiles(config UnmergeConfig) error {
	// Input validation
	if len(config.ImagePath) <= 0 {
		return &InvalidFormatError{"ImagePath is empty."}
	}
	if len(config.OutPath) <= 0 {
		return &InvalidFormatError{"OutPath is empty."}
	}
	if config.Algorithm != 0 && !config.Algorithm.IsValid() {
		return &InvalidFormatError{"Algorithm is invalid."}
	}

	printlnLvl(config.OutputLevel, OutputSteps, fmt.Sprintf("Steg v%v.", Version()))
	printlnLvl(config.OutputLevel, OutputDebug, "This tool has been set to display debug output.")

	printlnLvl(config.OutputLevel, OutputSteps, fmt.Sprintf("Loading the image from '%v'...", config.ImagePath))
	stego, err := loadGrid(config.ImagePath, config.OutputLevel)
	if err != nil {
		printlnLvl(config.OutputLevel, OutputSteps, fmt.Sprintf("Unable to load the image at '%v'!", config.ImagePath))
		return err
	}
	printGridInfo(config.OutputLevel, "Stego", stego)

	printlnLvl(config.OutputLevel, OutputSteps, fmt.Sprintf("Recovering the hidden image (%v)...", algoOrDefault(config.Algorithm)))
	recovered, err := UnmergeWith(stego, Options{Algorithm: config.Algorithm, Workers: config.Workers})
	if err != nil {
		return err
	}
	printlnLvl(config.OutputLevel, OutputInfo, fmt.Sprintf("Recovered image dimensions: %dx%dpx", recovered.W, recovered.H))

	if config.OutputLevel >= OutputDebug {
		for x := 0; x < recovered.W; x++ {
			for y := 0; y < recovered.H; y++ {
				printlnLvl(config.OutputLevel, OutputDebug, fmt.Sprintf("(%d, %d): %v", x, y, recovered.PixelAt(x, y)))
			}
		}
	}

	printlnLvl(config.OutputLevel, OutputSteps, fmt.Sprintf("Writing the recovered image to '%v'...", config.OutPath))
	if err = writeGrid(recovered, config.OutPath, config.OutputLevel); err != nil {
		printlnLvl(config.OutputLevel, OutputSteps, "An error occurred while writing the recovered image.")
		return err
	}

	printlnLvl(config.OutputLevel, OutputSteps, "All done! c:")

	return nil
}
