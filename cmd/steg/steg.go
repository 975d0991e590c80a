package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	steg "github.com/zedseven/stegmerge"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// Program entry point

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return exitUsage
	}

	var err error
	switch args[0] {
	case "merge":
		err = runMerge(args[1:], stderr)
	case "unmerge":
		err = runUnmerge(args[1:], stderr)
	case "version":
		fmt.Fprintln(stderr, "steg", steg.Version())
		return exitOK
	case "help", "-h", "--help":
		printUsage(stderr)
		return exitOK
	default:
		fmt.Fprintf(stderr, "Unknown command '%v'.\n\n", args[0])
		printUsage(stderr)
		return exitUsage
	}

	var usage *usageError
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.As(err, &usage):
		fmt.Fprintln(stderr, usage.msg)
		return exitUsage
	default:
		fmt.Fprintln(stderr, "Error:", err)
		return exitError
	}
}

// usageError is returned when the command line itself is wrong, rather than the operation failing.
type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

type commonFlags struct {
	algo    string
	workers int
	verbose uint
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.algo, "algo", "sequential", "The pixel traversal to use (sequential, parallel)")
	fs.IntVar(&c.workers, "workers", 0, "The number of workers for the parallel traversal (0 = one per CPU)")
	fs.UintVar(&c.verbose, "v", uint(steg.OutputSteps), "The amount of output to provide (0 = none, 1 = steps, 2 = info, 3 = debug)")
}

func (c *commonFlags) parse() (steg.Algo, steg.OutputLevel, error) {
	algo := steg.ParseAlgo(c.algo)
	if !algo.IsValid() {
		return algo, 0, &usageError{fmt.Sprintf("Unknown algorithm '%v'.", c.algo)}
	}
	if c.verbose > uint(steg.OutputDebug) {
		return algo, 0, &usageError{fmt.Sprintf("The output level must be between 0 and %d.", steg.OutputDebug)}
	}
	return algo, steg.OutputLevel(c.verbose), nil
}

// parseFlags parses args into fs, reporting anything but a help request as a usage error.
func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return &usageError{err.Error()}
	}
	return nil
}

func runMerge(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("merge", flag.ContinueOnError)
	fs.SetOutput(stderr)

	carrierPath := fs.String("img1", "", "The filepath to the image that will hide another image")
	payloadPath := fs.String("img2", "", "The filepath to the image that will be hidden")
	outPath := fs.String("output", "", "The filepath to write the merged image to")
	var common commonFlags
	common.register(fs)

	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if len(*carrierPath) <= 0 || len(*payloadPath) <= 0 || len(*outPath) <= 0 {
		fs.PrintDefaults()
		return &usageError{"merge needs -img1, -img2 and -output."}
	}
	algo, outputLevel, err := common.parse()
	if err != nil {
		return err
	}

	return steg.MergeFiles(&steg.MergeConfig{
		CarrierPath: *carrierPath,
		PayloadPath: *payloadPath,
		OutPath:     *outPath,
		Algorithm:   algo,
		Workers:     common.workers,
	}, outputLevel)
}

func runUnmerge(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("unmerge", flag.ContinueOnError)
	fs.SetOutput(stderr)

	imgPath := fs.String("img", "", "The filepath to the merged image")
	outPath := fs.String("output", "", "The filepath to write the recovered image to")
	var common commonFlags
	common.register(fs)

	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if len(*imgPath) <= 0 || len(*outPath) <= 0 {
		fs.PrintDefaults()
		return &usageError{"unmerge needs -img and -output."}
	}
	algo, outputLevel, err := common.parse()
	if err != nil {
		return err
	}

	return steg.UnmergeFiles(steg.UnmergeConfig{
		ImagePath:   *imgPath,
		OutPath:     *outPath,
		Algorithm:   algo,
		Workers:     common.workers,
		OutputLevel: outputLevel,
	})
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `Usage:
  steg merge -img1 <carrier> -img2 <payload> -output <path> [-algo sequential|parallel] [-workers N] [-v level]
  steg unmerge -img <stego> -output <path> [-algo sequential|parallel] [-workers N] [-v level]
  steg version
  steg help

The output format is picked from the output path's extension (.png, .bmp, .tif, .tiff, .jpg, .jpeg).`)
}
