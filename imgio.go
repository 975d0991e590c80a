package steg

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // Register GIF decoding.
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // Register WebP decoding.
)

const jpegQuality = 95

// Primary methods

// LoadGrid decodes the image file at imgPath into a Grid.
func LoadGrid(imgPath string) (*Grid, error) {
	return loadGrid(imgPath, OutputNone)
}

// WriteGrid encodes grid to imgPath, in the format named by the path's extension.
func WriteGrid(grid *Grid, imgPath string) error {
	return writeGrid(grid, imgPath, OutputNone)
}

// IsLossyFormat reports whether writing an image to imgPath would discard low-order bits.
func IsLossyFormat(imgPath string) bool {
	switch strings.ToLower(filepath.Ext(imgPath)) {
	case ".jpg", ".jpeg":
		return true
	default:
		return false
	}
}

func loadGrid(imgPath string, outputLevel OutputLevel) (grid *Grid, err error) {
	imgFile, err := os.Open(imgPath)
	if err != nil {
		printlnLvl(outputLevel, OutputSteps, "Unable to open the image!", err.Error())
		return nil, fmt.Errorf("open %s: %w", imgPath, err)
	}

	defer func() {
		if cerr := imgFile.Close(); cerr != nil {
			printlnLvl(outputLevel, OutputSteps, fmt.Sprintf("Error closing the file '%v': %v", imgPath, cerr.Error()))
		}
	}()

	grid, format, err := readGrid(imgFile)
	if err != nil {
		printlnLvl(outputLevel, OutputSteps, "The image couldn't be decoded:", err.Error())
		return nil, fmt.Errorf("decode %s: %w", imgPath, err)
	}
	printlnLvl(outputLevel, OutputDebug, fmt.Sprintf("Decoded '%v' as %v: %v", imgPath, format, grid))

	return grid, nil
}

func writeGrid(grid *Grid, outPath string, outputLevel OutputLevel) (err error) {
	ext := strings.ToLower(filepath.Ext(outPath))
	var encode func(io.Writer, image.Image) error
	switch ext {
	case ".png":
		encoder := png.Encoder{CompressionLevel: png.BestCompression}
		encode = encoder.Encode
	case ".bmp":
		encode = bmp.Encode
	case ".tif", ".tiff":
		encode = func(w io.Writer, img image.Image) error {
			return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
		}
	case ".jpg", ".jpeg":
		encode = func(w io.Writer, img image.Image) error {
			return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
		}
	default:
		printlnLvl(outputLevel, OutputSteps, "Unknown output image format.")
		return &UnsupportedFormatError{Path: outPath, Ext: ext}
	}

	img, err := gridToImage(grid)
	if err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		printlnLvl(outputLevel, OutputSteps, fmt.Sprintf("There was an error creating the file '%v'.", outPath))
		return fmt.Errorf("create %s: %w", outPath, err)
	}

	defer func() {
		if cerr := f.Close(); cerr != nil {
			printlnLvl(outputLevel, OutputSteps, fmt.Sprintf("Error closing the file '%v': %v", outPath, cerr.Error()))
			if err == nil {
				err = fmt.Errorf("close %s: %w", outPath, cerr)
			}
		}
	}()

	if err = encode(f, img); err != nil {
		printlnLvl(outputLevel, OutputSteps, "There was an error encoding the image to the new file.")
		return fmt.Errorf("encode %s: %w", outPath, err)
	}

	return nil
}

// Helper functions

// readGrid decodes any registered image format. Alpha is dropped. The colour models that carry
// 8 or 16 bits per RGB channel are kept as-is; everything else is read as RGB and recorded as RGBA.
func readGrid(r io.Reader) (*Grid, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", err
	}
	return gridFromImage(img), format, nil
}

func gridFromImage(img image.Image) *Grid {
	dims := img.Bounds()

	// Each colour model has to be handled individually
	var model color.Model
	switch img.(type) {
	case *image.RGBA:
		model = color.RGBAModel
	case *image.NRGBA:
		model = color.NRGBAModel
	case *image.RGBA64:
		model = color.RGBA64Model
	case *image.NRGBA64:
		model = color.NRGBA64Model
	default:
		model = color.RGBAModel
	}

	grid := NewGrid(model, dims.Dx(), dims.Dy())
	for x := 0; x < grid.W; x++ {
		for y := 0; y < grid.H; y++ {
			c := color.NRGBAModel.Convert(img.At(dims.Min.X+x, dims.Min.Y+y)).(color.NRGBA)
			grid.SetPixel(x, y, Pixel{c.R, c.G, c.B})
		}
	}
	return grid
}

// gridToImage builds a fully opaque image of the grid's colour model.
func gridToImage(grid *Grid) (image.Image, error) {
	rect := image.Rectangle{Max: image.Point{grid.W, grid.H}}

	switch grid.Model {
	case color.RGBAModel, nil:
		simg := image.NewRGBA(rect)
		fillPix(simg.Pix, grid, 1)
		return simg, nil
	case color.NRGBAModel:
		simg := image.NewNRGBA(rect)
		fillPix(simg.Pix, grid, 1)
		return simg, nil
	case color.RGBA64Model:
		simg := image.NewRGBA64(rect)
		fillPix(simg.Pix, grid, 2)
		return simg, nil
	case color.NRGBA64Model:
		simg := image.NewNRGBA64(rect)
		fillPix(simg.Pix, grid, 2)
		return simg, nil
	default:
		return nil, unknownColourModelError{}
	}
}

// fillPix writes the grid into a row-major RGBA-layout Pix array with bytesPerChannel bytes per
// channel. Image raw Pix arrays store multi-byte channel values in big-endian order, so an 8-bit
// value v is widened to v<<8|v.
func fillPix(pix []uint8, grid *Grid, bytesPerChannel int) {
	const channelsPerPix = 4
	for y := 0; y < grid.H; y++ {
		for x := 0; x < grid.W; x++ {
			p := grid.PixelAt(x, y)
			base := (y*grid.W + x) * channelsPerPix * bytesPerChannel
			for c := 0; c < channelsPerPix; c++ {
				v := uint8(0xff)
				if c < len(p) {
					v = p[c]
				}
				for k := 0; k < bytesPerChannel; k++ {
					pix[base+c*bytesPerChannel+k] = v
				}
			}
		}
	}
}

func colourModelToStr(model color.Model) string {
	switch model {
	case color.Alpha16Model:
		return "Alpha16"
	case color.AlphaModel:
		return "Alpha"
	case color.CMYKModel:
		return "CMYK"
	case color.Gray16Model:
		return "Gray16"
	case color.GrayModel:
		return "Gray"
	case color.NRGBA64Model:
		return "NRGBA64"
	case color.NRGBAModel:
		return "NRGBA"
	case color.RGBA64Model:
		return "RGBA64"
	case color.RGBAModel:
		return "RGBA"
	case color.NYCbCrAModel:
		return "NYCbCrA"
	case color.YCbCrModel:
		return "YCbCr"
	default:
		return "<Unknown>"
	}
}
