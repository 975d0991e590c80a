package steg

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func TestWriteAndLoadGrid(t *testing.T) {
	for _, name := range []string{"a.png", "a.bmp", "a.tif", "a.TIFF"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			want := noiseGrid(500, 9, 5)
			require.NoError(t, WriteGrid(want, path))

			got, err := LoadGrid(path)
			require.NoError(t, err)
			require.Equal(t, want.W, got.W)
			require.Equal(t, want.H, got.H)
			if diff := cmp.Diff(want.Pix, got.Pix); diff != "" {
				t.Errorf("LoadGrid() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWriteGrid16Bit(t *testing.T) {
	for _, model := range []color.Model{color.RGBA64Model, color.NRGBA64Model} {
		path := filepath.Join(t.TempDir(), "deep.png")
		want := noiseGrid(501, 4, 3)
		want.Model = model
		require.NoError(t, WriteGrid(want, path))

		got, err := LoadGrid(path)
		require.NoError(t, err)
		assert.Equal(t, want.Pix, got.Pix, colourModelToStr(model))
	}
}

func TestWriteGridUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"out.xyz", "out"} {
		path := filepath.Join(dir, name)
		err := WriteGrid(noiseGrid(502, 2, 2), path)

		var unsupported *UnsupportedFormatError
		require.True(t, errors.As(err, &unsupported), "got %v", err)
		assert.Equal(t, path, unsupported.Path)

		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr))
	}
}

func TestWriteGridUnknownModel(t *testing.T) {
	g := noiseGrid(503, 2, 2)
	g.Model = color.GrayModel
	err := WriteGrid(g, filepath.Join(t.TempDir(), "gray.png"))
	assert.Equal(t, unknownColourModelError{}, err)
}

func TestIsLossyFormat(t *testing.T) {
	assert.True(t, IsLossyFormat("out.jpg"))
	assert.True(t, IsLossyFormat("OUT.JPEG"))
	assert.False(t, IsLossyFormat("out.png"))
	assert.False(t, IsLossyFormat("out.bmp"))
}

func TestLoadGridMissingFile(t *testing.T) {
	_, err := LoadGrid(filepath.Join(t.TempDir(), "nope.png"))
	assert.True(t, errors.Is(err, os.ErrNotExist), "got %v", err)
}

func TestLoadGridGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.png")
	require.NoError(t, os.WriteFile(path, []byte("definitely not an image"), 0o600))

	_, err := LoadGrid(path)
	assert.True(t, errors.Is(err, image.ErrFormat), "got %v", err)
}

func TestReadGridKeepsColourModel(t *testing.T) {
	nrgba := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			nrgba.Set(x, y, color.NRGBA{200, 100, 50, 0xff})
		}
	}
	nrgba.Set(1, 1, color.NRGBA{10, 20, 30, 0xff})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, nrgba))

	// An opaque NRGBA image is stored as plain RGB, so it comes back as RGBA.
	grid, format, err := readGrid(&buf)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, color.RGBAModel, grid.Model)
	assert.Equal(t, Pixel{10, 20, 30}, grid.PixelAt(1, 1))
	assert.Equal(t, Pixel{200, 100, 50}, grid.PixelAt(0, 0))

	assert.Equal(t, color.NRGBAModel, gridFromImage(nrgba).Model)
	assert.Equal(t, color.RGBA64Model, gridFromImage(image.NewRGBA64(image.Rect(0, 0, 1, 1))).Model)
	assert.Equal(t, color.NRGBA64Model, gridFromImage(image.NewNRGBA64(image.Rect(0, 0, 1, 1))).Model)
}

func TestReadGridTranslucentNRGBA(t *testing.T) {
	nrgba := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	nrgba.Set(0, 0, color.NRGBA{10, 20, 30, 0xff})
	nrgba.Set(1, 0, color.NRGBA{40, 50, 60, 0x80})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, nrgba))

	// With any pixel short of opaque, the alpha channel is kept and so is the model.
	grid, _, err := readGrid(&buf)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBAModel, grid.Model)
	assert.Equal(t, Pixel{10, 20, 30}, grid.PixelAt(0, 0))
	assert.Equal(t, Pixel{40, 50, 60}, grid.PixelAt(1, 0))
}

func TestReadGridConvertsOtherModels(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 3, 1))
	gray.SetGray(2, 0, color.Gray{Y: 77})
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, gray))

	grid, format, err := readGrid(&buf)
	require.NoError(t, err)
	assert.Equal(t, "bmp", format)
	assert.Equal(t, color.RGBAModel, grid.Model)
	assert.Equal(t, Pixel{77, 77, 77}, grid.PixelAt(2, 0))
}

func TestGridFromImageOffsetBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(5, 7, 8, 9))
	img.Set(5, 7, color.RGBA{1, 2, 3, 0xff})
	img.Set(7, 8, color.RGBA{4, 5, 6, 0xff})

	grid := gridFromImage(img)
	require.Equal(t, 3, grid.W)
	require.Equal(t, 2, grid.H)
	assert.Equal(t, Pixel{1, 2, 3}, grid.PixelAt(0, 0))
	assert.Equal(t, Pixel{4, 5, 6}, grid.PixelAt(2, 1))
}

func TestMergeFilesWarnsOnLossyOutput(t *testing.T) {
	var out bytes.Buffer
	swapOutput(t, &out)

	dir := t.TempDir()
	carrierPath := filepath.Join(dir, "carrier.png")
	payloadPath := filepath.Join(dir, "payload.png")
	require.NoError(t, WriteGrid(noiseGrid(504, 4, 4), carrierPath))
	require.NoError(t, WriteGrid(noiseGrid(505, 2, 2), payloadPath))

	require.NoError(t, MergeFiles(&MergeConfig{
		CarrierPath: carrierPath,
		PayloadPath: payloadPath,
		OutPath:     filepath.Join(dir, "stego.jpg"),
	}, OutputSteps))
	assert.Contains(t, out.String(), "lossy format")
	assert.Contains(t, out.String(), "All done!")
}
