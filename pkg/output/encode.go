package output

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

// ErrUnsupportedFormat is returned for image formats the encoder does not know
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Format is an output image container
type Format string

const (
	FormatPPM  Format = "ppm"
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
)

// ParseFormat maps a format name or file extension (with or without the dot)
// to a Format
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "ppm":
		return FormatPPM, nil
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "bmp":
		return FormatBMP, nil
	case "tif", "tiff":
		return FormatTIFF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// FormatFromPath picks the format from a file extension. "-" means PPM on stdout.
func FormatFromPath(path string) (Format, error) {
	if path == "-" {
		return FormatPPM, nil
	}
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnsupportedFormat, path)
	}
	return ParseFormat(ext)
}

// ContentType returns the MIME type for the format
func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatJPEG:
		return "image/jpeg"
	case FormatBMP:
		return "image/bmp"
	case FormatTIFF:
		return "image/tiff"
	}
	return "image/x-portable-pixmap"
}

// Encode writes img to w in the requested format
func Encode(w io.Writer, img *Image, format Format) error {
	if format == FormatPPM {
		return WritePPM(w, img)
	}

	rgba := img.ToRGBA()
	var err error
	switch format {
	case FormatPNG:
		err = png.Encode(w, rgba)
	case FormatJPEG:
		err = jpeg.Encode(w, rgba, &jpeg.Options{Quality: 95})
	case FormatBMP:
		err = bmp.Encode(w, rgba)
	case FormatTIFF:
		err = tiff.Encode(w, rgba, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(format))
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return nil
}

// Resize scales img so its width is at most maxWidth, keeping the aspect
// ratio. Images already narrow enough are returned unchanged.
func Resize(img *Image, maxWidth int) *Image {
	if maxWidth <= 0 || img.Width <= maxWidth {
		return img
	}

	height := img.Height * maxWidth / img.Width
	if height < 1 {
		height = 1
	}

	src := img.ToRGBA()
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	resized := NewImage(maxWidth, height)
	for y := 0; y < height; y++ {
		for x := 0; x < maxWidth; x++ {
			c := dst.RGBAAt(x, y)
			resized.Set(x, y, Pixel{R: int(c.R), G: int(c.G), B: int(c.B)})
		}
	}
	return resized
}
