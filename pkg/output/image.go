package output

import (
	"fmt"
	"image"
	"image/color"
)

// Pixel is a tone-mapped color with each channel in [0, 255]
type Pixel struct {
	R, G, B int
}

// String formats the pixel as a PPM body line
func (p Pixel) String() string {
	return fmt.Sprintf("%d %d %d", p.R, p.G, p.B)
}

// Image is a row-major raster: row 0 is the top of the picture
type Image struct {
	Width  int
	Height int
	Pixels []Pixel
}

// NewImage allocates a black image
func NewImage(width, height int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Pixels: make([]Pixel, width*height),
	}
}

// At returns the pixel at column x of row y
func (img *Image) At(x, y int) Pixel {
	return img.Pixels[y*img.Width+x]
}

// Set stores the pixel at column x of row y
func (img *Image) Set(x, y int, p Pixel) {
	img.Pixels[y*img.Width+x] = p
}

// Row returns row y, sharing storage with the image
func (img *Image) Row(y int) []Pixel {
	return img.Pixels[y*img.Width : (y+1)*img.Width]
}

// SetRow copies a full row into place
func (img *Image) SetRow(y int, row []Pixel) {
	copy(img.Row(y), row)
}

// ToRGBA converts the image for the standard library encoders
func (img *Image) ToRGBA() *image.RGBA {
	rgba := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			p := img.At(x, y)
			rgba.SetRGBA(x, y, color.RGBA{
				R: uint8(p.R),
				G: uint8(p.G),
				B: uint8(p.B),
				A: 255,
			})
		}
	}
	return rgba
}
