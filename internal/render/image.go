package render

import (
	"bytes"
	"fmt"

	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/vgimg"
)

// DPI is the resolution every image is rasterised at
const DPI = 150

// Image is a rendered PNG tagged with its logical filename
type Image struct {
	Data     []byte
	Filename string
}

// ContentType returns the MIME type of the rendered data
func (img *Image) ContentType() string {
	return "image/png"
}

// newCanvas allocates a fresh raster canvas of the given size at DPI
func newCanvas(width, height vg.Length) *vgimg.Canvas {
	return vgimg.NewWith(
		vgimg.UseWH(width, height),
		vgimg.UseDPI(DPI),
	)
}

// encodePNG serialises a drawn canvas
func encodePNG(c *vgimg.Canvas) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
