package services

import (
	"bytes"
	"image"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
)

// svgToImage rasterises SVG data so its longer edge is maxEdge pixels,
// preserving aspect ratio. The background is white since thumbnails are JPEG.
func svgToImage(svgData []byte, maxEdge int) (image.Image, error) {
	if maxEdge <= 0 {
		maxEdge = thumbnailMaxEdge
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgData))
	if err != nil {
		return nil, err
	}

	// Fall back to a square when the SVG has no usable viewBox
	w, h := icon.ViewBox.W, icon.ViewBox.H
	if w <= 0 || h <= 0 {
		w, h = float64(maxEdge), float64(maxEdge)
	}

	scale := float64(maxEdge) / max(w, h)
	outW := max(1, int(w*scale))
	outH := max(1, int(h*scale))

	icon.SetTarget(0, 0, float64(outW), float64(outH))

	img := image.NewRGBA(image.Rect(0, 0, outW, outH))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(outW, outH, img, img.Bounds())
	raster := rasterx.NewDasher(outW, outH, scanner)
	icon.Draw(raster, 1.0)

	return img, nil
}
