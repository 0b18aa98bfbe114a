package services

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"log"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	lru "github.com/hashicorp/golang-lru/v2"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/codyseavey/nextbet/internal/metrics"
)

const (
	thumbnailMaxEdge   = 150
	thumbnailQuality   = 70
	thumbnailCacheSize = 50

	// maxImagePixels bounds the decoded canvas. A few hundred KB of PNG can
	// declare a multi-gigabyte image.
	maxImagePixels = 40_000_000
)

// Thumbnailer derives a small preview from an uploaded image reference
type Thumbnailer interface {
	Generate(src string) (string, error)
}

// ThumbnailService downsizes uploaded screenshots into JPEG data URLs for the
// history list. Identical sources are served from an LRU cache.
type ThumbnailService struct {
	cache *lru.Cache[string, string] // sha256(src) -> data URL
}

// NewThumbnailService creates a thumbnail service with a bounded cache
func NewThumbnailService() *ThumbnailService {
	cache, err := lru.New[string, string](thumbnailCacheSize)
	if err != nil {
		log.Printf("Thumbnail service: failed to create cache: %v", err)
	}
	return &ThumbnailService{cache: cache}
}

// Generate accepts a data URL (or bare base64) and returns a JPEG data URL whose
// longer edge is at most 150 pixels. Errors wrap ErrMalformedImage.
func (s *ThumbnailService) Generate(src string) (string, error) {
	sum := sha256.Sum256([]byte(src))
	key := hex.EncodeToString(sum[:])

	if s.cache != nil {
		if thumb, ok := s.cache.Get(key); ok {
			metrics.ThumbnailCacheHits.Inc()
			return thumb, nil
		}
		metrics.ThumbnailCacheMisses.Inc()
	}

	data, err := DecodeImageRef(src)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedImage, err)
	}

	img, err := decodeImage(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedImage, err)
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return "", fmt.Errorf("%w: empty bounds", ErrMalformedImage)
	}

	var buf bytes.Buffer
	if err := encodeThumbnail(&buf, img); err != nil {
		return "", err
	}

	thumb := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
	if s.cache != nil {
		s.cache.Add(key, thumb)
	}
	return thumb, nil
}

// DecodeImageRef extracts the raw bytes from a data URL or bare base64 string
func DecodeImageRef(src string) ([]byte, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, fmt.Errorf("empty image reference")
	}

	if !strings.HasPrefix(src, "data:") {
		return base64.StdEncoding.DecodeString(src)
	}

	header, payload, ok := strings.Cut(src[len("data:"):], ",")
	if !ok {
		return nil, fmt.Errorf("data URL has no payload")
	}
	if strings.HasSuffix(header, ";base64") {
		return base64.StdEncoding.DecodeString(payload)
	}
	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return nil, err
	}
	return []byte(decoded), nil
}

// encodeThumbnail scales img down and writes it as JPEG. Errors wrap
// ErrMalformedImage.
func encodeThumbnail(w io.Writer, img image.Image) error {
	if err := jpeg.Encode(w, scaleToFit(img, thumbnailMaxEdge), &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return fmt.Errorf("%w: encode thumbnail: %v", ErrMalformedImage, err)
	}
	return nil
}

func isSVG(data []byte) bool {
	return mimetype.Detect(data).Is("image/svg+xml")
}

// checkRaster reads only the image header. Unknown formats return
// image.ErrFormat; canvases above maxImagePixels return ErrTooManyPixels.
func checkRaster(data []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("empty bounds %dx%d", cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}
	return nil
}

// decodeImage handles the raster formats registered above plus SVG
func decodeImage(data []byte) (image.Image, error) {
	if isSVG(data) {
		return svgToImage(data, thumbnailMaxEdge)
	}
	if err := checkRaster(data); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

// scaleToFit shrinks src so its longer edge is at most maxEdge. Smaller images
// keep their size. Transparent areas come out white.
func scaleToFit(src image.Image, maxEdge int) image.Image {
	b := src.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())

	ratio := min(float64(maxEdge)/w, float64(maxEdge)/h, 1)
	outW := max(1, int(w*ratio))
	outH := max(1, int(h*ratio))

	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
