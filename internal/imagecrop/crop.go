// Package imagecrop crops a reference image to the generation target frame.
// The crop window keeps the target aspect ratio and is positioned by
// fractional offsets (0.5/0.5 = center), then scaled to the exact target
// size.
package imagecrop

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	_ "image/gif"
	_ "image/jpeg"
)

var ErrEmptyImage = errors.New("imagecrop: empty image")

// Crop decodes src (png/jpeg/gif), crops it to the target aspect ratio at the
// given offsets and returns the result scaled to targetW x targetH, PNG
// encoded.
func Crop(src []byte, targetW, targetH int, offsetX, offsetY float64) ([]byte, error) {
	if len(src) == 0 {
		return nil, ErrEmptyImage
	}
	if targetW <= 0 || targetH <= 0 {
		return nil, fmt.Errorf("imagecrop: invalid target %dx%d", targetW, targetH)
	}
	offsetX = clamp01(offsetX)
	offsetY = clamp01(offsetY)

	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("imagecrop: decode: %w", err)
	}

	b := img.Bounds()
	srcW, srcH := b.Dx(), b.Dy()
	if srcW == 0 || srcH == 0 {
		return nil, ErrEmptyImage
	}

	window := Window(srcW, srcH, targetW, targetH, offsetX, offsetY)

	out := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	for y := 0; y < targetH; y++ {
		sy := window.Min.Y + y*window.Dy()/targetH
		for x := 0; x < targetW; x++ {
			sx := window.Min.X + x*window.Dx()/targetW
			out.Set(x, y, img.At(b.Min.X+sx, b.Min.Y+sy))
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("imagecrop: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Window computes the source rectangle that matches the target aspect ratio.
// A wider-than-target image loses width, a taller one loses height; the
// offsets shift the window within the slack.
func Window(srcW, srcH, targetW, targetH int, offsetX, offsetY float64) image.Rectangle {
	targetAspect := float64(targetW) / float64(targetH)
	srcAspect := float64(srcW) / float64(srcH)

	cropW, cropH := srcW, srcH
	x, y := 0, 0
	if srcAspect > targetAspect {
		cropW = int(float64(srcH) * targetAspect)
		x = int(float64(srcW-cropW) * offsetX)
	} else {
		cropH = int(float64(srcW) / targetAspect)
		y = int(float64(srcH-cropH) * offsetY)
	}
	if cropW < 1 {
		cropW = 1
	}
	if cropH < 1 {
		cropH = 1
	}
	return image.Rect(x, y, x+cropW, y+cropH)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
