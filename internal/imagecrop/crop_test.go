package imagecrop

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestWindow(t *testing.T) {
	tests := []struct {
		name               string
		srcW, srcH         int
		targetW, targetH   int
		offsetX, offsetY   float64
		wantMinX, wantMinY int
		wantW, wantH       int
	}{
		{
			name: "wider source loses width, centered",
			srcW: 2560, srcH: 720, targetW: 1280, targetH: 720,
			offsetX: 0.5, offsetY: 0.5,
			wantMinX: 640, wantMinY: 0, wantW: 1280, wantH: 720,
		},
		{
			name: "taller source loses height, centered",
			srcW: 1280, srcH: 1440, targetW: 1280, targetH: 720,
			offsetX: 0.5, offsetY: 0.5,
			wantMinX: 0, wantMinY: 360, wantW: 1280, wantH: 720,
		},
		{
			name: "matching aspect keeps everything",
			srcW: 640, srcH: 360, targetW: 1280, targetH: 720,
			offsetX: 0.5, offsetY: 0.5,
			wantMinX: 0, wantMinY: 0, wantW: 640, wantH: 360,
		},
		{
			name: "offset zero pins the window to the origin",
			srcW: 2560, srcH: 720, targetW: 1280, targetH: 720,
			offsetX: 0, offsetY: 0,
			wantMinX: 0, wantMinY: 0, wantW: 1280, wantH: 720,
		},
		{
			name: "offset one pins the window to the far edge",
			srcW: 2560, srcH: 720, targetW: 1280, targetH: 720,
			offsetX: 1, offsetY: 1,
			wantMinX: 1280, wantMinY: 0, wantW: 1280, wantH: 720,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Window(tt.srcW, tt.srcH, tt.targetW, tt.targetH, tt.offsetX, tt.offsetY)
			if got.Min.X != tt.wantMinX || got.Min.Y != tt.wantMinY {
				t.Fatalf("origin = (%d,%d), want (%d,%d)", got.Min.X, got.Min.Y, tt.wantMinX, tt.wantMinY)
			}
			if got.Dx() != tt.wantW || got.Dy() != tt.wantH {
				t.Fatalf("size = %dx%d, want %dx%d", got.Dx(), got.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestCropProducesTargetFrame(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 100; x++ {
			src.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	out, err := Crop(buf.Bytes(), 32, 18, 0.5, 0.5)
	if err != nil {
		t.Fatalf("crop: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 18 {
		t.Fatalf("result frame = %dx%d, want 32x18", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestCropRejectsBadInput(t *testing.T) {
	if _, err := Crop(nil, 100, 100, 0.5, 0.5); err == nil {
		t.Fatal("empty input accepted")
	}
	if _, err := Crop([]byte("not an image"), 100, 100, 0.5, 0.5); err == nil {
		t.Fatal("garbage input accepted")
	}
	if _, err := Crop([]byte{1}, 0, 100, 0.5, 0.5); err == nil {
		t.Fatal("zero target accepted")
	}
}
