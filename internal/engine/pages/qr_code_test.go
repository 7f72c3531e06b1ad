package pages

import (
	"bytes"
	"image/png"
	"testing"

	apperrors "zettanote/internal/pkg/errors"
)

func TestGenerateQRCode(t *testing.T) {
	publicURL := "https://zettanote.example/public/0b5f7c1e-8e1a-4f0a-9d0e-6f3c2b1a0d9e"

	tests := []struct {
		name      string
		size      int
		wantPixel int
		wantKind  apperrors.Kind
	}{
		{name: "requested size", size: 256, wantPixel: 256},
		{name: "zero falls back to default", size: 0, wantPixel: 512},
		{name: "smallest allowed", size: 128, wantPixel: 128},
		{name: "below minimum", size: 64, wantKind: apperrors.KindValidation},
		{name: "above maximum", size: 4096, wantKind: apperrors.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := GenerateQRCode(publicURL, tt.size)
			if tt.wantKind != "" {
				if got := apperrors.KindOf(err); got != tt.wantKind {
					t.Fatalf("kind = %s, want %s (err %v)", got, tt.wantKind, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("GenerateQRCode: %v", err)
			}

			img, err := png.Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("output is not a PNG: %v", err)
			}
			if b := img.Bounds(); b.Dx() != tt.wantPixel || b.Dy() != tt.wantPixel {
				t.Errorf("image is %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantPixel, tt.wantPixel)
			}
		})
	}
}
