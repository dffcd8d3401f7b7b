package files

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// MaxImageDimension bounds both image sides, in pixels.
const MaxImageDimension = 5000

// imageToPNG decodes any registered format and re-encodes it as PNG with
// transparency flattened onto white. Dimensions are checked before the
// pixels are decoded.
func imageToPNG(data []byte) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Join(ErrImage, err)
	}
	if cfg.Width > MaxImageDimension || cfg.Height > MaxImageDimension {
		return nil, fmt.Errorf("%w: %dx%d, limit is %dx%d",
			ErrImageTooLarge, cfg.Width, cfg.Height, MaxImageDimension, MaxImageDimension)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Join(ErrImage, err)
	}
	bounds := src.Bounds()
	flat := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(flat, flat.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), src, bounds.Min, draw.Over)

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, flat); err != nil {
		return nil, errors.Join(ErrImage, err)
	}
	return buf.Bytes(), nil
}

func imageFigure(name string, pngData []byte) string {
	alt := html.EscapeString(name)
	return `<div class="file-image"><img src="data:image/png;base64,` +
		base64.StdEncoding.EncodeToString(pngData) + `" alt="` + alt + `">` +
		`<p class="file-caption">` + alt + `</p></div>`
}
