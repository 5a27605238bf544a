package converter

import (
	"bytes"
	"context"
	"fmt"

	"github.com/disintegration/imaging"
)

var imageFormats = map[string]imaging.Format{
	"png": imaging.PNG,
	"jpg": imaging.JPEG,
	"gif": imaging.GIF,
}

func IsImageKind(kind string) bool {
	_, ok := imageFormats[kind]
	return ok
}

// ConvertImage re-encodes a single image into the target format in process.
func ConvertImage(ctx context.Context, inputs []Input, target string) ([]byte, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("image conversion expects one input, got %d", len(inputs))
	}

	format, ok := imageFormats[target]
	if !ok {
		return nil, fmt.Errorf("unsupported image format: %s", target)
	}

	img, err := imaging.Decode(bytes.NewReader(inputs[0].Data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", inputs[0].Name, err)
	}

	var opts []imaging.EncodeOption
	if format == imaging.JPEG {
		opts = append(opts, imaging.JPEGQuality(95))
	}

	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, img, format, opts...); err != nil {
		return nil, fmt.Errorf("encode %s: %w", target, err)
	}
	return buf.Bytes(), nil
}
