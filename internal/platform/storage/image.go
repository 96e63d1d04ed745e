// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storage

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/taibuivan/komik/internal/platform/constants"
	"github.com/taibuivan/komik/internal/platform/validate"
)

// # Upload Constraints

// Accepted image types.
const (
	TypeJPEG = "image/jpeg"
	TypePNG  = "image/png"
	TypeWebP = "image/webp"
)

var extensions = map[string]string{
	TypeJPEG: "jpg",
	TypePNG:  "png",
	TypeWebP: "webp",
}

/*
CheckImage enforces the upload rules for covers and pages.

The content type is sniffed from the bytes; the client-declared type is ignored.

Parameters:
  - field: form field reported in the validation error
  - data: the complete file

Returns:
  - string: the sniffed content type
  - error: validation error naming the broken rule
*/
func CheckImage(field string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", validate.FieldError(field, "File is empty")
	}
	if len(data) > constants.MaxImageBytes {
		return "", validate.FieldError(field, fmt.Sprintf("File is too large (maximum %d MB)", constants.MaxImageBytes>>20))
	}

	contentType := http.DetectContentType(data)
	if _, ok := extensions[contentType]; !ok {
		return "", validate.FieldError(field, "File type not allowed (JPEG, PNG, WebP only)")
	}
	return contentType, nil
}

// Extension maps an accepted content type to its file extension.
func Extension(contentType string) string {
	if extension, ok := extensions[contentType]; ok {
		return extension
	}
	return "bin"
}

// # Image Inspection

// Dimensions holds the pixel size of an image.
type Dimensions struct {
	Width  int
	Height int
}

// Inspect reads only the image header to get its dimensions.
func Inspect(data []byte, contentType string) (Dimensions, error) {
	var (
		config image.Config
		err    error
	)

	reader := bytes.NewReader(data)
	switch contentType {
	case TypeWebP:
		config, err = webp.DecodeConfig(reader)
	case TypePNG:
		config, err = png.DecodeConfig(reader)
	case TypeJPEG:
		config, err = jpeg.DecodeConfig(reader)
	default:
		return Dimensions{}, fmt.Errorf("storage: cannot inspect %s", contentType)
	}
	if err != nil {
		return Dimensions{}, fmt.Errorf("storage: failed to read image header: %w", err)
	}

	return Dimensions{Width: config.Width, Height: config.Height}, nil
}

// # Cover Normalisation

// PrepareCover shrinks a cover to fit the cover box and re-encodes it as WebP.
// Smaller images keep their size.
func PrepareCover(data []byte, contentType string) ([]byte, Dimensions, error) {
	source, err := decode(data, contentType)
	if err != nil {
		return nil, Dimensions{}, err
	}

	bounds := source.Bounds()
	if bounds.Dx() > constants.CoverMaxWidth || bounds.Dy() > constants.CoverMaxHeight {
		source = imaging.Fit(source, constants.CoverMaxWidth, constants.CoverMaxHeight, imaging.Lanczos)
	}

	var buffer bytes.Buffer
	if err := webp.Encode(&buffer, source, &webp.Options{Quality: constants.CoverWebPQuality}); err != nil {
		return nil, Dimensions{}, fmt.Errorf("storage: failed to encode cover: %w", err)
	}

	bounds = source.Bounds()
	return buffer.Bytes(), Dimensions{Width: bounds.Dx(), Height: bounds.Dy()}, nil
}

func decode(data []byte, contentType string) (image.Image, error) {
	reader := bytes.NewReader(data)
	switch contentType {
	case TypeWebP:
		decoded, err := webp.Decode(reader)
		if err != nil {
			return nil, validate.FieldError("cover", "Image could not be decoded")
		}
		return decoded, nil
	case TypeJPEG, TypePNG:
		decoded, err := imaging.Decode(reader, imaging.AutoOrientation(true))
		if err != nil {
			return nil, validate.FieldError("cover", "Image could not be decoded")
		}
		return decoded, nil
	default:
		return nil, validate.FieldError("cover", "File type not allowed (JPEG, PNG, WebP only)")
	}
}
