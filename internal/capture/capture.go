// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package capture reads what can be learned from a media file's bytes:
// the original capture time and the pixel size.
package capture

import (
	"bytes"
	"errors"
	"image"
	"time"

	// decoders registered for image.DecodeConfig
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/rwcarlsen/goexif/exif"
)

// ErrNoCaptureTime is returned when the file carries no usable timestamp
var ErrNoCaptureTime = errors.New("no capture time")

// Extractor is the capture-time and dimension source used by the engine
type Extractor interface {
	CaptureTime(data []byte) (time.Time, error)
	Dimensions(data []byte) (width, height int, err error)
}

// EXIF implements Extractor over embedded EXIF data
type EXIF struct{}

// CaptureTime returns DateTimeOriginal (or DateTime) from the EXIF block
func (EXIF) CaptureTime(data []byte) (time.Time, error) {
	return CaptureTime(data)
}

// Dimensions returns the decoded image size
func (EXIF) Dimensions(data []byte) (int, int, error) {
	return Dimensions(data)
}

// CaptureTime extracts the capture timestamp of an image
func CaptureTime(data []byte) (time.Time, error) {
	if len(data) == 0 {
		return time.Time{}, ErrNoCaptureTime
	}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return time.Time{}, errors.Join(ErrNoCaptureTime, err)
	}

	t, err := x.DateTime()
	if err != nil {
		return time.Time{}, errors.Join(ErrNoCaptureTime, err)
	}
	if t.IsZero() || t.Year() < 1900 {
		return time.Time{}, ErrNoCaptureTime
	}
	return t, nil
}

// Dimensions returns width and height for any registered image format
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

var _ Extractor = EXIF{}
