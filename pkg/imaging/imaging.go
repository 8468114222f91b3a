// ST2205 Tools
// Copyright (c) 2026 The ST2205 Tools Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of ST2205 Tools.
//
// ST2205 Tools is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// ST2205 Tools is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with ST2205 Tools.  If not, see <http://www.gnu.org/licenses/>.

// Package imaging loads pictures and scales them to a frame's panel.
package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ErrEmptyImage is returned for images with no pixels.
var ErrEmptyImage = errors.New("empty image")

// Mode selects how an image is mapped onto the panel.
type Mode int

const (
	// Letterbox scales to fit, keeping the aspect ratio, and centers the
	// result on a black background.
	Letterbox Mode = iota
	// Stretch scales to the panel size ignoring the aspect ratio.
	Stretch
	// Crop scales to cover the panel, keeping the aspect ratio, and cuts
	// off what does not fit.
	Crop
)

func (m Mode) String() string {
	switch m {
	case Letterbox:
		return "letterbox"
	case Stretch:
		return "stretch"
	case Crop:
		return "crop"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses the names returned by Mode.String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "letterbox", "":
		return Letterbox, nil
	case "stretch":
		return Stretch, nil
	case "crop":
		return Crop, nil
	default:
		return 0, fmt.Errorf("unknown scale mode: %s", s)
	}
}

var extensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".bmp":  {},
	".webp": {},
}

// IsImageFile reports whether path has an extension Decode understands.
func IsImageFile(path string) bool {
	_, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Decode reads one image in any registered format.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, "", ErrEmptyImage
	}
	return img, format, nil
}

// Load decodes the image at path on fs.
func Load(fs afero.Fs, path string) (image.Image, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	img, _, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// Placement returns the rectangle inside a w by h canvas that src is
// scaled into, and the part of src that is used.
func Placement(src image.Rectangle, w, h int, mode Mode) (dst, used image.Rectangle) {
	sw, sh := src.Dx(), src.Dy()
	canvas := image.Rect(0, 0, w, h)

	switch mode {
	case Stretch:
		return canvas, src
	case Crop:
		// scale so the short side fills, then trim the long side
		if sw*h > sh*w {
			cw := max(1, sh*w/h)
			x0 := src.Min.X + (sw-cw)/2
			return canvas, image.Rect(x0, src.Min.Y, x0+cw, src.Max.Y)
		}
		ch := max(1, sw*h/w)
		y0 := src.Min.Y + (sh-ch)/2
		return canvas, image.Rect(src.Min.X, y0, src.Max.X, y0+ch)
	default:
		dw, dh := w, h
		if sw*h > sh*w {
			dh = max(1, sh*w/sw)
		} else {
			dw = max(1, sw*h/sh)
		}
		x0 := (w - dw) / 2
		y0 := (h - dh) / 2
		return image.Rect(x0, y0, x0+dw, y0+dh), src
	}
}

// Fit renders src onto a w by h RGBA canvas.
func Fit(src image.Image, w, h int, mode Mode, scaler draw.Scaler) *image.RGBA {
	if scaler == nil {
		scaler = draw.CatmullRom
	}

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	dst, used := Placement(src.Bounds(), w, h, mode)
	if dst.Size() == used.Size() {
		draw.Draw(out, dst, src, used.Min, draw.Over)
		return out
	}
	scaler.Scale(out, dst, src, used, draw.Over, nil)
	return out
}

// ToRGB flattens img into a packed RGB buffer of w*h*3 bytes. Pixels
// outside img are black.
func ToRGB(img image.Image, w, h int) []byte {
	pix := make([]byte, w*h*3)
	b := img.Bounds()
	for y := range h {
		for x := range w {
			p := image.Pt(b.Min.X+x, b.Min.Y+y)
			if !p.In(b) {
				continue
			}
			c := color.RGBAModel.Convert(img.At(p.X, p.Y)).(color.RGBA)
			i := (y*w + x) * 3
			pix[i] = c.R
			pix[i+1] = c.G
			pix[i+2] = c.B
		}
	}
	return pix
}
