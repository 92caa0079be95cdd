// Package thumbnail draws placeholder tiles for listings without a photo.
package thumbnail

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"unicode"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/gobold"
)

const (
	Width  = 640
	Height = 400
)

// palette of muted tile colours; a name always maps to the same one.
var palette = []color.RGBA{
	{R: 0x33, G: 0x41, B: 0x55, A: 0xff},
	{R: 0x1e, G: 0x3a, B: 0x8a, A: 0xff},
	{R: 0x06, G: 0x5f, B: 0x46, A: 0xff},
	{R: 0x7c, G: 0x2d, B: 0x12, A: 0xff},
	{R: 0x58, G: 0x1c, B: 0x87, A: 0xff},
	{R: 0x0f, G: 0x76, B: 0x6e, A: 0xff},
	{R: 0x9f, G: 0x12, B: 0x39, A: 0xff},
	{R: 0x3f, G: 0x3f, B: 0x46, A: 0xff},
}

var (
	fontOnce sync.Once
	boldFont *truetype.Font
	fontErr  error
)

func loadFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		boldFont, fontErr = truetype.Parse(gobold.TTF)
	})
	return boldFont, fontErr
}

// Initials returns up to two upper-case initials of name, or "?".
func Initials(name string) string {
	var out []rune
	for _, word := range strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		out = append(out, unicode.ToUpper([]rune(word)[0]))
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return "?"
	}
	return string(out)
}

// ColorFor picks the tile colour for name.
func ColorFor(name string) color.RGBA {
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(name)))
	return palette[h.Sum32()%uint32(len(palette))]
}

// Render draws the tile for name as a PNG.
func Render(name string) ([]byte, error) {
	font, err := loadFont()
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}

	dc := gg.NewContext(Width, Height)
	dc.SetColor(ColorFor(name))
	dc.Clear()

	// soft inner frame
	dc.SetRGBA(1, 1, 1, 0.08)
	dc.DrawRectangle(24, 24, Width-48, Height-48)
	dc.Fill()

	dc.SetRGB(1, 1, 1)
	dc.SetFontFace(truetype.NewFace(font, &truetype.Options{Size: 140}))
	dc.DrawStringAnchored(Initials(name), Width/2, Height/2-20, 0.5, 0.5)

	dc.SetRGBA(1, 1, 1, 0.7)
	dc.SetFontFace(truetype.NewFace(font, &truetype.Options{Size: 28}))
	dc.DrawStringAnchored(truncate(name, 36), Width/2, Height-70, 0.5, 0.5)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(text string, max int) string {
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	return string(r[:max-3]) + "..."
}
