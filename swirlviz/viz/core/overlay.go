package core

import (
	"fmt"
	"image"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const atlasSize = 512

// TextVertex is the overlay pipeline's vertex layout: clip-space
// position, atlas UV, color.
type TextVertex struct {
	Pos   [2]float32
	UV    [2]float32
	Color [4]float32
}

// TextItem places a block of text at a pixel position measured from the
// top-left corner. Newlines continue at the same left edge.
type TextItem struct {
	Text     string
	Position [2]float32
	Scale    float32
	Color    [4]float32
}

type GlyphInfo struct {
	UVMin [2]float32
	UVMax [2]float32
	Size  [2]float32
	Off   [2]float32
	Adv   float32
}

// Overlay rasterizes the bundled Go Regular face into an alpha atlas
// once, then turns text items into textured triangles each frame.
type Overlay struct {
	Atlas  *image.Alpha
	Glyphs map[rune]GlyphInfo

	face font.Face
}

func NewOverlay(fontSize float64) (*Overlay, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}

	atlas := image.NewAlpha(image.Rect(0, 0, atlasSize, atlasSize))
	glyphs := make(map[rune]GlyphInfo)

	x, y := 2, 2
	rowHeight := 0
	for r := rune(32); r < 127; r++ {
		bounds, mask, _, adv, ok := face.Glyph(fixed.Point26_6{}, r)
		if !ok {
			continue
		}
		w := mask.Bounds().Dx()
		h := mask.Bounds().Dy()

		if x+w >= atlasSize {
			x = 2
			y += rowHeight + 4
			rowHeight = 0
		}
		if y+h >= atlasSize {
			return nil, fmt.Errorf("glyph atlas overflow at %q", r)
		}

		draw.Draw(atlas, image.Rect(x, y, x+w, y+h), mask, mask.Bounds().Min, draw.Src)
		glyphs[r] = GlyphInfo{
			UVMin: [2]float32{float32(x) / atlasSize, float32(y) / atlasSize},
			UVMax: [2]float32{float32(x+w) / atlasSize, float32(y+h) / atlasSize},
			Size:  [2]float32{float32(w), float32(h)},
			Off:   [2]float32{float32(bounds.Min.X), float32(bounds.Min.Y)},
			Adv:   float32(adv) / 64.0, // fixed 26.6 to float
		}

		x += w + 4
		if h > rowHeight {
			rowHeight = h
		}
	}

	return &Overlay{Atlas: atlas, Glyphs: glyphs, face: face}, nil
}

// BuildVertices lays the items out as two triangles per glyph, in clip
// space for the given surface size. The pen starts one ascent below the
// item position so Position names the top-left corner of the block.
func (o *Overlay) BuildVertices(items []TextItem, screenW, screenH int) []TextVertex {
	verts := make([]TextVertex, 0, len(items)*6)

	sw, sh := float32(screenW), float32(screenH)
	toClip := func(px, py float32) (float32, float32) {
		return px/sw*2 - 1, 1 - py/sh*2
	}

	metrics := o.face.Metrics()
	ascent := float32(metrics.Ascent.Ceil())
	lineHeight := float32(metrics.Height.Ceil())

	for _, item := range items {
		corner := func(x, y, u, v float32) TextVertex {
			return TextVertex{Pos: [2]float32{x, y}, UV: [2]float32{u, v}, Color: item.Color}
		}
		pen := [2]float32{item.Position[0], item.Position[1] + ascent*item.Scale}

		for _, r := range item.Text {
			if r == '\n' {
				pen[0] = item.Position[0]
				pen[1] += lineHeight * item.Scale
				continue
			}
			g, ok := o.Glyphs[r]
			if !ok {
				continue
			}

			x0, y0 := toClip(pen[0]+g.Off[0]*item.Scale, pen[1]+g.Off[1]*item.Scale)
			x1, y1 := toClip(pen[0]+(g.Off[0]+g.Size[0])*item.Scale, pen[1]+(g.Off[1]+g.Size[1])*item.Scale)

			verts = append(verts,
				corner(x0, y0, g.UVMin[0], g.UVMin[1]),
				corner(x1, y0, g.UVMax[0], g.UVMin[1]),
				corner(x0, y1, g.UVMin[0], g.UVMax[1]),
				corner(x1, y0, g.UVMax[0], g.UVMin[1]),
				corner(x1, y1, g.UVMax[0], g.UVMax[1]),
				corner(x0, y1, g.UVMin[0], g.UVMax[1]),
			)

			pen[0] += g.Adv * item.Scale
		}
	}

	return verts
}
