package gpu

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gekko3d/swirl"
	"github.com/gekko3d/swirl/swirlviz/viz/shaders"
)

// The pipelines bind the embedded shaders by entry-point name, attribute
// location, and shared constants. These tests pin the WGSL sources to
// what the Go side declares so the two cannot drift apart silently.

func TestShaderEntryPoints(t *testing.T) {
	for name, src := range map[string]string{
		"scene": shaders.SceneWGSL,
		"trail": shaders.TrailWGSL,
		"post":  shaders.PostWGSL,
		"text":  shaders.TextWGSL,
	} {
		assert.Contains(t, src, "fn vs_main", "%s vertex entry", name)
		assert.Contains(t, src, "fn fs_main", "%s fragment entry", name)
	}
}

func TestPostShaderMatchesFlagBits(t *testing.T) {
	assert.Equal(t, uint32(1), PostFlagEnabled)
	assert.Equal(t, uint32(2), PostFlagHorizontal)
	assert.Contains(t, shaders.PostWGSL,
		fmt.Sprintf("const FLAG_ENABLED: u32 = %du;", PostFlagEnabled))
	assert.Contains(t, shaders.PostWGSL,
		fmt.Sprintf("const FLAG_HORIZONTAL: u32 = %du;", PostFlagHorizontal))
}

func TestPostShaderFilterTerms(t *testing.T) {
	// Disabled invocations pass the source through untouched; enabled
	// ones average three taps two texels apart along one axis.
	assert.Contains(t, shaders.PostWGSL, "2.0 / dims.x")
	assert.Contains(t, shaders.PostWGSL, "2.0 / dims.y")
	assert.Contains(t, shaders.PostWGSL, "sum / 3.0")
}

// postFilterTap mirrors the post shader's fragment math on the CPU. The
// fullscreen quad maps texels 1:1, so the ±2-texel sample offsets land
// on texel centers and clamp at the edges like the pass sampler.
func postFilterTap(img [][4]float32, w, h, x, y int, flags uint32) [4]float32 {
	at := func(x, y int) [4]float32 {
		if x < 0 {
			x = 0
		}
		if x >= w {
			x = w - 1
		}
		if y < 0 {
			y = 0
		}
		if y >= h {
			y = h - 1
		}
		return img[y*w+x]
	}
	if flags&PostFlagEnabled == 0 {
		return at(x, y)
	}
	dx, dy := 0, 2
	if flags&PostFlagHorizontal != 0 {
		dx, dy = 2, 0
	}
	var out [4]float32
	for c := 0; c < 4; c++ {
		out[c] = (at(x-dx, y-dy)[c] + at(x, y)[c] + at(x+dx, y+dy)[c]) / 3
	}
	return out
}

func TestPostFilterIdentityWhenDisabled(t *testing.T) {
	const w, h = 8, 8
	img := make([][4]float32, w*h)
	img[4*w+4] = [4]float32{3, 3, 3, 3}

	// The axis bit alone must not filter; both stock invocations run
	// with the enable bit clear.
	for _, flags := range []uint32{0, PostFlagHorizontal} {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				got := postFilterTap(img, w, h, x, y, flags)
				assert.Equal(t, img[y*w+x], got, "flags %d texel (%d,%d)", flags, x, y)
			}
		}
	}
}

func TestPostFilterThreeTapSpread(t *testing.T) {
	const w, h = 9, 9
	const cx, cy = 4, 4
	img := make([][4]float32, w*h)
	img[cy*w+cx] = [4]float32{3, 3, 3, 3}

	third := [4]float32{1, 1, 1, 1}
	var zero [4]float32

	// Vertical pass: the bright texel spreads to ±2 rows, same column.
	vert := PostFlagEnabled
	assert.Equal(t, third, postFilterTap(img, w, h, cx, cy, vert))
	assert.Equal(t, third, postFilterTap(img, w, h, cx, cy-2, vert))
	assert.Equal(t, third, postFilterTap(img, w, h, cx, cy+2, vert))
	assert.Equal(t, zero, postFilterTap(img, w, h, cx, cy-1, vert))
	assert.Equal(t, zero, postFilterTap(img, w, h, cx-2, cy, vert))

	// Horizontal pass: ±2 columns, same row.
	horiz := PostFlagEnabled | PostFlagHorizontal
	assert.Equal(t, third, postFilterTap(img, w, h, cx, cy, horiz))
	assert.Equal(t, third, postFilterTap(img, w, h, cx-2, cy, horiz))
	assert.Equal(t, third, postFilterTap(img, w, h, cx+2, cy, horiz))
	assert.Equal(t, zero, postFilterTap(img, w, h, cx, cy-2, horiz))
}

func TestPostFilterClampsAtEdges(t *testing.T) {
	const w, h = 8, 8
	img := make([][4]float32, w*h)
	img[0*w+4] = [4]float32{3, 3, 3, 3}

	// Row -2 clamps back onto row 0, so the edge texel counts twice.
	got := postFilterTap(img, w, h, 4, 0, PostFlagEnabled)
	assert.Equal(t, [4]float32{2, 2, 2, 2}, got)
}

func TestSceneShadersMatchInstanceLayout(t *testing.T) {
	for name, src := range map[string]string{
		"scene": shaders.SceneWGSL,
		"trail": shaders.TrailWGSL,
	} {
		for loc := 5; loc <= 8; loc++ {
			assert.Contains(t, src, fmt.Sprintf("@location(%d) model_%d", loc, loc-5), name)
		}
		assert.Contains(t, src, "@location(9) color", name)
		assert.Contains(t, src, "@location(10) attrs: u32", name)
		assert.Contains(t, src, "@location(11) age: u32", name)
		assert.Contains(t, src,
			fmt.Sprintf("const ATTR_ENABLED: u32 = %du;", swirl.AttrEnabled), name)
	}
}

func TestTrailShaderMatchesFadeLaw(t *testing.T) {
	assert.Contains(t, shaders.TrailWGSL,
		fmt.Sprintf("const FADE_RATE: f32 = %v;", swirl.FadeRate))
	assert.Contains(t, shaders.TrailWGSL,
		fmt.Sprintf("const FADE_CUTOFF: f32 = %v;", swirl.FadeCutoff))
}
