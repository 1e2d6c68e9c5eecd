package gpu

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnpadRowsStripsAlignment(t *testing.T) {
	const width, height = 3, 2
	bytesPerRow := (uint32(width)*4 + 255) & ^uint32(255)
	require.Equal(t, uint32(256), bytesPerRow)

	data := make([]byte, int(bytesPerRow)*height)
	for y := 0; y < height; y++ {
		for i := 0; i < width*4; i++ {
			data[y*int(bytesPerRow)+i] = byte(100*y + i)
		}
		// Padding bytes must not reach the output.
		for i := width * 4; i < int(bytesPerRow); i++ {
			data[y*int(bytesPerRow)+i] = 0xEE
		}
	}

	pix := unpadRows(data, bytesPerRow, width, height)
	require.Len(t, pix, width*4*height)
	for y := 0; y < height; y++ {
		for i := 0; i < width*4; i++ {
			assert.Equal(t, byte(100*y+i), pix[y*width*4+i], "row %d byte %d", y, i)
		}
	}
}

func TestSwizzleBGRASwapsChannels(t *testing.T) {
	pix := []byte{10, 20, 30, 40, 50, 60, 70, 80}
	swizzleBGRA(pix)
	assert.Equal(t, []byte{30, 20, 10, 40, 70, 60, 50, 80}, pix)
}

func TestFormatIsBGRA(t *testing.T) {
	assert.True(t, formatIsBGRA(wgpu.TextureFormatBGRA8Unorm))
	assert.True(t, formatIsBGRA(wgpu.TextureFormatBGRA8UnormSrgb))
	assert.False(t, formatIsBGRA(wgpu.TextureFormatRGBA8Unorm))
	assert.False(t, formatIsBGRA(wgpu.TextureFormatRGBA8UnormSrgb))
}

func TestScreenshotPathShape(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	p := screenshotPath("shots", now)

	assert.Equal(t, "shots", filepath.Dir(p))
	base := filepath.Base(p)
	assert.True(t, strings.HasPrefix(base, "20260314T092653Z-"), base)
	assert.True(t, strings.HasSuffix(base, ".png"), base)
	assert.NotEqual(t, p, screenshotPath("shots", now))
}
