package gpu

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"
)

// Capture replays the final filter invocation into a private texture and
// reads the result back from the GPU. The returned image matches what the
// last presented frame showed, minus the overlay.
func (p *PostPass) Capture(width, height uint32) (*image.RGBA, error) {
	tex, err := p.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Screenshot Target",
		Size:          wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        p.format,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("create screenshot texture: %w", err)
	}
	defer tex.Release()
	view, err := tex.CreateView(nil)
	if err != nil {
		return nil, fmt.Errorf("create screenshot view: %w", err)
	}
	defer view.Release()

	// Copy rows must start on 256-byte boundaries.
	bytesPerRow := (width*4 + 255) & ^uint32(255)
	readback, err := p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Screenshot Readback",
		Size:  uint64(bytesPerRow) * uint64(height),
		Usage: wgpu.BufferUsageCopyDst | wgpu.BufferUsageMapRead,
	})
	if err != nil {
		return nil, fmt.Errorf("create screenshot buffer: %w", err)
	}
	defer readback.Release()

	encoder, err := p.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("create screenshot encoder: %w", err)
	}
	if err := p.RecordFinal(encoder, view, nil); err != nil {
		return nil, err
	}
	encoder.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
		},
		&wgpu.ImageCopyBuffer{
			Buffer: readback,
			Layout: wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  bytesPerRow,
				RowsPerImage: height,
			},
		},
		&wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
	)
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("finish screenshot encoder: %w", err)
	}
	p.queue.Submit(cmd)

	mapped := false
	readback.MapAsync(wgpu.MapModeRead, 0, readback.GetSize(), func(status wgpu.BufferMapAsyncStatus) {
		mapped = status == wgpu.BufferMapAsyncStatusSuccess
	})
	p.device.Poll(true, nil)
	if !mapped {
		return nil, fmt.Errorf("map screenshot buffer failed")
	}
	defer readback.Unmap()

	data := readback.GetMappedRange(0, uint(readback.GetSize()))
	pix := unpadRows(data, bytesPerRow, width, height)
	if formatIsBGRA(p.format) {
		swizzleBGRA(pix)
	}
	return &image.RGBA{
		Pix:    pix,
		Stride: int(width) * 4,
		Rect:   image.Rect(0, 0, int(width), int(height)),
	}, nil
}

// SaveScreenshot captures the frame and writes it as a PNG under dir,
// creating the directory if needed. Returns the written path.
func (p *PostPass) SaveScreenshot(width, height uint32, dir string) (string, error) {
	img, err := p.Capture(width, height)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create screenshot dir: %w", err)
	}
	path := screenshotPath(dir, time.Now())
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create screenshot file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return "", fmt.Errorf("encode screenshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}
	return path, nil
}

func screenshotPath(dir string, now time.Time) string {
	stamp := now.UTC().Format("20060102T150405Z")
	return filepath.Join(dir, fmt.Sprintf("%s-%s.png", stamp, uuid.NewString()))
}

// unpadRows packs the row-aligned readback bytes into a tight w*4 pitch.
func unpadRows(data []byte, bytesPerRow, width, height uint32) []byte {
	rowLen := int(width) * 4
	pix := make([]byte, rowLen*int(height))
	for y := 0; y < int(height); y++ {
		src := y * int(bytesPerRow)
		copy(pix[y*rowLen:(y+1)*rowLen], data[src:src+rowLen])
	}
	return pix
}

// swizzleBGRA swaps the blue and red channels in place.
func swizzleBGRA(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}

func formatIsBGRA(format wgpu.TextureFormat) bool {
	return format == wgpu.TextureFormatBGRA8Unorm || format == wgpu.TextureFormatBGRA8UnormSrgb
}
