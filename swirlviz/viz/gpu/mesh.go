package gpu

import (
	"fmt"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
)

// Vertex is the position-only vertex both scene pipelines share.
type Vertex struct {
	Position [3]float32
}

// QuadVertex is a fullscreen quad corner with its texture coordinate.
type QuadVertex struct {
	Position  [3]float32
	TexCoords [2]float32
}

// Mesh owns an uploaded vertex/index buffer pair.
type Mesh struct {
	VertexBuffer *wgpu.Buffer
	IndexBuffer  *wgpu.Buffer
	IndexCount   uint32
}

func (m *Mesh) Release() {
	m.IndexBuffer.Release()
	m.VertexBuffer.Release()
}

// SphereGeometry builds a unit UV sphere with nx vertical slices and nz
// rings pole to pole. The south pole is vertex 0, the north pole the
// last vertex, and each slice contributes nz-2 ring vertices in between.
// Triangles wind CCW.
func SphereGeometry(nx, nz uint32) ([]Vertex, []uint32, error) {
	if nx < 4 || nz < 4 {
		return nil, nil, fmt.Errorf("sphere resolution %dx%d, want at least 4x4", nx, nz)
	}

	vertices := make([]Vertex, 0, 2+nx*(nz-2))
	indices := make([]uint32, 0, 3*nx*(2*nz-4))

	dtheta := 2 * math.Pi / float64(nx)
	dphi := math.Pi / float64(nz-1)
	phi0 := -0.5 * math.Pi
	north := 1 + nx*(nz-2)

	vertices = append(vertices, Vertex{Position: [3]float32{0, 0, -1}})

	for ix := uint32(0); ix < nx; ix++ {
		// Fan around the south pole; the last slice wraps back to the
		// first ring vertex.
		first := ix*(nz-2) + 1
		firstNext := uint32(1)
		if ix < nx-1 {
			firstNext = first + nz - 2
		}
		indices = append(indices, 0, firstNext, first)

		for iz := uint32(1); iz < nz-1; iz++ {
			theta := float64(ix) * dtheta
			phi := phi0 + float64(iz)*dphi
			sinTheta, cosTheta := math.Sincos(theta)
			sinPhi, cosPhi := math.Sincos(phi)
			vertices = append(vertices, Vertex{Position: [3]float32{
				float32(cosTheta * cosPhi),
				float32(sinTheta * cosPhi),
				float32(sinPhi),
			}})

			if iz < nz-2 {
				k0 := ix*(nz-2) + iz
				k1 := k0 + 1
				k2 := iz + 1
				if ix < nx-1 {
					k2 = k1 + nz - 2
				}
				k3 := k2 - 1
				indices = append(indices, k0, k2, k1, k0, k3, k2)
			}
		}

		// Fan around the north pole.
		last := ix*(nz-2) + nz - 2
		lastNext := nz - 2
		if ix < nx-1 {
			lastNext = last + nz - 2
		}
		indices = append(indices, lastNext, north, last)
	}

	vertices = append(vertices, Vertex{Position: [3]float32{0, 0, 1}})
	return vertices, indices, nil
}

// QuadGeometry returns a fullscreen quad in clip space whose texture
// coordinates span the full source.
func QuadGeometry() ([]QuadVertex, []uint32) {
	vertices := []QuadVertex{
		{Position: [3]float32{-1, 1, 0}, TexCoords: [2]float32{0, 0}},
		{Position: [3]float32{1, -1, 0}, TexCoords: [2]float32{1, 1}},
		{Position: [3]float32{-1, -1, 0}, TexCoords: [2]float32{0, 1}},
		{Position: [3]float32{1, 1, 0}, TexCoords: [2]float32{1, 0}},
	}
	indices := []uint32{0, 2, 1, 0, 1, 3}
	return vertices, indices
}

func NewSphereMesh(device *wgpu.Device, nx, nz uint32) (*Mesh, error) {
	vertices, indices, err := SphereGeometry(nx, nz)
	if err != nil {
		return nil, err
	}
	label := fmt.Sprintf("Sphere %dx%d", nx, nz)
	return newMesh(device, label, wgpu.ToBytes(vertices), wgpu.ToBytes(indices), uint32(len(indices)))
}

func NewQuadMesh(device *wgpu.Device) (*Mesh, error) {
	vertices, indices := QuadGeometry()
	return newMesh(device, "Fullscreen Quad", wgpu.ToBytes(vertices), wgpu.ToBytes(indices), uint32(len(indices)))
}

func newMesh(device *wgpu.Device, label string, vertices, indices []byte, count uint32) (*Mesh, error) {
	vertexBuf, err := device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label + " Vertex Buffer",
		Contents: vertices,
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return nil, fmt.Errorf("create vertex buffer: %w", err)
	}
	indexBuf, err := device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label + " Index Buffer",
		Contents: indices,
		Usage:    wgpu.BufferUsageIndex,
	})
	if err != nil {
		vertexBuf.Release()
		return nil, fmt.Errorf("create index buffer: %w", err)
	}
	return &Mesh{VertexBuffer: vertexBuf, IndexBuffer: indexBuf, IndexCount: count}, nil
}
