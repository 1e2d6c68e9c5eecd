package swirl

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// AttrEnabled marks an instance as live; both scene shaders discard
	// fragments of instances without it.
	AttrEnabled uint32 = 1 << 0

	// FadeRate is the exponential falloff of trail brightness per age step.
	FadeRate = 0.05
	// FadeCutoff is the weight below which trail fragments are dropped.
	FadeCutoff = 0.01
)

// FadeWeight returns the trail brightness at the given age: 1 at age 0,
// decaying exponentially at FadeRate per step.
func FadeWeight(age float32) float32 {
	return float32(math.Exp(float64(-FadeRate * age)))
}

// InstanceRecord is the per-instance vertex data shared by the sphere
// and trail pipelines. Field order matches the attribute layout the
// pipelines declare: mat4 at locations 5-8, color at 9, attrs at 10,
// age at 11.
type InstanceRecord struct {
	Model mgl32.Mat4
	Color [4]float32
	Attrs uint32
	Age   uint32
}

// Instances holds one frame's instance records. The slices are reused
// across frames; BuildInstances truncates and refills them.
type Instances struct {
	Spheres  []InstanceRecord
	Segments []InstanceRecord
}

// BuildInstances rebuilds dst from the system's current state: one
// sphere record per particle and one segment record per consecutive
// pair of trail positions. Dark particles are emitted too, with
// AttrEnabled clear, so record counts stay stable frame to frame.
func BuildInstances(sys *System, radius float32, dst *Instances) {
	dst.Spheres = dst.Spheres[:0]
	dst.Segments = dst.Segments[:0]

	for i := 0; i < sys.Len(); i++ {
		pos := sys.StateAt(i).Pos32()
		color := sys.Color(i)
		var attrs uint32
		if sys.EnabledAt(i) {
			attrs |= AttrEnabled
		}

		model := mgl32.Translate3D(pos.X(), pos.Y(), pos.Z()).
			Mul4(mgl32.Scale3D(radius, radius, radius))
		dst.Spheres = append(dst.Spheres, InstanceRecord{
			Model: model,
			Color: color,
			Attrs: attrs,
		})

		// Each segment maps the unit X axis onto newer->older trail
		// positions; Age carries the newer endpoint's age.
		tr := sys.Trail(i)
		for age := 0; age+1 < tr.Len(); age++ {
			p0 := tr.At(age)
			d := tr.At(age + 1).Sub(p0)
			seg := mgl32.Ident4()
			seg.SetCol(0, d.Vec4(0))
			seg.SetCol(3, p0.Vec4(1))
			dst.Segments = append(dst.Segments, InstanceRecord{
				Model: seg,
				Color: color,
				Attrs: attrs,
				Age:   uint32(age),
			})
		}
	}
}
