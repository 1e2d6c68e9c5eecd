package gpu

import (
	"math"
	"testing"
)

func TestSphereGeometryCounts(t *testing.T) {
	for _, res := range [][2]uint32{{4, 4}, {8, 6}, {64, 64}} {
		nx, nz := res[0], res[1]
		verts, indices, err := SphereGeometry(nx, nz)
		if err != nil {
			t.Fatalf("SphereGeometry(%d, %d): %v", nx, nz, err)
		}
		if want := int(2 + nx*(nz-2)); len(verts) != want {
			t.Errorf("%dx%d vertices = %d, want %d", nx, nz, len(verts), want)
		}
		if want := int(3 * nx * (2*nz - 4)); len(indices) != want {
			t.Errorf("%dx%d indices = %d, want %d", nx, nz, len(indices), want)
		}
	}
}

func TestSphereGeometryUnitRadius(t *testing.T) {
	verts, _, err := SphereGeometry(16, 12)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range verts {
		p := v.Position
		r := math.Sqrt(float64(p[0]*p[0] + p[1]*p[1] + p[2]*p[2]))
		if math.Abs(r-1) > 1e-5 {
			t.Fatalf("vertex %d radius = %f", i, r)
		}
	}
}

func TestSphereGeometryPoles(t *testing.T) {
	verts, _, err := SphereGeometry(8, 8)
	if err != nil {
		t.Fatal(err)
	}
	if verts[0].Position != [3]float32{0, 0, -1} {
		t.Errorf("south pole = %v", verts[0].Position)
	}
	if verts[len(verts)-1].Position != [3]float32{0, 0, 1} {
		t.Errorf("north pole = %v", verts[len(verts)-1].Position)
	}
}

func TestSphereGeometryIndicesInRange(t *testing.T) {
	verts, indices, err := SphereGeometry(64, 64)
	if err != nil {
		t.Fatal(err)
	}
	for i, ix := range indices {
		if int(ix) >= len(verts) {
			t.Fatalf("index %d out of range: %d >= %d", i, ix, len(verts))
		}
	}
}

func TestSphereGeometryWindsOutward(t *testing.T) {
	verts, indices, err := SphereGeometry(12, 10)
	if err != nil {
		t.Fatal(err)
	}
	// For CCW triangles on a sphere the face normal points away from
	// the center, so it has positive dot with the centroid.
	for tri := 0; tri+2 < len(indices); tri += 3 {
		a := verts[indices[tri]].Position
		b := verts[indices[tri+1]].Position
		c := verts[indices[tri+2]].Position

		var ab, ac, n, centroid [3]float64
		for k := 0; k < 3; k++ {
			ab[k] = float64(b[k] - a[k])
			ac[k] = float64(c[k] - a[k])
			centroid[k] = float64(a[k]+b[k]+c[k]) / 3
		}
		n[0] = ab[1]*ac[2] - ab[2]*ac[1]
		n[1] = ab[2]*ac[0] - ab[0]*ac[2]
		n[2] = ab[0]*ac[1] - ab[1]*ac[0]

		dot := n[0]*centroid[0] + n[1]*centroid[1] + n[2]*centroid[2]
		if dot <= 0 {
			t.Fatalf("triangle %d winds inward (dot %g)", tri/3, dot)
		}
	}
}

func TestSphereGeometryRejectsLowResolution(t *testing.T) {
	if _, _, err := SphereGeometry(3, 8); err == nil {
		t.Error("nx below 4 must be rejected")
	}
	if _, _, err := SphereGeometry(8, 3); err == nil {
		t.Error("nz below 4 must be rejected")
	}
}

func TestQuadGeometry(t *testing.T) {
	verts, indices := QuadGeometry()
	if len(verts) != 4 || len(indices) != 6 {
		t.Fatalf("got %d vertices, %d indices", len(verts), len(indices))
	}
	for i, v := range verts {
		wantU := (v.Position[0] + 1) / 2
		wantV := (1 - v.Position[1]) / 2
		if v.TexCoords[0] != wantU || v.TexCoords[1] != wantV {
			t.Errorf("vertex %d uv = %v, want (%f, %f)", i, v.TexCoords, wantU, wantV)
		}
	}
	want := []uint32{0, 2, 1, 0, 1, 3}
	for i := range want {
		if indices[i] != want[i] {
			t.Fatalf("indices = %v, want %v", indices, want)
		}
	}
}
