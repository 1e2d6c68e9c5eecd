package swirl

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// TrailBuffer keeps the most recent positions of a particle in a fixed
// capacity ring. Age 0 is the newest entry; a push at capacity evicts
// the oldest.
type TrailBuffer struct {
	data []mgl32.Vec3
	next int
	n    int
}

func NewTrail(capacity int) *TrailBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &TrailBuffer{data: make([]mgl32.Vec3, capacity)}
}

func (t *TrailBuffer) Cap() int { return len(t.data) }

func (t *TrailBuffer) Len() int { return t.n }

func (t *TrailBuffer) Push(p mgl32.Vec3) {
	t.data[t.next] = p
	t.next = (t.next + 1) % len(t.data)
	if t.n < len(t.data) {
		t.n++
	}
}

// At returns the entry age steps behind the newest push. At(0) is the
// most recent entry, At(Len()-1) the oldest retained; ages outside
// [0, Len()) panic.
func (t *TrailBuffer) At(age int) mgl32.Vec3 {
	if age < 0 || age >= t.n {
		panic(fmt.Sprintf("trail age %d out of range [0, %d)", age, t.n))
	}
	i := (t.next - 1 - age) % len(t.data)
	if i < 0 {
		i += len(t.data)
	}
	return t.data[i]
}

func (t *TrailBuffer) Clear() {
	t.next = 0
	t.n = 0
}
