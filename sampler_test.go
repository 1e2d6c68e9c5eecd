package swirl

import "testing"

func TestSamplerPeriod(t *testing.T) {
	s := NewSampler(3)
	want := []bool{true, false, false, true, false, false, true}
	for i, w := range want {
		if got := s.Check(); got != w {
			t.Fatalf("check %d = %v, want %v", i, got, w)
		}
	}
}

func TestSamplerPeriodOne(t *testing.T) {
	s := NewSampler(1)
	for i := 0; i < 5; i++ {
		if !s.Check() {
			t.Fatalf("check %d: period 1 must always fire", i)
		}
	}
}

func TestSamplerClampsPeriod(t *testing.T) {
	s := NewSampler(0)
	if !s.Check() {
		t.Fatal("period below 1 clamps to every-call")
	}
}
