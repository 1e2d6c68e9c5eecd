package swirl

// Sampler gates an action to every period-th call. The first Check
// after construction reports true.
type Sampler struct {
	period int
	count  int
}

func NewSampler(period int) Sampler {
	if period < 1 {
		period = 1
	}
	return Sampler{period: period, count: period - 1}
}

func (s *Sampler) Check() bool {
	s.count = (s.count + 1) % s.period
	return s.count == 0
}
