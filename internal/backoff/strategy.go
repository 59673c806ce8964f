package backoff

import (
	"math/rand"
	"time"
)

// Strategy computes the delay before the attempt following attempt n (n >= 0).
type Strategy interface {
	Delay(p Policy, n int) time.Duration
}

// Policy holds the parameters shared by every strategy.
type Policy struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64 // fraction of the delay added at random, clamped to [0, 1]
	Strategy   Strategy
}

// Delay returns the delay after attempt n using the policy's strategy,
// exponential jitter when none is set.
func (p Policy) Delay(n int) time.Duration {
	s := p.Strategy
	if s == nil {
		s = ExponentialJitter{}
	}
	return s.Delay(p, n)
}

// ExponentialJitter grows the delay by Multiplier per attempt and adds up to
// Jitter*delay at random, never exceeding Max.
type ExponentialJitter struct{}

func (ExponentialJitter) Delay(p Policy, n int) time.Duration {
	if n < 0 {
		n = 0
	}
	// 2^30 already overflows any sane Max
	if n > 30 {
		n = 30
	}

	d := time.Duration(float64(p.Initial) * pow(p.Multiplier, n))
	if d < 0 || d > p.Max {
		d = p.Max
	}

	if j := clampJitter(p.Jitter); j > 0 {
		extra := time.Duration(float64(d) * j * rand.Float64())
		if d+extra > p.Max {
			return p.Max
		}
		d += extra
	}
	return d
}

// DecorrelatedJitter picks a delay uniformly in [Initial, min(Max, Initial*3^n)].
// See https://aws.amazon.com/blogs/architecture/exponential-backoff-and-jitter/
type DecorrelatedJitter struct{}

func (DecorrelatedJitter) Delay(p Policy, n int) time.Duration {
	if n <= 0 {
		return p.Initial
	}
	if n > 10 {
		n = 10
	}

	base := float64(p.Initial)
	upper := base * pow(3.0, n)
	if upper > float64(p.Max) || upper < 0 {
		upper = float64(p.Max)
	}
	if upper < base {
		upper = base
	}

	d := time.Duration(base + rand.Float64()*(upper-base))
	if d < 0 || d > p.Max {
		d = p.Max
	}
	return d
}

// Wait sleeps for d or until done is closed, whichever comes first. It
// reports false when done fired.
func Wait(done <-chan struct{}, d time.Duration) bool {
	if d <= 0 {
		select {
		case <-done:
			return false
		default:
			return true
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-done:
		return false
	}
}

func clampJitter(jitter float64) float64 {
	if jitter < 0 {
		return 0
	}
	if jitter > 1 {
		return 1
	}
	return jitter
}

func pow(base float64, exponent int) float64 {
	result := 1.0
	for i := 0; i < exponent; i++ {
		result *= base
	}
	return result
}
