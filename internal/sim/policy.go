package sim

import (
	"fmt"
	"math/rand"
)

// Имена политик.
const (
	PolicyZero   = "zero"
	PolicyRandom = "random"
)

// Policy выбирает управление агентом по наблюдению.
type Policy interface {
	Name() string

	// Act возвращает управление; nil: без управления.
	Act(obs []float64) []float64
}

// ZeroPolicy: агент не управляется.
type ZeroPolicy struct{}

func (ZeroPolicy) Name() string            { return PolicyZero }
func (ZeroPolicy) Act([]float64) []float64 { return nil }

// RandomPolicy: равномерное управление в [-Scale, Scale] по каждой оси.
// Генератор собственный, поэтому эпизоды с одинаковым seed совпадают.
type RandomPolicy struct {
	rng   *rand.Rand
	dim   int
	Scale float64
}

// NewRandomPolicy создаёт случайную политику.
func NewRandomPolicy(dim int, scale float64, seed int64) *RandomPolicy {
	return &RandomPolicy{rng: rand.New(rand.NewSource(seed)), dim: dim, Scale: scale}
}

func (p *RandomPolicy) Name() string { return PolicyRandom }

func (p *RandomPolicy) Act([]float64) []float64 {
	u := make([]float64, p.dim)
	for i := range u {
		u[i] = (2*p.rng.Float64() - 1) * p.Scale
	}
	return u
}

// NewPolicy создаёт политику по имени.
func NewPolicy(name string, dim int, seed int64) (Policy, error) {
	switch name {
	case PolicyZero, "":
		return ZeroPolicy{}, nil
	case PolicyRandom:
		return NewRandomPolicy(dim, 1, seed), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}
