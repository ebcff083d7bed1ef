package sim

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/shaiso/Rendezvous/internal/domain"
)

// Параметры CWH по умолчанию (низкая околоземная орбита, малый аппарат).
const (
	DefaultMeanMotion = 0.001027 // рад/с
	DefaultMass       = 12.0     // кг
)

// CWHSpacecraft: аппарат в относительном движении по уравнениям
// Clohessy–Wiltshire–Hill:
//
//	ẍ = 3n²x + 2nẏ + Fx/m
//	ÿ = -2nẋ + Fy/m
//	z̈ = -n²z + Fz/m
//
// Интегрирование: полуявный Эйлер. В режиме 2d ось Z не используется.
type CWHSpacecraft struct {
	pos, vel r3.Vec
	n, mass  float64
	planar   bool
}

// NewCWHSpacecraft создаёт аппарат.
func NewCWHSpacecraft(pos, vel r3.Vec, n, mass float64, planar bool) *CWHSpacecraft {
	if n == 0 {
		n = DefaultMeanMotion
	}
	if mass == 0 {
		mass = DefaultMass
	}
	if planar {
		pos.Z, vel.Z = 0, 0
	}
	return &CWHSpacecraft{pos: pos, vel: vel, n: n, mass: mass, planar: planar}
}

func (s *CWHSpacecraft) Position() r3.Vec            { return s.pos }
func (s *CWHSpacecraft) Velocity() r3.Vec            { return s.vel }
func (s *CWHSpacecraft) Orientation() r3.Rotation    { return domain.Identity }
func (s *CWHSpacecraft) Attr(string) (float64, bool) { return 0, false }

// ControlDim возвращает число компонент тяги: 2 для 2d, 3 для 3d.
func (s *CWHSpacecraft) ControlDim() int {
	if s.planar {
		return 2
	}
	return 3
}

// Advance интегрирует движение на stepSize с тягой control (nil: без тяги).
func (s *CWHSpacecraft) Advance(stepSize float64, control []float64) error {
	var thrust r3.Vec
	if control != nil {
		if len(control) != s.ControlDim() {
			return fmt.Errorf("%w: cwh expects %d, got %d", ErrControlSize, s.ControlDim(), len(control))
		}
		thrust.X, thrust.Y = control[0], control[1]
		if !s.planar {
			thrust.Z = control[2]
		}
	}

	n2 := s.n * s.n
	acc := r3.Vec{
		X: 3*n2*s.pos.X + 2*s.n*s.vel.Y + thrust.X/s.mass,
		Y: -2*s.n*s.vel.X + thrust.Y/s.mass,
	}
	if !s.planar {
		acc.Z = -n2*s.pos.Z + thrust.Z/s.mass
	}

	s.vel = r3.Add(s.vel, r3.Scale(stepSize, acc))
	s.pos = r3.Add(s.pos, r3.Scale(stepSize, s.vel))
	return nil
}
