package sim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/shaiso/Rendezvous/internal/geometry"
)

const gravity = 9.81

// Ограничения модели Dubins.
const (
	maxHeadingRate = 10 * math.Pi / 180 // рад/с
	maxGammaRate   = 10 * math.Pi / 180
	maxRollRate    = 10 * math.Pi / 180
	maxGamma       = 10 * math.Pi / 180
	maxRoll        = 60 * math.Pi / 180
	minSpeed       = 10.0
	maxSpeed       = 400.0
	maxAccel       = 10.0
)

// DubinsAircraft: кинематическая модель самолёта.
//
// 2d: управление [heading_rate, accel].
// 3d: управление [gamma_rate, roll_rate, accel]; скорость поворота
// по курсу определяется креном: g·tan(roll)/v.
type DubinsAircraft struct {
	pos     r3.Vec
	heading float64
	gamma   float64
	roll    float64
	speed   float64
	planar  bool
}

// NewDubinsAircraft создаёт самолёт.
func NewDubinsAircraft(pos r3.Vec, heading, gamma, roll, speed float64, planar bool) *DubinsAircraft {
	if planar {
		pos.Z, gamma, roll = 0, 0, 0
	}
	return &DubinsAircraft{
		pos:     pos,
		heading: heading,
		gamma:   gamma,
		roll:    roll,
		speed:   speed,
		planar:  planar,
	}
}

func (a *DubinsAircraft) Position() r3.Vec { return a.pos }

func (a *DubinsAircraft) Velocity() r3.Vec {
	cg := math.Cos(a.gamma)
	return r3.Vec{
		X: a.speed * cg * math.Cos(a.heading),
		Y: a.speed * cg * math.Sin(a.heading),
		Z: a.speed * math.Sin(a.gamma),
	}
}

// Orientation: курс, затем тангаж, затем крен.
func (a *DubinsAircraft) Orientation() r3.Rotation {
	if a.planar {
		return geometry.Yaw(a.heading)
	}
	return geometry.Compose(geometry.Yaw(a.heading),
		geometry.Compose(geometry.Pitch(-a.gamma), geometry.Roll(a.roll)))
}

// Attr отдаёт roll, gamma, heading, speed.
func (a *DubinsAircraft) Attr(name string) (float64, bool) {
	switch name {
	case "roll":
		return a.roll, true
	case "gamma":
		return a.gamma, true
	case "heading":
		return a.heading, true
	case "speed":
		return a.speed, true
	default:
		return 0, false
	}
}

// ControlDim: 2 для 2d, 3 для 3d.
func (a *DubinsAircraft) ControlDim() int {
	if a.planar {
		return 2
	}
	return 3
}

// Advance интегрирует кинематику на stepSize.
func (a *DubinsAircraft) Advance(stepSize float64, control []float64) error {
	var accel float64
	if control != nil {
		if len(control) != a.ControlDim() {
			return fmt.Errorf("%w: dubins expects %d, got %d", ErrControlSize, a.ControlDim(), len(control))
		}
		if a.planar {
			a.heading += clamp(control[0], -maxHeadingRate, maxHeadingRate) * stepSize
			accel = control[1]
		} else {
			a.gamma = clamp(a.gamma+clamp(control[0], -maxGammaRate, maxGammaRate)*stepSize, -maxGamma, maxGamma)
			a.roll = clamp(a.roll+clamp(control[1], -maxRollRate, maxRollRate)*stepSize, -maxRoll, maxRoll)
			accel = control[2]
		}
	}

	if !a.planar && a.speed > 0 {
		a.heading += gravity * math.Tan(a.roll) / a.speed * stepSize
	}
	a.heading = math.Remainder(a.heading, 2*math.Pi)
	a.speed = clamp(a.speed+clamp(accel, -maxAccel, maxAccel)*stepSize, minSpeed, maxSpeed)

	a.pos = r3.Add(a.pos, r3.Scale(stepSize, a.Velocity()))
	return nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
