package sim

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/shaiso/Rendezvous/internal/domain"
)

// Point: объект с постоянной скоростью и без управления.
type Point struct {
	pos r3.Vec
	vel r3.Vec
	rot r3.Rotation
}

// NewPoint создаёт точку.
func NewPoint(pos, vel r3.Vec) *Point {
	return &Point{pos: pos, vel: vel, rot: domain.Identity}
}

func (p *Point) Position() r3.Vec            { return p.pos }
func (p *Point) Velocity() r3.Vec            { return p.vel }
func (p *Point) Orientation() r3.Rotation    { return p.rot }
func (p *Point) Attr(string) (float64, bool) { return 0, false }

// SetPosition перемещает точку (используется тестами и сценариями).
func (p *Point) SetPosition(pos r3.Vec) { p.pos = pos }

// SetVelocity задаёт скорость.
func (p *Point) SetVelocity(vel r3.Vec) { p.vel = vel }

// SetOrientation задаёт ориентацию.
func (p *Point) SetOrientation(rot r3.Rotation) { p.rot = rot }

// ControlDim: точка не управляется.
func (p *Point) ControlDim() int { return 0 }

// Advance сдвигает точку на vel*dt.
func (p *Point) Advance(stepSize float64, _ []float64) error {
	p.pos = r3.Add(p.pos, r3.Scale(stepSize, p.vel))
	return nil
}
