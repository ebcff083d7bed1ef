package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/shaiso/Rendezvous/internal/domain"
)

// Типы областей.
const (
	RegionCircle   = "circle"
	RegionCylinder = "cylinder"
)

// relative: центр области, привязанный к опорному объекту.
//
// Смещение задаётся в системе координат опорного объекта и
// поворачивается вместе с ним (rejoin-область "за" ведущим).
type relative struct {
	ref    domain.Object
	offset r3.Vec
}

func (r relative) Position() r3.Vec {
	return r3.Add(r.ref.Position(), r.ref.Orientation().Rotate(r.offset))
}

func (r relative) Velocity() r3.Vec {
	return r.ref.Velocity()
}

func (r relative) Orientation() r3.Rotation {
	return r.ref.Orientation()
}

func (r relative) Attr(string) (float64, bool) {
	return 0, false
}

// RelativeCircle: круг в плоскости XY вокруг точки, привязанной к опорному объекту.
type RelativeCircle struct {
	relative
	Radius float64
}

// NewRelativeCircle создаёт круговую область.
func NewRelativeCircle(ref domain.Object, radius float64, offset r3.Vec) (*RelativeCircle, error) {
	if !(radius > 0) || math.IsInf(radius, 0) {
		return nil, fmt.Errorf("%w: radius %v", ErrInvalidRegionSize, radius)
	}
	return &RelativeCircle{relative: relative{ref: ref, offset: offset}, Radius: radius}, nil
}

// Contains проверяет расстояние в плоскости XY.
func (c *RelativeCircle) Contains(o domain.Object) bool {
	d := r3.Sub(o.Position(), c.Position())
	return math.Hypot(d.X, d.Y) <= c.Radius
}

// RelativeCylinder: цилиндр с осью Z, привязанный к опорному объекту.
type RelativeCylinder struct {
	relative
	Radius float64
	Height float64
}

// NewRelativeCylinder создаёт цилиндрическую область.
func NewRelativeCylinder(ref domain.Object, radius, height float64, offset r3.Vec) (*RelativeCylinder, error) {
	if !(radius > 0) || !(height > 0) {
		return nil, fmt.Errorf("%w: radius %v, height %v", ErrInvalidRegionSize, radius, height)
	}
	return &RelativeCylinder{
		relative: relative{ref: ref, offset: offset},
		Radius:   radius,
		Height:   height,
	}, nil
}

// Contains проверяет радиус в плоскости XY и половину высоты по Z.
func (c *RelativeCylinder) Contains(o domain.Object) bool {
	d := r3.Sub(o.Position(), c.Position())
	return math.Hypot(d.X, d.Y) <= c.Radius && math.Abs(d.Z) <= c.Height/2
}

// NewRegion строит область по спецификации.
// Неизвестный тип: ошибка конфигурации, а не значение по умолчанию.
func NewRegion(spec domain.RegionSpec, ref domain.Object) (domain.Region, error) {
	offset, err := VecFrom(spec.Offset)
	if err != nil {
		return nil, fmt.Errorf("region offset: %w", err)
	}

	switch spec.Type {
	case RegionCircle:
		c, err := NewRelativeCircle(ref, spec.Radius, offset)
		if err != nil {
			return nil, err
		}
		return c, nil
	case RegionCylinder:
		c, err := NewRelativeCylinder(ref, spec.Radius, spec.Height, offset)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: %q (want %s or %s)", ErrInvalidRegionType, spec.Type, RegionCircle, RegionCylinder)
	}
}
